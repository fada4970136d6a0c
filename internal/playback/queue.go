package playback

import (
	"container/heap"
	"context"
	"sync"
)

type Priority int

// Prioridade menor toca primeiro; premium fura a fila dos pedidos comuns.
const (
	PriorityPremium  Priority = 0
	PriorityStandard Priority = 10
)

// Request é um pedido de reprodução. Query é o payload entregue ao player
// e também a chave usada pelo skip.
type Request struct {
	ID        string
	ChannelID string
	PlayerID  string
	Query     string
	Priority  Priority
}

type queueItem struct {
	req Request
	seq uint64
}

type requestHeap []queueItem

func (h requestHeap) Len() int { return len(h) }

// Prioridade primeiro; dentro da mesma classe, ordem de chegada (seq).
func (h requestHeap) Less(i, j int) bool {
	if h[i].req.Priority != h[j].req.Priority {
		return h[i].req.Priority < h[j].req.Priority
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) { *h = append(*h, x.(queueItem)) }

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// queue é a fila de pedidos pendentes: ilimitada, push nunca bloqueia,
// pop bloqueia até haver item ou o contexto ser cancelado.
type queue struct {
	mu     sync.Mutex
	items  requestHeap
	seq    uint64
	notify chan struct{}
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

func (q *queue) push(req Request) {
	q.mu.Lock()
	q.seq++
	heap.Push(&q.items, queueItem{req: req, seq: q.seq})
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *queue) pop(ctx context.Context) (Request, error) {
	for {
		q.mu.Lock()
		if q.items.Len() > 0 {
			item := heap.Pop(&q.items).(queueItem)
			q.mu.Unlock()
			return item.req, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Request{}, ctx.Err()
		case <-q.notify:
		}
	}
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
