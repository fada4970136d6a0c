package playback

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maxmindlin/chimp-bot/internal/wallet"
	"github.com/maxmindlin/chimp-bot/internal/wallet/store"
)

func newTestLedger(t *testing.T, players ...string) *wallet.Ledger {
	t.Helper()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "wallets.txt"))
	ledger, err := wallet.Open(context.Background(), st)
	require.NoError(t, err)
	for _, p := range players {
		require.NoError(t, ledger.OpenWallet(p))
	}
	return ledger
}

// instantPlayer termina cada faixa na hora e anuncia a query tocada.
type instantPlayer struct {
	played  chan string
	failFor map[string]error
}

func (p *instantPlayer) Play(ctx context.Context, req Request) error {
	p.played <- req.Query
	if err, ok := p.failFor[req.Query]; ok {
		return err
	}
	return nil
}

// blockingPlayer anuncia o início e segura até release ou cancelamento.
type blockingPlayer struct {
	started chan Request
	release chan struct{}
}

func (p *blockingPlayer) Play(ctx context.Context, req Request) error {
	p.started <- req
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel")
		panic("unreachable")
	}
}

// Ordem de dequeue: premium antes de qualquer comum enfileirado antes;
// FIFO dentro da mesma classe.
func TestRunPriorityOrder(t *testing.T) {
	ledger := newTestLedger(t, "rich")
	player := &instantPlayer{played: make(chan string, 8)}
	sched := NewScheduler(zap.NewNop(), ledger, player)

	sched.Enqueue(Request{PlayerID: "rich", Query: "A"})
	sched.Enqueue(Request{PlayerID: "rich", Query: "B"})
	_, err := sched.EnqueuePremium(Request{PlayerID: "rich", Query: "C"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	got := []string{recv(t, player.played), recv(t, player.played), recv(t, player.played)}
	assert.Equal(t, []string{"C", "A", "B"}, got)
}

// Skip de um pedido ainda pendente: descartado em silêncio ao ser
// alcançado, sem tentativa de reprodução, e o loop segue na hora.
func TestSkipPendingRequest(t *testing.T) {
	ledger := newTestLedger(t)
	player := &instantPlayer{played: make(chan string, 8)}
	sched := NewScheduler(zap.NewNop(), ledger, player)

	skipped := make(chan Request, 1)
	sched.OnSkipped = func(req Request) { skipped <- req }

	sched.Enqueue(Request{Query: "A"})
	sched.Enqueue(Request{Query: "B"})
	sched.Enqueue(Request{Query: "C"})
	sched.Skip("B")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	assert.Equal(t, "A", recv(t, player.played))
	assert.Equal(t, "B", recv(t, skipped).Query)
	assert.Equal(t, "C", recv(t, player.played))
}

// Skip remove a chave ao consumir: chaves duplicadas descartam só a
// primeira ocorrência.
func TestSkipFirstMatchOnly(t *testing.T) {
	ledger := newTestLedger(t)
	player := &instantPlayer{played: make(chan string, 8)}
	sched := NewScheduler(zap.NewNop(), ledger, player)

	sched.Enqueue(Request{Query: "X"})
	sched.Enqueue(Request{Query: "X"})
	sched.Skip("X")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	// a primeira ocorrência é descartada, a segunda toca
	assert.Equal(t, "X", recv(t, player.played))
}

// CancelActive encerra a faixa ativa e o loop avança como se ela tivesse
// terminado naturalmente.
func TestCancelActiveAdvances(t *testing.T) {
	ledger := newTestLedger(t)
	player := &blockingPlayer{started: make(chan Request, 1), release: make(chan struct{})}
	sched := NewScheduler(zap.NewNop(), ledger, player)

	sched.Enqueue(Request{Query: "A"})
	sched.Enqueue(Request{Query: "B"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	assert.Equal(t, "A", recv(t, player.started).Query)

	now, playing := sched.NowPlaying()
	require.True(t, playing)
	assert.Equal(t, "A", now.Query)

	sched.CancelActive()

	assert.Equal(t, "B", recv(t, player.started).Query)
	close(player.release)
}

func TestCancelActiveIdleIsNoop(t *testing.T) {
	ledger := newTestLedger(t)
	sched := NewScheduler(zap.NewNop(), ledger, &instantPlayer{played: make(chan string, 1)})

	_, playing := sched.NowPlaying()
	assert.False(t, playing)
	sched.CancelActive() // nada tocando; não pode entrar em pânico
}

// Uma falha de reprodução é registrada e o consumidor segue pro próximo
// pedido; um pedido ruim nunca para o scheduler.
func TestRunSurvivesPlaybackFailure(t *testing.T) {
	ledger := newTestLedger(t)
	player := &instantPlayer{
		played:  make(chan string, 8),
		failFor: map[string]error{"bad": errors.New("media source exploded")},
	}
	sched := NewScheduler(zap.NewNop(), ledger, player)

	errStage := make(chan string, 1)
	sched.OnError = func(stage string) { errStage <- stage }

	sched.Enqueue(Request{Query: "bad"})
	sched.Enqueue(Request{Query: "good"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	assert.Equal(t, "bad", recv(t, player.played))
	assert.Equal(t, "play", recv(t, errStage))
	assert.Equal(t, "good", recv(t, player.played))
}

func TestEnqueuePremiumChargesFee(t *testing.T) {
	ledger := newTestLedger(t, "rich")
	sched := NewScheduler(zap.NewNop(), ledger, &instantPlayer{played: make(chan string, 1)})

	req, err := sched.EnqueuePremium(Request{PlayerID: "rich", Query: "song"})
	require.NoError(t, err)
	assert.Equal(t, PriorityPremium, req.Priority)
	assert.NotEmpty(t, req.ID)

	bal, err := ledger.Balance("rich")
	require.NoError(t, err)
	assert.Equal(t, wallet.StartingBalance-PremiumCost, bal)
}

func TestEnqueuePremiumAdmissionDenied(t *testing.T) {
	tests := []struct {
		name    string
		player  string
		setup   func(t *testing.T, ledger *wallet.Ledger)
		wantErr error
	}{
		{
			name:    "no wallet",
			player:  "ghost",
			setup:   func(*testing.T, *wallet.Ledger) {},
			wantErr: wallet.ErrNoWallet,
		},
		{
			name:   "insufficient funds",
			player: "poor",
			setup: func(t *testing.T, ledger *wallet.Ledger) {
				require.NoError(t, ledger.OpenWallet("poor"))
				require.NoError(t, ledger.Withdraw("poor", wallet.StartingBalance-PremiumCost+1))
			},
			wantErr: wallet.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newTestLedger(t)
			tt.setup(t, ledger)
			sched := NewScheduler(zap.NewNop(), ledger, &instantPlayer{played: make(chan string, 1)})

			_, err := sched.EnqueuePremium(Request{PlayerID: tt.player, Query: "song"})
			assert.ErrorIs(t, err, ErrQueueAdmission)
			assert.ErrorIs(t, err, tt.wantErr)

			// admissão negada não enfileira nada
			assert.Zero(t, sched.queue.len())
		})
	}
}

func TestQueueUnboundedNonBlocking(t *testing.T) {
	ledger := newTestLedger(t)
	sched := NewScheduler(zap.NewNop(), ledger, &instantPlayer{played: make(chan string, 1)})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Enqueue(Request{Query: "q"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, sched.queue.len())
}
