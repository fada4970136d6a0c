package playback

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maxmindlin/chimp-bot/internal/wallet"
)

// Custo em moedas de um pedido premium.
const PremiumCost int64 = 20

var ErrQueueAdmission = errors.New("premium admission denied")

// Player é o colaborador externo de reprodução. Play bloqueia até a faixa
// terminar naturalmente ou o contexto ser cancelado: conclusão e parada
// compartilham um único caminho de sinalização.
type Player interface {
	Play(ctx context.Context, req Request) error
}

// Scheduler serializa um recurso de consumidor único (uma reprodução ativa
// por vez) atrás de uma fila de prioridade com cancelamento preguiçoso por
// chave. Dono exclusivo da fila e do slot ativo; só toca no ledger pra
// cobrar a admissão premium.
type Scheduler struct {
	log    *zap.Logger
	ledger *wallet.Ledger
	player Player
	queue  *queue

	skipMu sync.Mutex
	skips  map[string]struct{}

	activeMu     sync.Mutex
	active       *Request
	cancelActive context.CancelFunc

	// Callbacks de métricas, ligados no main (counter++/gauge)
	OnStart   func(Request)
	OnSkipped func(Request)
	OnError   func(stage string)
	OnDepth   func(pending int)
}

func NewScheduler(log *zap.Logger, ledger *wallet.Ledger, player Player) *Scheduler {
	return &Scheduler{
		log:    log,
		ledger: ledger,
		player: player,
		queue:  newQueue(),
		skips:  make(map[string]struct{}),
	}
}

// Enqueue aceita um pedido comum. A fila é ilimitada e nunca bloqueia.
func (s *Scheduler) Enqueue(req Request) Request {
	req.Priority = PriorityStandard
	return s.admit(req)
}

// EnqueuePremium cobra a taxa antes de aceitar o pedido. Se o saque falhar
// nada entra na fila e o erro tipado da carteira segue junto pro chamador.
func (s *Scheduler) EnqueuePremium(req Request) (Request, error) {
	if err := s.ledger.Withdraw(req.PlayerID, PremiumCost); err != nil {
		return Request{}, errors.Join(ErrQueueAdmission, err)
	}
	req.Priority = PriorityPremium
	return s.admit(req), nil
}

func (s *Scheduler) admit(req Request) Request {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	s.queue.push(req)
	if s.OnDepth != nil {
		s.OnDepth(s.queue.len())
	}
	return req
}

// Skip marca a chave pra cancelamento preguiçoso: o pedido pendente não sai
// da fila agora; ele é descartado em silêncio quando o consumidor chegar
// nele. Primeira ocorrência apenas, se houver chaves duplicadas.
func (s *Scheduler) Skip(key string) {
	s.skipMu.Lock()
	s.skips[key] = struct{}{}
	s.skipMu.Unlock()
}

// CancelActive pede a parada da reprodução atual; no-op se nada toca.
// A latência real depende do player responder ao cancelamento do contexto.
func (s *Scheduler) CancelActive() {
	s.activeMu.Lock()
	cancel := s.cancelActive
	s.activeMu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// NowPlaying devolve o pedido ativo, se houver.
func (s *Scheduler) NowPlaying() (Request, bool) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()

	if s.active == nil {
		return Request{}, false
	}
	return *s.active, true
}

// Run é o único consumidor; roda pela vida do processo. Um pedido ruim é
// registrado e o loop segue pro próximo, nunca encerra o scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		req, err := s.queue.pop(ctx)
		if err != nil {
			return err
		}
		if s.OnDepth != nil {
			s.OnDepth(s.queue.len())
		}

		if s.consumeSkip(req.Query) {
			s.log.Info("discarding skipped request", zap.String("query", req.Query))
			if s.OnSkipped != nil {
				s.OnSkipped(req)
			}
			continue
		}

		playCtx, cancel := context.WithCancel(ctx)
		s.setActive(req, cancel)

		s.log.Info("now playing", zap.String("query", req.Query), zap.String("channel", req.ChannelID))
		if s.OnStart != nil {
			s.OnStart(req)
		}

		err = s.player.Play(playCtx, req)
		s.clearActive()
		cancel()

		if err != nil && !errors.Is(err, context.Canceled) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("playback failed", zap.String("query", req.Query), zap.Error(err))
			if s.OnError != nil {
				s.OnError("play")
			}
		}
	}
}

func (s *Scheduler) consumeSkip(key string) bool {
	s.skipMu.Lock()
	defer s.skipMu.Unlock()

	if _, ok := s.skips[key]; !ok {
		return false
	}
	delete(s.skips, key)
	return true
}

func (s *Scheduler) setActive(req Request, cancel context.CancelFunc) {
	s.activeMu.Lock()
	s.active = &req
	s.cancelActive = cancel
	s.activeMu.Unlock()
}

func (s *Scheduler) clearActive() {
	s.activeMu.Lock()
	s.active = nil
	s.cancelActive = nil
	s.activeMu.Unlock()
}
