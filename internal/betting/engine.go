package betting

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/maxmindlin/chimp-bot/internal/wallet"
)

var (
	ErrRoomAlreadyOpen = errors.New("a betting room is already open in this channel")
	ErrNoActiveRoom    = errors.New("no betting room is open in this channel")
	ErrNotRoomOwner    = errors.New("only the room creator can declare a winner")
	ErrUnknownOutcome  = errors.New("bet must be an outcome or an index of an outcome")
	ErrDuplicateBettor = errors.New("player has already placed a bet")
)

// Bet é imutável depois de aceita; o valor já saiu da carteira.
type Bet struct {
	RoomID  string
	Player  string
	Outcome string
	Amount  int64
}

// Room é uma sala de aposta aberta, com exatamente dois desfechos.
type Room struct {
	ID       string
	Channel  string
	Title    string
	Outcomes [2]string
	Creator  string

	mu       sync.Mutex
	bets     []Bet
	resolved bool
}

type Payout struct {
	Player string
	Amount int64
}

// Settlement é o resultado de uma sala resolvida, pronto pra renderização.
type Settlement struct {
	RoomID  string
	Channel string
	Outcome string
	Winners []Payout
}

// Engine mantém no máximo uma sala aberta por canal e empresta o ledger
// pra toda movimentação de dinheiro (nunca guarda referência além de uma
// operação).
type Engine struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	ledger *wallet.Ledger

	// Callbacks de métricas, ligados no main (counter++)
	OnPlaced  func(Bet)
	OnSettled func(Settlement)
}

func NewEngine(ledger *wallet.Ledger) *Engine {
	return &Engine{rooms: make(map[string]*Room), ledger: ledger}
}

// OpenRoom abre uma sala no canal, se nenhuma estiver aberta.
func (e *Engine) OpenRoom(channel, creator, title string, outcomes [2]string) (*Room, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.rooms[channel]; ok {
		return nil, ErrRoomAlreadyOpen
	}
	room := &Room{
		ID:       uuid.New().String(),
		Channel:  channel,
		Title:    title,
		Outcomes: outcomes,
		Creator:  creator,
	}
	e.rooms[channel] = room
	return room, nil
}

// Status devolve título e desfechos da sala aberta no canal.
func (e *Engine) Status(channel string) (title string, outcomes [2]string, err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	room, ok := e.rooms[channel]
	if !ok {
		return "", [2]string{}, ErrNoActiveRoom
	}
	return room.Title, room.Outcomes, nil
}

// PlaceBet valida tudo que não move dinheiro, saca a aposta da carteira e
// só então grava o Bet na sala. Se a gravação falhar depois do saque
// (ex.: apostador duplicado detectado numa corrida), o valor é estornado
// antes do erro subir: a engine nunca destrói valor.
func (e *Engine) PlaceBet(channel, player, selector string, amount int64) (Bet, error) {
	if amount <= 0 {
		return Bet{}, wallet.ErrInvalidAmount
	}

	e.mu.RLock()
	room, ok := e.rooms[channel]
	e.mu.RUnlock()
	if !ok {
		return Bet{}, ErrNoActiveRoom
	}

	outcome, err := room.resolveOutcome(selector)
	if err != nil {
		return Bet{}, err
	}

	if err := e.ledger.Withdraw(player, amount); err != nil {
		return Bet{}, err
	}

	bet := Bet{RoomID: room.ID, Player: player, Outcome: outcome, Amount: amount}
	if err := room.commit(bet); err != nil {
		// estorno compensatório do saque já aplicado
		if depErr := e.ledger.Deposit(player, amount); depErr != nil {
			return Bet{}, fmt.Errorf("refund stake after failed commit: %w", depErr)
		}
		return Bet{}, err
	}
	if e.OnPlaced != nil {
		e.OnPlaced(bet)
	}
	return bet, nil
}

// Resolve fecha a sala (transição terminal) e paga os vencedores.
// O requisitante precisa ser o criador; em caso de erro a sala fica
// aberta e intacta.
func (e *Engine) Resolve(channel, requester, selector string) (Settlement, error) {
	e.mu.Lock()
	room, ok := e.rooms[channel]
	if !ok {
		e.mu.Unlock()
		return Settlement{}, ErrNoActiveRoom
	}
	if room.Creator != requester {
		e.mu.Unlock()
		return Settlement{}, ErrNotRoomOwner
	}
	outcome, err := room.resolveOutcome(selector)
	if err != nil {
		e.mu.Unlock()
		return Settlement{}, err
	}
	delete(e.rooms, channel)
	e.mu.Unlock()

	settlement := room.settle(outcome)

	var depErr error
	for _, w := range settlement.Winners {
		// apostadores sempre têm carteira (o saque aconteceu na aposta);
		// ainda assim, um erro aqui não pode pular os demais pagamentos
		if err := e.ledger.Deposit(w.Player, w.Amount); err != nil && depErr == nil {
			depErr = fmt.Errorf("pay winner %s: %w", w.Player, err)
		}
	}
	if e.OnSettled != nil {
		e.OnSettled(settlement)
	}
	return settlement, depErr
}

// resolveOutcome aceita o rótulo literal ou um ordinal 1-based.
func (r *Room) resolveOutcome(selector string) (string, error) {
	for _, o := range r.Outcomes {
		if selector == o {
			return o, nil
		}
	}
	idx, err := strconv.Atoi(selector)
	if err != nil || idx < 1 || idx > len(r.Outcomes) {
		return "", ErrUnknownOutcome
	}
	// humanos não contam do zero
	return r.Outcomes[idx-1], nil
}

// commit grava a aposta; a checagem de duplicata e o append são um passo
// só sob o mutex da sala. A checagem acontece aqui, depois do saque, pra
// que dois commits concorrentes do mesmo jogador nunca passem os dois.
func (r *Room) commit(bet Bet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved {
		return ErrNoActiveRoom
	}
	for _, b := range r.bets {
		if b.Player == bet.Player {
			return ErrDuplicateBettor
		}
	}
	r.bets = append(r.bets, bet)
	return nil
}

// settle marca a sala como resolvida e calcula os pagamentos:
//
//	ratio  = total == 0 ? 1 : 1 - vencedores/total
//	payout = round(stake + stake*ratio)
//
// É um bônus fixo escalado pela raridade do palpite certo, não uma
// redistribuição pari-mutuel; perdedores não recebem nada.
func (r *Room) settle(outcome string) Settlement {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resolved = true

	total := len(r.bets)
	winners := 0
	for _, b := range r.bets {
		if b.Outcome == outcome {
			winners++
		}
	}

	ratio := 1.0
	if total > 0 {
		ratio = 1.0 - float64(winners)/float64(total)
	}

	st := Settlement{RoomID: r.ID, Channel: r.Channel, Outcome: outcome}
	for _, b := range r.bets {
		if b.Outcome != outcome {
			continue
		}
		payout := int64(math.Round(float64(b.Amount) + float64(b.Amount)*ratio))
		st.Winners = append(st.Winners, Payout{Player: b.Player, Amount: payout})
	}
	return st
}
