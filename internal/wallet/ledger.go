package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/maxmindlin/chimp-bot/internal/wallet/store"
)

// Saldo inicial creditado ao abrir uma carteira.
const StartingBalance int64 = 500

var (
	ErrNoWallet          = errors.New("player has no wallet")
	ErrDuplicateWallet   = errors.New("player already has a wallet")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// Ledger mantém os saldos em memória e é dono exclusivo do Store.
// Um único mutex é o domínio de exclusão de toda mutação de saldo:
// checagem e débito são um passo só, e o snapshot do Persist nunca
// observa uma tabela no meio de uma mutação.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]int64
	store    store.Store
}

// Open carrega a tabela persistida e devolve o ledger pronto.
func Open(ctx context.Context, st store.Store) (*Ledger, error) {
	balances, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load balances: %w", err)
	}
	return &Ledger{balances: balances, store: st}, nil
}

// OpenWallet cria a carteira do jogador com o saldo inicial.
func (l *Ledger) OpenWallet(player string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.balances[player]; ok {
		return ErrDuplicateWallet
	}
	l.balances[player] = StartingBalance
	return nil
}

// Balance é leitura pura; carteira inexistente é ErrNoWallet
// (distinto de carteira com saldo zero).
func (l *Ledger) Balance(player string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.balances[player]
	if !ok {
		return 0, ErrNoWallet
	}
	return bal, nil
}

// Withdraw debita o valor se houver saldo. Rejeita em vez de truncar:
// o saldo nunca fica negativo e nunca há aplicação parcial.
func (l *Ledger) Withdraw(player string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.balances[player]
	if !ok {
		return ErrNoWallet
	}
	if bal < amount {
		return ErrInsufficientFunds
	}
	l.balances[player] = bal - amount
	return nil
}

// Deposit credita o valor. Zero é aceito (resultado possível de um payout).
func (l *Ledger) Deposit(player string, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.balances[player]
	if !ok {
		return ErrNoWallet
	}
	l.balances[player] = bal + amount
	return nil
}

// Persist reescreve a tabela completa no Store, segurando o mesmo mutex
// das mutações: o snapshot nunca apanha uma tabela no meio de uma escrita
// e dois Persist concorrentes não se intercalam nem saem de ordem.
// Falha de I/O volta ao chamador, já que indica divergência entre memória
// e disco.
func (l *Ledger) Persist(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make(map[string]int64, len(l.balances))
	for player, bal := range l.balances {
		snapshot[player] = bal
	}
	if err := l.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("persist balances: %w", err)
	}
	return nil
}
