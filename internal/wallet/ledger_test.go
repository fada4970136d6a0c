package wallet

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxmindlin/chimp-bot/internal/wallet/store"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "wallets.txt"))
	ledger, err := Open(context.Background(), st)
	require.NoError(t, err)
	return ledger
}

func TestOpenWallet(t *testing.T) {
	ledger := newTestLedger(t)

	require.NoError(t, ledger.OpenWallet("p1"))

	bal, err := ledger.Balance("p1")
	require.NoError(t, err)
	assert.Equal(t, StartingBalance, bal)

	assert.ErrorIs(t, ledger.OpenWallet("p1"), ErrDuplicateWallet)
}

func TestBalanceNoWallet(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.Balance("ghost")
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestWithdraw(t *testing.T) {
	tests := []struct {
		name    string
		player  string
		amount  int64
		wantErr error
		wantBal int64
	}{
		{name: "ok", player: "p1", amount: 200, wantBal: 300},
		{name: "exact balance", player: "p1", amount: 500, wantBal: 0},
		{name: "insufficient", player: "p1", amount: 501, wantErr: ErrInsufficientFunds, wantBal: 500},
		{name: "zero", player: "p1", amount: 0, wantErr: ErrInvalidAmount, wantBal: 500},
		{name: "negative", player: "p1", amount: -5, wantErr: ErrInvalidAmount, wantBal: 500},
		{name: "no wallet", player: "ghost", amount: 10, wantErr: ErrNoWallet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newTestLedger(t)
			require.NoError(t, ledger.OpenWallet("p1"))

			err := ledger.Withdraw(tt.player, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			if tt.player == "p1" {
				bal, err := ledger.Balance("p1")
				require.NoError(t, err)
				assert.Equal(t, tt.wantBal, bal)
			}
		})
	}
}

func TestDeposit(t *testing.T) {
	ledger := newTestLedger(t)
	require.NoError(t, ledger.OpenWallet("p1"))

	// zero é aceito: payouts podem ser zero
	require.NoError(t, ledger.Deposit("p1", 0))
	require.NoError(t, ledger.Deposit("p1", 250))
	assert.ErrorIs(t, ledger.Deposit("p1", -1), ErrInvalidAmount)
	assert.ErrorIs(t, ledger.Deposit("ghost", 10), ErrNoWallet)

	bal, err := ledger.Balance("p1")
	require.NoError(t, err)
	assert.Equal(t, StartingBalance+250, bal)
}

// O saldo é sempre a soma aritmética dos deltas aplicados e nunca fica
// negativo.
func TestBalanceMatchesAppliedDeltas(t *testing.T) {
	ledger := newTestLedger(t)
	require.NoError(t, ledger.OpenWallet("p1"))

	want := StartingBalance
	ops := []struct {
		withdraw bool
		amount   int64
	}{
		{withdraw: true, amount: 100},
		{withdraw: false, amount: 30},
		{withdraw: true, amount: 430},
		{withdraw: true, amount: 1}, // insuficiente, não aplica
		{withdraw: false, amount: 0},
	}
	for _, op := range ops {
		if op.withdraw {
			if err := ledger.Withdraw("p1", op.amount); err == nil {
				want -= op.amount
			}
		} else {
			if err := ledger.Deposit("p1", op.amount); err == nil {
				want += op.amount
			}
		}
	}

	bal, err := ledger.Balance("p1")
	require.NoError(t, err)
	assert.Equal(t, want, bal)
	assert.GreaterOrEqual(t, bal, int64(0))
}

// Dois saques concorrentes cuja soma excede o saldo: exatamente um passa.
// Checagem e débito são um passo atômico, não passos destravados.
func TestConcurrentWithdrawals(t *testing.T) {
	ledger := newTestLedger(t)
	require.NoError(t, ledger.OpenWallet("p1")) // 500

	const amount = 300
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ledger.Withdraw("p1", amount)
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, failed int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientFunds)
			failed++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	bal, err := ledger.Balance("p1")
	require.NoError(t, err)
	assert.Equal(t, StartingBalance-amount, bal)
}

func TestPersistRoundTrip(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "wallets.txt"))

	ledger, err := Open(context.Background(), st)
	require.NoError(t, err)
	require.NoError(t, ledger.OpenWallet("p1"))
	require.NoError(t, ledger.OpenWallet("p2"))
	require.NoError(t, ledger.Withdraw("p1", 120))
	require.NoError(t, ledger.Persist(context.Background()))

	reloaded, err := Open(context.Background(), st)
	require.NoError(t, err)

	bal, err := reloaded.Balance("p1")
	require.NoError(t, err)
	assert.Equal(t, StartingBalance-120, bal)

	bal, err = reloaded.Balance("p2")
	require.NoError(t, err)
	assert.Equal(t, StartingBalance, bal)
}
