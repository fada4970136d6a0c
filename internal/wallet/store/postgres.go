package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore guarda os saldos na tabela chimp_wallets.
// Esperado: chimp_wallets(player_id text primary key, balance bigint not null)
type PostgresStore struct{ db *sql.DB }

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Load(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player_id, balance FROM chimp_wallets`)
	if err != nil {
		return nil, fmt.Errorf("select wallets: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var player string
		var bal int64
		if err := rows.Scan(&player, &bal); err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		out[player] = bal
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return out, nil
}

// Save reescreve a tabela inteira numa transação, espelhando a semântica
// do arquivo plano (snapshot completo, nunca parcial).
func (s *PostgresStore) Save(ctx context.Context, balances map[string]int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin wallet snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chimp_wallets`); err != nil {
		return fmt.Errorf("clear wallet snapshot: %w", err)
	}

	for player, bal := range balances {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chimp_wallets(player_id, balance) VALUES($1,$2)`,
			player, bal); err != nil {
			return fmt.Errorf("insert wallet %s: %w", player, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit wallet snapshot: %w", err)
	}
	return nil
}
