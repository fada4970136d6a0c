package store

import "context"

// Store persiste a tabela completa de saldos (player -> saldo).
// Save reescreve a tabela inteira de forma atômica; chamadas concorrentes
// são serializadas pela implementação, nunca intercaladas.
type Store interface {
	Load(ctx context.Context) (map[string]int64, error)
	Save(ctx context.Context, balances map[string]int64) error
}
