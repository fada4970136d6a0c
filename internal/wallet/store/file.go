package store

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FileStore guarda os saldos num arquivo plano, uma linha `player=saldo`
// por carteira. É o backend padrão e o formato original do bot.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

// Load lê o arquivo inteiro. Arquivo inexistente significa tabela vazia;
// linha malformada é erro fatal para esta instância do store.
func (s *FileStore) Load(ctx context.Context) (map[string]int64, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return map[string]int64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open wallet file: %w", err)
	}
	defer f.Close()

	out := make(map[string]int64)
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if text == "" {
			continue
		}
		player, balStr, ok := strings.Cut(text, "=")
		if !ok || player == "" {
			return nil, fmt.Errorf("wallet file %s: malformed line %d", s.path, line)
		}
		bal, err := strconv.ParseInt(balStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("wallet file %s: malformed line %d: %w", s.path, line, err)
		}
		out[player] = bal
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read wallet file: %w", err)
	}
	return out, nil
}

// Save reescreve o arquivo inteiro. Escreve num temporário e renomeia por
// cima, para que um leitor nunca observe uma tabela parcial.
func (s *FileStore) Save(ctx context.Context, balances map[string]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make([]string, 0, len(balances))
	for p := range balances {
		players = append(players, p)
	}
	sort.Strings(players)

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".wallets-*")
	if err != nil {
		return fmt.Errorf("create temp wallet file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, p := range players {
		if _, err := fmt.Fprintf(w, "%s=%d\n", p, balances[p]); err != nil {
			tmp.Close()
			return fmt.Errorf("write wallet file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush wallet file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync wallet file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close wallet file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace wallet file: %w", err)
	}
	return nil
}
