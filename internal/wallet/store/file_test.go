package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.txt")
	st := NewFileStore(path)

	balances := map[string]int64{
		"p1": 500,
		"p2": 0,
		"p3": 123456,
	}
	require.NoError(t, st.Save(context.Background(), balances))

	loaded, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, balances, loaded)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	st := NewFileStore(filepath.Join(t.TempDir(), "nope.txt"))

	loaded, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestFileStoreMalformedLine(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no separator", content: "p1 500\n"},
		{name: "empty player", content: "=500\n"},
		{name: "non integer balance", content: "p1=lots\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "wallets.txt")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := NewFileStore(path).Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestFileStoreWireFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.txt")
	st := NewFileStore(path)

	require.NoError(t, st.Save(context.Background(), map[string]int64{"a": 1, "b": 2}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a=1\nb=2\n", string(raw))
}

func TestFileStoreConcurrentSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.txt")
	st := NewFileStore(path)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Save(context.Background(), map[string]int64{"p1": 500, "p2": 700})
		}()
	}
	wg.Wait()

	// saves serializados: o leitor sempre vê uma tabela completa
	loaded, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"p1": 500, "p2": 700}, loaded)
}
