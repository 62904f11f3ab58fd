package history

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Backend names accepted by NewStore and the store.backend config key.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// NewStore returns an uninitialized run history store; call Init before use.
// An empty backend selects memory. Names are case-insensitive.
func NewStore(backend, sqlitePath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		if sqlitePath == "" {
			return nil, errors.New("sqlite history backend needs a database path")
		}
		return NewSQLiteStore(sqlitePath), nil
	}
	return nil, fmt.Errorf("unknown history backend %q (want %s or %s)", backend, BackendMemory, BackendSQLite)
}

// CloseIfSupported releases stores holding resources, such as the sqlite
// connection pool. A nil or memory store is a no-op.
func CloseIfSupported(store Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
