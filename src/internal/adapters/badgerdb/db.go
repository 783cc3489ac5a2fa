// Package badgerdb stores user documents and accounts in an embedded
// Badger database.
package badgerdb

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
)

// Open opens (or creates) the database directory at path. An empty path
// opens an in-memory database.
func Open(path string, logger *log.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Durable writes; documents are small
	opts.CompactL0OnClose = true // Faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	if logger != nil {
		logger.Debug("badger database opened", "path", path)
	}
	return db, nil
}
