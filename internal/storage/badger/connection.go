package badger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/auspex/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

const (
	// Value-log GC cadence. Badger never reclaims value-log space on its
	// own, and daily re-scrapes rewrite the same event records, so stale
	// versions accumulate without it.
	gcInterval     = 5 * time.Minute
	gcDiscardRatio = 0.5
)

// BadgerDB manages the Badger database connection
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config *common.BadgerConfig

	gcStop chan struct{}
	gcDone chan struct{}
}

// NewBadgerDB creates a new Badger database connection
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	// If reset_on_startup is enabled, delete the existing database
	if config.ResetOnStartup {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Debug().Str("path", config.Path).Msg("Deleting existing database (reset_on_startup=true)")
			if err := os.RemoveAll(config.Path); err != nil {
				logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to delete database directory")
			}
		}
	}

	// Ensure the directory exists
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Opening Badger database connection")

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // Disable default badger logger to use arbor

	store, err := badgerhold.Open(options)
	if err != nil {
		logger.Fatal().Err(err).Str("path", config.Path).Msg("BadgerDB: Failed to open database")
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Badger database initialized")

	b := &BadgerDB{
		store:  store,
		logger: logger,
		config: config,
		gcStop: make(chan struct{}),
		gcDone: make(chan struct{}),
	}
	b.startValueLogGC()

	return b, nil
}

// startValueLogGC runs value-log garbage collection on a timer until Close.
func (b *BadgerDB) startValueLogGC() {
	common.SafeGo(b.logger, "badger-value-log-gc", func() {
		defer close(b.gcDone)

		ticker := time.NewTicker(gcInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				b.runValueLogGC()
			case <-b.gcStop:
				return
			}
		}
	})
}

// runValueLogGC rewrites value-log files until Badger reports nothing left
// to reclaim in this pass.
func (b *BadgerDB) runValueLogGC() {
	for {
		err := b.store.Badger().RunValueLogGC(gcDiscardRatio)
		if err == badger.ErrNoRewrite {
			return
		}
		if err != nil {
			b.logger.Warn().Err(err).Msg("Value log GC pass failed")
			return
		}
		b.logger.Debug().Msg("Value log GC reclaimed space")
	}
}

// Store returns the underlying badgerhold store
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// Close stops value-log GC and closes the database connection
func (b *BadgerDB) Close() error {
	if b.gcStop != nil {
		close(b.gcStop)
		<-b.gcDone
	}
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
