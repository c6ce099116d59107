// Package backend selects and constructs a ledger backend from
// configuration.
package backend

import (
	"fmt"

	"ledgerbot/internal/ledger"
	"ledgerbot/internal/ledger/jsonfile"
	"ledgerbot/internal/ledger/sqlite"
)

// Type represents the kind of ledger backend.
type Type string

const (
	JSONBackend   Type = "json"
	SQLiteBackend Type = "sqlite"
)

func (t Type) String() string { return string(t) }

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case JSONBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// Stores bundles the constructed ledger ports with their cleanup.
type Stores struct {
	Users   ledger.UserStore
	Groups  ledger.GroupStore
	Cleanup func() error
}

// Config holds what each backend needs to start.
type Config struct {
	Type         Type
	DataDir      string
	SQLiteDBPath string
}

// Open constructs the configured backend. Both stores always come from
// the same backend instance so user and group data live together.
func Open(cfg Config) (*Stores, error) {
	switch cfg.Type {
	case JSONBackend:
		store, err := jsonfile.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open json backend: %w", err)
		}
		return &Stores{
			Users:   store,
			Groups:  store,
			Cleanup: func() error { return nil },
		}, nil
	case SQLiteBackend:
		repo, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return &Stores{
			Users:   repo,
			Groups:  repo,
			Cleanup: repo.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}
}
