// Package jsonfile implements the ledger stores on top of two JSON
// files, preserving the historical on-disk format: user ledgers are a
// mapping from stringified user id to {"data": ["DD-Mon-YYYY,Category,Amount", ...]},
// groups a mapping from name to {"size", "total_spent", "expenses"}.
//
// Every write loads the full structure, mutates it in memory and writes
// it back; the store mutex serializes these read-modify-write cycles so
// concurrent writers to the same key cannot lose updates.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	usersFile  = "users.json"
	groupsFile = "groups.json"
)

// Store implements ledger.UserStore and ledger.GroupStore over a data
// directory. It is the single writer of its backing files.
type Store struct {
	mu  sync.Mutex
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// load decodes the named file into out. A missing file is an empty
// structure, not an error: ledgers are created on first write.
func (s *Store) load(name string, out any) error {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// save writes the full structure back via a temp file and rename, so a
// crash mid-write leaves either the old or the new content.
func (s *Store) save(name string, in any) error {
	raw, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
