// Package storage provides the on-device key-value stores: a general store for
// history, profile and flags, and a sensitive store that is only ever used
// through SecureStore.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/pkg/filesystem"
	"github.com/doeshing/medetech-go/internal/ports"
)

const sensitiveBucket = "secure"

// Stores groups the opened backends.
type Stores struct {
	General   ports.KeyValueStore
	Sensitive ports.KeyValueStore
	Backend   string
	Location  string
	closer    func() error
}

// Close releases the backing database, if any.
func (s *Stores) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer()
}

// Open builds the stores described by settings. When the SQLite database
// cannot be opened it falls back to JSON files next to it.
func Open(settings domain.StorageSettings, log ports.Logger) (*Stores, error) {
	path := filesystem.ExpandPath(settings.Path)
	if path == "" {
		path = filepath.Join(filesystem.AppDir(), "medetech.db")
	}

	if !strings.EqualFold(settings.Backend, domain.StorageBackendFile) {
		db, err := OpenSQLite(path)
		if err == nil {
			return &Stores{
				General:   db,
				Sensitive: db.Bucket(sensitiveBucket),
				Backend:   domain.StorageBackendSQLite,
				Location:  path,
				closer:    db.Close,
			}, nil
		}
		if log != nil {
			log.Warn("sqlite unavailable, falling back to file storage", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}

	dir := filepath.Dir(path)
	return &Stores{
		General:   NewFileStore(filepath.Join(dir, "store.json")),
		Sensitive: NewFileStore(filepath.Join(dir, "secure.json")),
		Backend:   domain.StorageBackendFile,
		Location:  dir,
	}, nil
}
