package vfs

import (
	"bytes"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/typworld/errors"
	"github.com/wippyai/typworld/internal/logging"
	"github.com/wippyai/typworld/typeset"
)

// Store is a concurrency-safe mapping from file id to entry.
type Store struct {
	files    map[typeset.FileID]Entry
	mu       sync.Mutex
	poisoned bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{files: make(map[typeset.FileID]Entry)}
}

// with runs fn under the store lock. A panic inside fn poisons the store
// before it propagates.
func (s *Store) with(fn func(files map[typeset.FileID]Entry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return errors.AccessDenied(errors.PhaseStore, "store is poisoned or closed")
	}

	ok := false
	defer func() {
		if !ok {
			s.poisoned = true
		}
	}()
	err := fn(s.files)
	ok = true
	return err
}

// InsertText stores text under the id derived from name, replacing any
// previous entry.
func (s *Store) InsertText(name, text string) error {
	id, err := entryID(name)
	if err != nil {
		return err
	}
	err = s.with(func(files map[typeset.FileID]Entry) error {
		files[id] = Text{Source: typeset.NewSource(id, text)}
		return nil
	})
	if err == nil {
		logging.Named("vfs").Debug("insert text", zap.String("path", id.Path()), zap.Int("size", len(text)))
	}
	return err
}

// InsertBinary stores a private copy of data under the id derived from name,
// replacing any previous entry.
func (s *Store) InsertBinary(name string, data []byte) error {
	id, err := entryID(name)
	if err != nil {
		return err
	}
	owned := bytes.Clone(data)
	if owned == nil {
		owned = []byte{}
	}
	err = s.with(func(files map[typeset.FileID]Entry) error {
		files[id] = Binary{Data: owned}
		return nil
	})
	if err == nil {
		logging.Named("vfs").Debug("insert binary", zap.String("path", id.Path()), zap.Int("size", len(owned)))
	}
	return err
}

// entryID derives the id for a stored entry. Names that clean to the root
// directory cannot hold content.
func entryID(name string) (typeset.FileID, error) {
	id := typeset.NewFileID(name)
	if id.Path() == "/" {
		return typeset.FileID{}, errors.InvalidInput(errors.PhaseStore, fmt.Sprintf("name %q does not name a file", name))
	}
	return id, nil
}

// Remove deletes the entry for name. Removing an absent name is a no-op.
func (s *Store) Remove(name string) error {
	id := typeset.NewFileID(name)
	return s.with(func(files map[typeset.FileID]Entry) error {
		if _, ok := files[id]; ok {
			delete(files, id)
			logging.Named("vfs").Debug("remove", zap.String("path", id.Path()))
		}
		return nil
	})
}

// List returns the stored ids in no particular order.
func (s *Store) List() ([]typeset.FileID, error) {
	var ids []typeset.FileID
	err := s.with(func(files map[typeset.FileID]Entry) error {
		ids = make([]typeset.FileID, 0, len(files))
		for id := range files {
			ids = append(ids, id)
		}
		return nil
	})
	return ids, err
}

// Paths returns the stored paths without their leading slash, in no
// particular order.
func (s *Store) Paths() ([]string, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(ids))
	for i, id := range ids {
		paths[i] = id.Rootless()
	}
	return paths, nil
}

// Len returns the number of stored entries, or 0 for a poisoned store.
func (s *Store) Len() int {
	n := 0
	_ = s.with(func(files map[typeset.FileID]Entry) error {
		n = len(files)
		return nil
	})
	return n
}

// Lookup returns the entry stored for id.
func (s *Store) Lookup(id typeset.FileID) (Entry, error) {
	var entry Entry
	err := s.with(func(files map[typeset.FileID]Entry) error {
		e, ok := files[id]
		if !ok {
			return errors.NotFound(errors.PhaseStore, id.Rootless())
		}
		entry = e
		return nil
	})
	return entry, err
}

// Source returns the source snapshot stored for id. Binary entries fail with
// KindNotSource, absent ones with KindNotFound.
func (s *Store) Source(id typeset.FileID) (typeset.Source, error) {
	var src typeset.Source
	err := s.with(func(files map[typeset.FileID]Entry) error {
		switch e := files[id].(type) {
		case Text:
			src = e.Source
			return nil
		case Binary:
			return errors.NotSource(errors.PhaseStore, id.Rootless())
		default:
			return errors.NotFound(errors.PhaseStore, id.Rootless())
		}
	})
	return src, err
}

// Bytes returns a copy of the content stored for id. Text entries are
// encoded as UTF-8 on demand.
func (s *Store) Bytes(id typeset.FileID) ([]byte, error) {
	var data []byte
	err := s.with(func(files map[typeset.FileID]Entry) error {
		switch e := files[id].(type) {
		case Text:
			data = []byte(e.Source.Text())
			return nil
		case Binary:
			data = bytes.Clone(e.Data)
			if data == nil {
				data = []byte{}
			}
			return nil
		default:
			return errors.NotFound(errors.PhaseStore, id.Rootless())
		}
	})
	return data, err
}

// Stat describes the entry stored for id.
func (s *Store) Stat(id typeset.FileID) (Info, error) {
	var info Info
	err := s.with(func(files map[typeset.FileID]Entry) error {
		e, ok := files[id]
		if !ok {
			return errors.NotFound(errors.PhaseStore, id.Rootless())
		}
		info = infoOf(id, e)
		return nil
	})
	return info, err
}

// Close poisons the store and releases its entries.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poisoned = true
	s.files = nil
}
