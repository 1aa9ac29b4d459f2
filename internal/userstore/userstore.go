// Package userstore persists runtime user-word edits in badger so that a
// restarted server replays them over its dictionary files.
package userstore

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const prefixWord = "w/"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("user store closed")

// Record is the last edit made to a word. A deleted record hides the word
// even when a dictionary file still lists it.
type Record struct {
	Word      string    `msgpack:"w"`
	Freq      float64   `msgpack:"f"`
	Tag       string    `msgpack:"t,omitempty"`
	Deleted   bool      `msgpack:"d,omitempty"`
	UpdatedAt time.Time `msgpack:"u"`
}

// Store wraps a badger database.
type Store struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens the store in dir. An empty dir keeps everything in memory.
func Open(dir string, logger *log.Logger) (*Store, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithSyncWrites(true)
	if logger != nil {
		opts = opts.WithLogger(badgerLogger{logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open user store: %w", err)
	}
	return &Store{db: db}, nil
}

func key(word string) []byte {
	return []byte(prefixWord + word)
}

// Put records an inserted user word.
func (s *Store) Put(word string, freq float64, tag string) error {
	return s.write(Record{Word: word, Freq: freq, Tag: tag, UpdatedAt: time.Now()})
}

// Delete records a removed user word.
func (s *Store) Delete(word string) error {
	return s.write(Record{Word: word, Deleted: true, UpdatedAt: time.Now()})
}

func (s *Store) write(rec Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(rec.Word), data)
	}); err != nil {
		return fmt.Errorf("failed to write %q: %w", rec.Word, err)
	}
	return nil
}

// Get returns the record of word.
func (s *Store) Get(word string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, false, ErrClosed
	}
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(word))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Each calls fn for every record in key order. Iteration stops at the
// first error fn returns.
func (s *Store) Each(fn func(Record) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixWord)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("failed to decode %q: %w", it.Item().Key(), err)
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// badgerLogger routes badger's logging through charm log.
type badgerLogger struct {
	l *log.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Errorf(format, args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warnf(format, args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debugf(format, args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debugf(format, args...)
}
