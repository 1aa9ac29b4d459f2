package dictionary

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

const snapshotVersion = 1

type snapshot struct {
	Version         int     `msgpack:"v"`
	FloorFreq       float64 `msgpack:"floor"`
	DefaultUserFreq float64 `msgpack:"user_freq"`
	Main            []Entry `msgpack:"main"`
	User            []Entry `msgpack:"user"`
}

// WriteSnapshot encodes both dictionary layers as msgpack.
func (d *Store) WriteSnapshot(w io.Writer) error {
	d.mu.RLock()
	snap := snapshot{
		Version:         snapshotVersion,
		FloorFreq:       d.floorFreq,
		DefaultUserFreq: d.defaultUserFreq,
		Main:            sortedEntries(d.main),
		User:            sortedEntries(d.user),
	}
	d.mu.RUnlock()

	if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("write dictionary snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot rebuilds a store written by WriteSnapshot. Options override
// the values recorded in the snapshot.
func ReadSnapshot(r io.Reader, opts ...Option) (*Store, error) {
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, &LoadError{Source: "snapshot", Err: err}
	}
	if snap.Version != snapshotVersion {
		return nil, &LoadError{Source: "snapshot", Err: fmt.Errorf("unsupported version %d", snap.Version)}
	}

	d := New(WithFloorFreq(snap.FloorFreq))
	for i, e := range snap.Main {
		if e.Word == "" || e.Freq <= 0 {
			return nil, &LoadError{Source: "snapshot", Line: i + 1, Err: fmt.Errorf("invalid main entry %q", e.Word)}
		}
		d.addMain(e)
	}
	d.defaultUserFreq = snap.DefaultUserFreq
	if d.defaultUserFreq <= 0 {
		d.defaultUserFreq = d.medianFreq()
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, e := range snap.User {
		if e.Word == "" || e.Freq <= 0 {
			continue
		}
		d.setUser(e)
	}
	return d, nil
}
