package userstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutDeleteEach(t *testing.T) {
	s := openMemory(t)

	require.NoError(t, s.Put("五一", 1000, "t"))
	require.NoError(t, s.Put("云计算", 0, ""))
	require.NoError(t, s.Delete("南京"))
	require.NoError(t, s.Put("五一", 2000, "t"))

	var got []Record
	require.NoError(t, s.Each(func(r Record) error {
		got = append(got, r)
		return nil
	}))
	require.Len(t, got, 3)

	byWord := make(map[string]Record)
	for _, r := range got {
		byWord[r.Word] = r
	}
	assert.Equal(t, 2000.0, byWord["五一"].Freq)
	assert.Equal(t, "t", byWord["五一"].Tag)
	assert.False(t, byWord["五一"].Deleted)
	assert.True(t, byWord["南京"].Deleted)
	assert.False(t, byWord["云计算"].UpdatedAt.IsZero())
}

func TestStore_Get(t *testing.T) {
	s := openMemory(t)
	require.NoError(t, s.Put("五一", 1000, "t"))

	rec, ok, err := s.Get("五一")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1000.0, rec.Freq)

	_, ok, err = s.Get("五二")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_EachStopsOnError(t *testing.T) {
	s := openMemory(t)
	require.NoError(t, s.Put("甲", 1, ""))
	require.NoError(t, s.Put("乙", 1, ""))

	stop := errors.New("stop")
	calls := 0
	err := s.Each(func(Record) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Put("五一", 1000, "t"))
	require.NoError(t, s.Close())

	s, err = Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()
	rec, ok, err := s.Get("五一")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t", rec.Tag)
}

func TestStore_Closed(t *testing.T) {
	s, err := Open("", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Put("五一", 1, ""), ErrClosed)
	assert.ErrorIs(t, s.Each(func(Record) error { return nil }), ErrClosed)
}
