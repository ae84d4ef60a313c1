package storage

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_PutOpenDelete(t *testing.T) {
	s, err := NewFS(t.TempDir())
	require.NoError(t, err)

	key := NewKey(".PDF")
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	n, err := s.Put(key, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	rc, err := s.Open(key)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	require.NoError(t, s.Delete(key))
	require.NoError(t, s.Delete(key), "deleting twice is fine")
	_, err = s.Open(key)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFS_RejectsTraversal(t *testing.T) {
	s, err := NewFS(t.TempDir())
	require.NoError(t, err)
	for _, k := range []string{"", "../x", "a/b", ".hidden"} {
		_, err := s.Put(k, strings.NewReader("x"))
		assert.Error(t, err, k)
	}
}

func TestFS_CheckWritable(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir)
	require.NoError(t, err)
	assert.NoError(t, s.CheckWritable())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file is cleaned up")
}
