// Package testutil provides shared test scaffolding: a throwaway store
// opened against a temp file, and a handful of assertion helpers in the
// style the rest of the test suite already uses.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exocortex-go/exocortex/internal/store"
)

// NewTestStore opens a store.Store at a fresh temp-dir path and registers
// its Close with t.Cleanup. Callers get a ready-to-use, schema-initialized
// store without repeating the open/migrate/close dance in every test.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(path, store.DefaultOptions())
	require.NoError(t, err, "open test store")
	t.Cleanup(func() {
		assert.NoError(t, st.Close(), "close test store")
	})
	return st
}

// TempFile creates a temporary file with the given content for testing.
func TempFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644), "create temp file")
	return path
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	require.NoError(t, err)
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
}

// AssertEqual fails the test if got != want.
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	assert.Equal(t, want, got)
}

// AssertStringContains fails the test if str doesn't contain substr.
func AssertStringContains(t *testing.T, str, substr string) {
	t.Helper()
	assert.Contains(t, str, substr)
}
