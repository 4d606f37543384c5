package store

import (
	"sync"
	"testing"
)

// ResetForTest points the store at a fresh database under a temp home
// directory. For use from _test.go files only.
func ResetForTest(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dbOnce = sync.Once{}
	db = nil
}
