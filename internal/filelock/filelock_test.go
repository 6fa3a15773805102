package filelock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "test.lock"))
	require.NoError(t, lock.Lock())
	require.NoError(t, lock.Unlock())
}

func TestWithLockSerializesCallers(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sitecheck.db")
	counterPath := filepath.Join(dir, "counter.txt")
	require.NoError(t, os.WriteFile(counterPath, []byte("0"), 0644))

	const goroutines = 5
	const iterations = 10

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				err := WithLock(target, func() error {
					data, err := os.ReadFile(counterPath)
					if err != nil {
						return err
					}
					n, err := strconv.Atoi(string(data))
					if err != nil {
						return err
					}
					return os.WriteFile(counterPath, []byte(strconv.Itoa(n+1)), 0644)
				})
				if err != nil {
					t.Errorf("WithLock: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(counterPath)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(goroutines*iterations), string(data))
}

func TestWithLockReturnsCallbackError(t *testing.T) {
	boom := errors.New("boom")
	err := WithLock(filepath.Join(t.TempDir(), "nested", "target"), func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestAtomicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "views.json")

	require.NoError(t, AtomicWrite(path, []byte("first")))
	require.NoError(t, AtomicWrite(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "temp file left behind")
	}
}

func TestAtomicWriteUnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := AtomicWrite(filepath.Join(blocker, "child.json"), []byte("{}"))
	assert.Error(t, err)
}

func TestConcurrentLockAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := LockAndWrite(path, []byte(fmt.Sprintf("writer-%02d", n))); err != nil {
				t.Errorf("LockAndWrite: %v", err)
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `^writer-\d\d$`, string(data))
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "views.json")
	in := map[string]any{"propertyId": "prop-1", "scores": []int{62, 47}}

	require.NoError(t, WriteJSON(path, in))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "prop-1", out["propertyId"])
	assert.Equal(t, byte('\n'), data[len(data)-1])

	assert.Error(t, WriteJSON(path, map[string]any{"bad": make(chan int)}))
}
