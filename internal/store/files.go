package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// fileWriter 负责记录文件的原子写入与删除，并通过 entryLock 避免同一 key 并发落盘。
type fileWriter struct {
	dir string

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func newFileWriter(dir string) *fileWriter {
	return &fileWriter{
		dir:   dir,
		locks: make(map[string]*entryLock),
	}
}

// write 先写临时文件再 rename，失败时清理临时文件，保证目录中不会出现半截记录。
func (w *fileWriter) write(key string, data []byte) error {
	tempFile, err := os.CreateTemp(w.dir, ".record-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = tempFile.Write(data)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, w.path(key)); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}

func (w *fileWriter) remove(key string) error {
	if err := os.Remove(w.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (w *fileWriter) lock(key string) func() {
	w.mu.Lock()
	lock := w.locks[key]
	if lock == nil {
		lock = &entryLock{}
		w.locks[key] = lock
	}
	lock.refs++
	w.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		w.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(w.locks, key)
		}
		w.mu.Unlock()
	}
}

func (w *fileWriter) path(key string) string {
	return filepath.Join(w.dir, KeyToFile(key))
}
