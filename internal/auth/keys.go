package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrAlreadyBound 表示另一个请求抢先完成了绑定。
var ErrAlreadyBound = errors.New("identity already bound")

// DigestStore 持久化 identity -> Digest 的绑定。
type DigestStore interface {
	// Load 返回已存摘要；未绑定时 ok 为 false。
	Load(identity string) (digest Digest, ok bool, err error)
	// Bind 仅在未绑定时写入摘要，已绑定时返回 ErrAlreadyBound。
	Bind(identity string, digest Digest) error
	// Remove 删除绑定，不存在时视为成功。
	Remove(identity string) error
}

// FileDigestStore 在 KeysPath/<identity> 中保存摘要文本。
type FileDigestStore struct {
	dir string
}

// NewFileDigestStore 创建 keys 目录（如不存在）并返回文件实现。
func NewFileDigestStore(dir string) (*FileDigestStore, error) {
	if dir == "" {
		return nil, errors.New("keys path required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve keys path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("create keys path: %w", err)
	}
	return &FileDigestStore{dir: abs}, nil
}

func (s *FileDigestStore) Load(identity string) (Digest, bool, error) {
	data, err := os.ReadFile(s.path(identity))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return Digest(strings.TrimSpace(string(data))), true, nil
}

// Bind 先写临时文件，再用 link 原子地占位：目标已存在时 link 失败，
// 两个并发首写者最多只有一个成功。
func (s *FileDigestStore) Bind(identity string, digest Digest) error {
	tempFile, err := os.CreateTemp(s.dir, ".key-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	defer os.Remove(tempName)

	_, err = tempFile.WriteString(string(digest))
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	if err := os.Link(tempName, s.path(identity)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrAlreadyBound
		}
		return err
	}
	return nil
}

func (s *FileDigestStore) Remove(identity string) error {
	if err := os.Remove(s.path(identity)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileDigestStore) path(identity string) string {
	return filepath.Join(s.dir, identity)
}
