package router

import (
	"os"
	"sync"

	"github.com/gofiber/fiber/v3"
)

// Loader 产出静态内容。
type Loader func() ([]byte, error)

// FileLoader 每次调用都重新读取文件。
func FileLoader(path string) Loader {
	return func() ([]byte, error) {
		return os.ReadFile(path)
	}
}

// Memoize 缓存 load 的第一次成功结果，直到进程退出；失败结果不缓存。
func Memoize(load Loader) Loader {
	var (
		mu     sync.Mutex
		cached []byte
		done   bool
	)
	return func() ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return cached, nil
		}
		body, err := load()
		if err != nil {
			return nil, err
		}
		cached, done = body, true
		return cached, nil
	}
}

// Static 把 Loader 包装成 Handler。cache 为 false（开发模式）时每次请求都重新计算，
// 为 true（生产模式）时只计算一次。
func Static(load Loader, contentType string, cache bool) Handler {
	if cache {
		load = Memoize(load)
	}
	return func(c fiber.Ctx, _ []string) error {
		body, err := load()
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, contentType)
		return c.Status(fiber.StatusOK).Send(body)
	}
}
