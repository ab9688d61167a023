package routes

import (
	"path/filepath"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/sirupsen/logrus"

	"github.com/participant-hub/participant-hub/internal/auth"
	"github.com/participant-hub/participant-hub/internal/logging"
	"github.com/participant-hub/participant-hub/internal/metrics"
	"github.com/participant-hub/participant-hub/internal/router"
	"github.com/participant-hub/participant-hub/internal/server"
	"github.com/participant-hub/participant-hub/internal/store"
)

// participantPattern 限定 key 为单个 [a-z0-9-]+ 路径段，不符合时路由不命中，落到全局 404。
const participantPattern = `^/participants/([a-z0-9-]+)$`

// Options 汇总路由所需的依赖。
type Options struct {
	Store   *store.Store
	Binder  *auth.Binder
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
	// StaticPath 为 index.html/favicon.svg/robots.txt 所在目录。
	StaticPath string
	// CacheStatic 为 true（生产模式）时静态内容只读取一次。
	CacheStatic bool
}

// Register 按固定顺序注册全部路由；顺序即匹配优先级。
func Register(table *router.Table, opts Options) {
	if opts.Logger == nil {
		opts.Logger = logging.NewDiscardLogger()
	}

	if opts.Metrics != nil {
		metricsHandler := adaptor.HTTPHandler(opts.Metrics.Handler())
		table.Get(router.Exact("/-/metrics"), func(c fiber.Ctx, _ []string) error {
			return metricsHandler(c)
		})
	}

	if opts.StaticPath != "" {
		registerStatic(table, opts.StaticPath, opts.CacheStatic)
	}

	h := &participantHandlers{store: opts.Store, binder: opts.Binder, logger: opts.Logger}
	table.Get(router.Exact("/participants"), h.list)
	table.Get(router.Pattern(participantPattern), h.show)
	table.Post(router.Pattern(participantPattern), h.save)
	table.Delete(router.Pattern(participantPattern), h.remove)
}

func registerStatic(table *router.Table, dir string, cache bool) {
	assets := []struct {
		path        string
		file        string
		contentType string
	}{
		{"/", "index.html", "text/html"},
		{"/favicon.ico", "favicon.svg", "image/svg+xml"},
		{"/robots.txt", "robots.txt", "text/plain"},
	}
	for _, asset := range assets {
		loader := router.FileLoader(filepath.Join(dir, asset.file))
		table.Get(router.Exact(asset.path), router.Static(loader, asset.contentType, cache))
	}
}

type participantHandlers struct {
	store  *store.Store
	binder *auth.Binder
	logger *logrus.Logger
}

func (h *participantHandlers) list(c fiber.Ctx, _ []string) error {
	return c.Status(fiber.StatusOK).JSON(h.store.All())
}

func (h *participantHandlers) show(c fiber.Ctx, params []string) error {
	record, ok := h.store.Get(params[0])
	if !ok {
		return server.ErrNotFound
	}
	return c.Status(fiber.StatusOK).JSON(record)
}

// save 先校验凭证再解析请求体，和 DELETE 一样不向未授权方暴露记录是否存在。
func (h *participantHandlers) save(c fiber.Ctx, params []string) error {
	key := params[0]
	if err := h.binder.Ensure(key, c.Get(fiber.HeaderAuthorization)); err != nil {
		return err
	}

	record, err := server.DecodeRecord(c.Body())
	if err != nil {
		return err
	}
	if err := h.store.Set(key, record); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(record)
}

func (h *participantHandlers) remove(c fiber.Ctx, params []string) error {
	key := params[0]
	if err := h.binder.Ensure(key, c.Get(fiber.HeaderAuthorization)); err != nil {
		return err
	}

	if _, ok := h.store.Get(key); !ok {
		return server.ErrNotFound
	}
	if err := h.store.Delete(key); err != nil {
		return err
	}
	if err := h.binder.Forget(key); err != nil {
		h.logger.WithFields(logrus.Fields{
			"action":     "forget_credential",
			"identity":   key,
			"request_id": server.RequestID(c),
		}).WithError(err).Warn("删除凭证失败，记录已删除")
	}
	return server.Respond(c, fiber.StatusOK)
}
