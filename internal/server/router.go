package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/participant-hub/participant-hub/internal/logging"
	"github.com/participant-hub/participant-hub/internal/metrics"
	"github.com/participant-hub/participant-hub/internal/router"
)

// AppOptions controls how the Fiber application is assembled.
type AppOptions struct {
	Logger *logrus.Logger
	Table  *router.Table
	// Metrics is optional; a nil value disables request instrumentation.
	Metrics *metrics.Metrics
	// BodyLimit caps request bodies in bytes. Zero keeps Fiber's default.
	BodyLimit int
}

const contextKeyRequestID = "_participanthub_request_id"

// NewApp builds a Fiber application that runs every request through the
// pipeline middleware and then the ordered route table.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Table == nil {
		return nil, errors.New("route table is required")
	}
	if opts.BodyLimit < 0 {
		return nil, errors.New("body limit must not be negative")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		BodyLimit:     opts.BodyLimit,
		// 只有管线之外的错误（例如请求体超限）才会走到这里。
		ErrorHandler: func(c fiber.Ctx, err error) error {
			return renderError(c, opts.Logger, err)
		},
	})

	app.Use(pipelineMiddleware(opts))
	app.Use(recover.New())
	app.Use(dispatchHandler(opts.Table))

	return app, nil
}

// pipelineMiddleware 负责请求 ID、计时、错误翻译、访问日志与指标。
// 无论 handler 成功、返回错误还是 panic，都会输出一条访问日志。
func pipelineMiddleware(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		method := c.Method()
		path := c.Path()

		var renderErr error
		if err := c.Next(); err != nil {
			renderErr = renderError(c, opts.Logger, err)
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		opts.Logger.WithFields(logging.RequestFields(
			reqID, method, path, status, float64(elapsed.Microseconds())/1000,
		)).Info("request completed")
		opts.Metrics.ObserveRequest(method, status, elapsed)
		return renderErr
	}
}

// dispatchHandler 把请求交给路由表；未命中时返回 ErrNotFound。
func dispatchHandler(table *router.Table) fiber.Handler {
	return func(c fiber.Ctx) error {
		handled, err := table.Dispatch(c)
		if err != nil {
			return err
		}
		if !handled {
			return ErrNotFound
		}
		return nil
	}
}

func renderError(c fiber.Ctx, logger *logrus.Logger, err error) error {
	status := StatusFor(err)
	fields := logrus.Fields{
		"action":     "request_error",
		"request_id": RequestID(c),
		"status":     status,
	}
	if status >= fiber.StatusInternalServerError {
		logger.WithFields(fields).WithError(err).Error("request failed")
	} else {
		logger.WithFields(fields).WithError(err).Debug("request rejected")
	}
	return Respond(c, status)
}

// RequestID returns the request identifier stored by the pipeline middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
