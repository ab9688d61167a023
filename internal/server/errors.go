package server

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/participant-hub/participant-hub/internal/auth"
)

var (
	// ErrNotFound 表示路由未命中或记录不存在。
	ErrNotFound = errors.New("not found")
	// ErrInvalidBody 表示请求体不是合法的 JSON 对象。
	ErrInvalidBody = errors.New("invalid request body")
)

var statusMessages = map[int]string{
	fiber.StatusOK:                  "Success",
	fiber.StatusBadRequest:          "Invalid request",
	fiber.StatusUnauthorized:        "Unauthorized",
	fiber.StatusNotFound:            "Not found",
	fiber.StatusInternalServerError: "Internal server error",
}

// Envelope 是所有非数据响应的固定结构。
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// NewEnvelope 根据状态码生成 envelope。
func NewEnvelope(status int) Envelope {
	return Envelope{Status: status, Message: StatusMessage(status)}
}

// StatusMessage 返回状态码对应的固定文案。
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Unknown"
}

// Respond 以 envelope 作为响应体写出状态码。
func Respond(c fiber.Ctx, status int) error {
	return c.Status(status).JSON(NewEnvelope(status))
}

// StatusFor 把 handler 返回的错误映射为 HTTP 状态码。
func StatusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrInvalidBody):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
