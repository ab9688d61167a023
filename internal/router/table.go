package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/utils/v2"
)

// Handler 处理命中的请求，params 为捕获组（按位置）。
type Handler func(c fiber.Ctx, params []string) error

// Route 是路由表中的一项。
type Route struct {
	Method  string
	Matcher Matcher
	Handler Handler
}

// Table 按注册顺序保存路由。Register 只应在启动阶段调用，之后只读，可被并发 Dispatch。
type Table struct {
	routes []Route
}

// NewTable 创建空路由表。
func NewTable() *Table {
	return &Table{}
}

// Register 追加一条路由；注册顺序即匹配优先级。
func (t *Table) Register(method string, matcher Matcher, handler Handler) {
	t.routes = append(t.routes, Route{Method: method, Matcher: matcher, Handler: handler})
}

// Get 注册 GET 路由。
func (t *Table) Get(matcher Matcher, handler Handler) {
	t.Register(fiber.MethodGet, matcher, handler)
}

// Post 注册 POST 路由。
func (t *Table) Post(matcher Matcher, handler Handler) {
	t.Register(fiber.MethodPost, matcher, handler)
}

// Delete 注册 DELETE 路由。
func (t *Table) Delete(matcher Matcher, handler Handler) {
	t.Register(fiber.MethodDelete, matcher, handler)
}

// Match 返回第一条命中的路由及其捕获参数。
func (t *Table) Match(method, path string) (Route, []string, bool) {
	for _, route := range t.routes {
		if route.Method != method {
			continue
		}
		if params, ok := route.Matcher.Match(path); ok {
			return route, params, true
		}
	}
	return Route{}, nil, false
}

// Dispatch 依次尝试路由并执行第一条命中的 handler，返回 (true, handler 的错误)。
// 全部未命中时返回 (false, nil)，由调用方回退到 404。
// c.Path() 指向会被复用的请求缓冲区，捕获组会被存进 Store 或交给后台任务，因此先拷贝。
func (t *Table) Dispatch(c fiber.Ctx) (bool, error) {
	route, params, ok := t.Match(c.Method(), utils.CopyString(c.Path()))
	if !ok {
		return false, nil
	}
	return true, route.Handler(c, params)
}

// Len 返回路由数量。
func (t *Table) Len() int {
	return len(t.routes)
}

// Describe 按注册顺序输出 "METHOD pattern"，用于启动日志。
func (t *Table) Describe() []string {
	out := make([]string, len(t.routes))
	for i, route := range t.routes {
		out[i] = fmt.Sprintf("%s %s", route.Method, route.Matcher)
	}
	return out
}
