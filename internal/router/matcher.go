package router

import "regexp"

// Matcher 判断路径是否命中，并按从左到右的顺序返回捕获组。
type Matcher interface {
	Match(path string) ([]string, bool)
	String() string
}

type exactMatcher string

// Exact 返回要求路径完全相等的 Matcher，不产生捕获参数。
func Exact(path string) Matcher {
	return exactMatcher(path)
}

func (m exactMatcher) Match(path string) ([]string, bool) {
	if string(m) != path {
		return nil, false
	}
	return []string{}, true
}

func (m exactMatcher) String() string {
	return string(m)
}

type patternMatcher struct {
	re *regexp.Regexp
}

// Pattern 编译正则 Matcher，表达式需要自行锚定（^...$）。编译失败会 panic，
// 路由表只在启动阶段构建。
func Pattern(expr string) Matcher {
	return patternMatcher{re: regexp.MustCompile(expr)}
}

func (m patternMatcher) Match(path string) ([]string, bool) {
	groups := m.re.FindStringSubmatch(path)
	if groups == nil {
		return nil, false
	}
	return groups[1:], true
}

func (m patternMatcher) String() string {
	return m.re.String()
}
