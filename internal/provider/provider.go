// Package provider 定义数据源抓取的统一接口：把“站点结构变化”限制在具体
// provider 内部，核心流程只消费标准字段名的记录序列。
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/DevTexRanger/alien-franchise-data/internal/domain"
)

// Provider 抓取并解析一个包含影片财务表格的页面。
//
// 约束：
// - Fetch 不做缓存、不做限速（重试在 httpx 层统一实现）
// - Parse 必须是纯函数：相同输入 => 相同输出
type Provider interface {
	Name() string
	Fetch(ctx context.Context, pageURL string, c *http.Client) (html []byte, err error)
	Parse(html []byte, pageURL string) ([]*domain.Record, error)
}

// Error 标记失败发生在哪个阶段；上层据此映射 error_code（fetch_failed/parse_failed）。
type Error struct {
	Provider string
	Stage    string // "fetch" / "parse"
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s 失败：%v", e.Provider, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatusError 表示抓取返回了非 2xx 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d：%s", e.StatusCode, e.URL)
}

// Registry 是 provider 的只读注册表（按 name 索引）。
// 用 map 做 O(1) 查找；provider 数量极小，保持简单即可。
type Registry struct {
	byName map[string]Provider
}

func NewRegistry(providers ...Provider) (Registry, error) {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return Registry{}, errors.New("provider 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(p.Name()))
		if name == "" {
			return Registry{}, errors.New("provider.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 provider：%q", name)
		}
		byName[name] = p
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Provider, bool) {
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// FetchParse 抓取 pageURL 并解析为记录序列，阶段性失败包装为 *Error。
func FetchParse(ctx context.Context, reg Registry, name, pageURL string, c *http.Client) ([]*domain.Record, error) {
	p, ok := reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("未知的 provider：%q", name)
	}

	html, err := p.Fetch(ctx, pageURL, c)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Stage: "fetch", Err: err}
	}
	records, err := p.Parse(html, pageURL)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Stage: "parse", Err: err}
	}
	return records, nil
}
