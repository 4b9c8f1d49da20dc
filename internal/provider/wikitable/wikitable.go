// Package wikitable 解析“维基百科风格”的影片财务 HTML 表格
// （Wikipedia / Box Office Mojo 的系列影片表都属于这一类：
// 第一行表头，其后每行一部影片）。
package wikitable

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/DevTexRanger/alien-franchise-data/internal/domain"
	providerx "github.com/DevTexRanger/alien-franchise-data/internal/provider"
)

type Provider struct{}

func (Provider) Name() string { return "wikitable" }

// Fetch 抓取页面原始 HTML。重定向交给默认策略（这类站点不做验证跳转）。
func (Provider) Fetch(ctx context.Context, pageURL string, c *http.Client) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	if strings.TrimSpace(pageURL) == "" {
		return nil, errors.New("pageURL 不能为空")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &providerx.HTTPStatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errors.New("empty response body")
	}
	return b, nil
}

// 表头别名（不区分大小写）。页面表头叫法不一，统一映射到标准字段名。
var headerAliases = map[string][]string{
	domain.FieldTitle:            {"Film Title", "Film", "Title"},
	domain.FieldYear:             {"Year", "Release year"},
	domain.FieldRevenue:          {"Box Office Revenue (USD)", "Box office", "Box office revenue", "Worldwide gross"},
	domain.FieldProductionBudget: {"Production Budget (USD)", "Budget", "Production budget"},
	domain.FieldProfit:           {"Estimated Profit (USD)", "Profit", "Estimated profit"},
}

// 标准字段的输出顺序（决定写出 CSV 的表头顺序）。
var fieldOrder = []string{
	domain.FieldTitle,
	domain.FieldYear,
	domain.FieldRevenue,
	domain.FieldProductionBudget,
	domain.FieldProfit,
}

// Parse 在页面里找第一张同时包含 title/year/revenue 列的表格，
// 把每个数据行映射为一条标准字段名的记录。
func (Provider) Parse(html []byte, pageURL string) ([]*domain.Record, error) {
	if len(html) == 0 {
		return nil, errors.New("html 为空")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var records []*domain.Record
	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		cols := headerColumns(tbl)
		if cols == nil {
			// 不是目标表（导航框/信息框等），继续找下一张。
			return true
		}
		records = parseRows(tbl, cols)
		return len(records) == 0
	})

	if len(records) == 0 {
		return nil, errors.New("页面中没有找到包含影片财务数据的表格")
	}
	return records, nil
}

// headerColumns 读取表格第一行，返回“列号 -> 标准字段名”的映射；
// 缺少 title/year/revenue 任意一列则返回 nil（该表不可用）。
func headerColumns(tbl *goquery.Selection) map[int]string {
	headerRow := tbl.Find("tr").First()
	if headerRow.Length() == 0 {
		return nil
	}

	cols := make(map[int]string)
	headerRow.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		h := normHeader(cell.Text())
		for field, aliases := range headerAliases {
			for _, a := range aliases {
				if strings.EqualFold(h, a) {
					cols[i] = field
					return
				}
			}
		}
	})

	seen := make(map[string]bool, len(cols))
	for _, f := range cols {
		seen[f] = true
	}
	if !seen[domain.FieldTitle] || !seen[domain.FieldYear] || !seen[domain.FieldRevenue] {
		return nil
	}
	return cols
}

func parseRows(tbl *goquery.Selection, cols map[int]string) []*domain.Record {
	var records []*domain.Record
	tbl.Find("tr").Each(func(ri int, row *goquery.Selection) {
		if ri == 0 {
			return // 表头行
		}
		values := make(map[string]string, len(cols))
		row.Find("th, td").Each(func(ci int, cell *goquery.Selection) {
			field, ok := cols[ci]
			if !ok {
				return
			}
			v := cleanCell(cell.Text())
			if field == domain.FieldYear {
				v = firstYear(v)
			}
			values[field] = v
		})
		// 行里缺任何已映射列（rowspan/汇总行）就整行跳过，宁缺毋错。
		if len(values) != len(uniqueFields(cols)) {
			return
		}
		if values[domain.FieldTitle] == "" {
			return
		}
		r := domain.NewRecord()
		for _, f := range fieldOrder {
			if v, ok := values[f]; ok {
				r.Set(f, v)
			}
		}
		records = append(records, r)
	})
	return records
}

func uniqueFields(cols map[int]string) map[string]struct{} {
	out := make(map[string]struct{}, len(cols))
	for _, f := range cols {
		out[f] = struct{}{}
	}
	return out
}

var footnoteRe = regexp.MustCompile(`\[[^\]]*\]`)

// cleanCell 去掉脚注标记与货币符号，保留千分位逗号与近似标记
// （它们由下游的金额解析统一处理）。
func cleanCell(s string) string {
	s = footnoteRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "$", "")
	return normSpace(s)
}

var yearRe = regexp.MustCompile(`\b(\d{4})\b`)

// firstYear 提取第一个四位年份（"1979 (US)" -> "1979"）；
// 找不到则原样返回，让严格模式在查表时报出可定位的错误。
func firstYear(s string) string {
	if m := yearRe.FindString(s); m != "" {
		return m
	}
	return s
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

func normHeader(s string) string {
	s = normSpace(footnoteRe.ReplaceAllString(s, ""))
	s = strings.TrimSuffix(s, ":")
	return strings.TrimSpace(s)
}
