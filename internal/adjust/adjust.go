// Package adjust 实现核心的记录变换：金额解析、通胀调整与派生字段写入。
//
// 两条处理路径共用同一个解析例程（ParseAmount），但失败策略不同：
// - 容忍模式（Budgets）：单条解析失败降级为 "Unknown" 标记，整批继续
// - 严格模式（BoxOffice/BudgetProfit）：任何解析失败或未知年份都是致命错误
//
// 该不对称性是数据集决定的：预算表没有逐条的年份绑定（用调用方预先算好的
// 固定乘数），票房表每条都必须带合法年份（走 CPI 查表）。
package adjust

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/DevTexRanger/alien-franchise-data/internal/cpi"
	"github.com/DevTexRanger/alien-franchise-data/internal/domain"
)

// MalformedAmountError 表示金额字段在剥离分隔符后不是纯数字。
// 容忍模式在内部捕获它；严格模式把它原样抛给上层（error_code=malformed_amount）。
type MalformedAmountError struct {
	Field string // 可能为空（直接调用 ParseAmount 时）
	Value string
}

func (e *MalformedAmountError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("金额 %q 无法解析为非负整数", e.Value)
	}
	return fmt.Sprintf("字段 %q 的金额 %q 无法解析为非负整数", e.Field, e.Value)
}

func IsMalformedAmount(err error) bool {
	var e *MalformedAmountError
	return errors.As(err, &e)
}

// ParseAmount 把金额字符串解析为非负整数。
//
// 规则（两种模式共用）：
// - 剥离千分位分隔符 ","
// - 剥离前导近似标记 "~"
// - 剩余内容必须全为十进制数字，否则 MalformedAmountError
func ParseAmount(s string) (int64, error) {
	orig := s
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "~")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, &MalformedAmountError{Value: orig}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &MalformedAmountError{Value: orig}
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// 只剩溢出一种可能；同样按 malformed 处理（金额不该有 19 位）。
		return 0, &MalformedAmountError{Value: orig}
	}
	return n, nil
}

var canonPrinter = message.NewPrinter(language.English)

// Canonical 把金额格式化为规范的千分位形式（11000000 -> "11,000,000"）。
// 性质：ParseAmount(Canonical(n)) == n（容忍模式重写源字段依赖该幂等性）。
func Canonical(n int64) string {
	return canonPrinter.Sprintf("%d", n)
}

// roundScale 是全系统唯一的金额缩放+取整点。
//
// 舍入约定（固定）：math.Round，即 0.5 远离零；金额恒为正，等价于 0.5 进位。
// 所有调整（预算/票房/利润、固定乘数或 CPI 查表）都经过这里，保证口径一致。
func roundScale(n int64, factor float64) int64 {
	return int64(math.Round(float64(n) * factor))
}

// Adjuster 持有注入的 CPI 表；严格模式的年份查表都走它。
type Adjuster struct {
	Table cpi.Table
}

// Amount 把 year 年的金额换算到基准年：round(amount × 基准指数 / 当年指数)。
// 基准年的换算是恒等（乘数精确为 1）。
func (a Adjuster) Amount(amount int64, year string) (int64, error) {
	m, err := a.Table.Multiplier(year)
	if err != nil {
		return 0, err
	}
	return roundScale(amount, m), nil
}

// BudgetsResult 是容忍模式的输出：
// - Records：与输入等长、同序的派生记录（解析失败的条目带 Unknown 标记）
// - Series：仅包含成功条目的 (title, adjusted) 序列，供折线图使用
// - Unknown：降级条数
type BudgetsResult struct {
	Records []*domain.Record
	Series  domain.Series
	Unknown int
}

// Budgets 是容忍模式：用调用方提供的固定乘数调整预算字段。
//
// 成功条目：源字段重写为规范千分位格式，并追加调整后金额；
// 失败条目：追加 Unknown 标记，记录保留在输出中但不进入 Series。
// 永不返回 per-record 错误。
func Budgets(records []*domain.Record, multiplier float64) BudgetsResult {
	res := BudgetsResult{
		Records: make([]*domain.Record, 0, len(records)),
		Series:  domain.Series{Name: domain.FieldAdjustedBudget},
	}
	for _, r := range records {
		nr := r.Clone()
		n, err := ParseAmount(nr.Get(domain.FieldBudget))
		if err != nil {
			nr.Set(domain.FieldAdjustedBudget, domain.UnknownMarker)
			res.Unknown++
		} else {
			adjusted := roundScale(n, multiplier)
			nr.Set(domain.FieldBudget, Canonical(n))
			nr.Set(domain.FieldAdjustedBudget, strconv.FormatInt(adjusted, 10))
			res.Series.Labels = append(res.Series.Labels, nr.Get(domain.FieldTitle))
			res.Series.Values = append(res.Series.Values, adjusted)
		}
		res.Records = append(res.Records, nr)
	}
	return res
}

// BoxOfficeResult 是严格模式（票房）的输出：派生记录 + 原始/调整对比数据。
type BoxOfficeResult struct {
	Records []*domain.Record
	Chart   domain.Comparison
}

// BoxOffice 是严格模式：每条记录必须带合法年份与可解析的票房金额，
// 任一失败即中止整批（调用方丢弃已产生的部分结果）。
func (a Adjuster) BoxOffice(records []*domain.Record) (BoxOfficeResult, error) {
	res := BoxOfficeResult{
		Records: make([]*domain.Record, 0, len(records)),
		Chart: domain.Comparison{
			NameA: "Original Revenue",
			NameB: "Adjusted Revenue (2025)",
		},
	}
	for _, r := range records {
		nr := r.Clone()
		n, err := parseField(nr, domain.FieldRevenue)
		if err != nil {
			return BoxOfficeResult{}, err
		}
		adjusted, err := a.Amount(n, nr.Get(domain.FieldYear))
		if err != nil {
			return BoxOfficeResult{}, err
		}
		nr.Set(domain.FieldAdjustedRevenue, strconv.FormatInt(adjusted, 10))

		res.Chart.Labels = append(res.Chart.Labels, nr.Get(domain.FieldTitle))
		res.Chart.A = append(res.Chart.A, n)
		res.Chart.B = append(res.Chart.B, adjusted)
		res.Records = append(res.Records, nr)
	}
	return res, nil
}

// BudgetProfit 是严格模式的预算/利润对比：
// adjusted=false 时原样返回解析出的整数（“原始 vs 调整”配对靠调两次实现）；
// adjusted=true 时预算与利润各自按该条记录的年份独立调整。
//
// 注意：利润是数据源预先给出的字段（票房 − 预算，由上游计算），
// 这里只做解析与缩放，不做派生。
func (a Adjuster) BudgetProfit(records []*domain.Record, adjusted bool) (domain.Comparison, error) {
	cmp := domain.Comparison{NameA: "Original Budget", NameB: "Original Profit"}
	if adjusted {
		cmp.NameA = "Adjusted Budget (2025 USD)"
		cmp.NameB = "Adjusted Profit (2025 USD)"
	}
	for _, r := range records {
		budget, err := parseField(r, domain.FieldProductionBudget)
		if err != nil {
			return domain.Comparison{}, err
		}
		profit, err := parseField(r, domain.FieldProfit)
		if err != nil {
			return domain.Comparison{}, err
		}
		if adjusted {
			year := r.Get(domain.FieldYear)
			if budget, err = a.Amount(budget, year); err != nil {
				return domain.Comparison{}, err
			}
			if profit, err = a.Amount(profit, year); err != nil {
				return domain.Comparison{}, err
			}
		}
		cmp.Labels = append(cmp.Labels, r.Get(domain.FieldTitle))
		cmp.A = append(cmp.A, budget)
		cmp.B = append(cmp.B, profit)
	}
	return cmp, nil
}

// parseField 解析指定字段，并在错误里补上字段名（便于定位是哪一列坏了）。
func parseField(r *domain.Record, field string) (int64, error) {
	n, err := ParseAmount(r.Get(field))
	if err != nil {
		var me *MalformedAmountError
		if errors.As(err, &me) {
			me.Field = field
		}
		return 0, err
	}
	return n, nil
}
