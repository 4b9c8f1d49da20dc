// Package cpi 提供“年份 -> 消费者价格指数（CPI）”的只读查表。
//
// 表在进程启动时构造、之后不再变化；调整算法只依赖 Lookup/Multiplier，
// 测试可以注入任意小表替换 Default。
package cpi

import (
	"errors"
	"fmt"
)

// UnknownYearError 表示严格模式下记录引用了表中不存在的年份。
// 上层把它映射为 error_code=unknown_year。
type UnknownYearError struct {
	Year string
}

func (e *UnknownYearError) Error() string {
	return fmt.Sprintf("CPI 表中没有年份 %q 的条目", e.Year)
}

func IsUnknownYear(err error) bool {
	var e *UnknownYearError
	return errors.As(err, &e)
}

// Table 是不可变的 CPI 查表。年份沿用记录里 Year 字段的原始字符串形态
// （四位数字），避免在查表边界引入一次多余的整数解析。
type Table struct {
	ref    string
	values map[string]float64
}

// New 构造查表。referenceYear 必须存在于 values 中（它的指数是所有调整的分子）。
func New(referenceYear string, values map[string]float64) (Table, error) {
	if referenceYear == "" {
		return Table{}, errors.New("referenceYear 不能为空")
	}
	if len(values) == 0 {
		return Table{}, errors.New("CPI 表不能为空")
	}
	if _, ok := values[referenceYear]; !ok {
		return Table{}, fmt.Errorf("CPI 表缺少基准年 %q 的条目", referenceYear)
	}
	m := make(map[string]float64, len(values))
	for y, v := range values {
		if v <= 0 {
			return Table{}, fmt.Errorf("年份 %q 的 CPI 值必须为正，实际是 %v", y, v)
		}
		m[y] = v
	}
	return Table{ref: referenceYear, values: m}, nil
}

// Lookup 返回 year 对应的指数；缺失时返回 *UnknownYearError。
func (t Table) Lookup(year string) (float64, error) {
	v, ok := t.values[year]
	if !ok {
		return 0, &UnknownYearError{Year: year}
	}
	return v, nil
}

func (t Table) ReferenceYear() string { return t.ref }

func (t Table) ReferenceIndex() float64 { return t.values[t.ref] }

// Multiplier 返回把 year 年金额换算到基准年所需的固定乘数（基准指数 / 当年指数）。
func (t Table) Multiplier(year string) (float64, error) {
	v, err := t.Lookup(year)
	if err != nil {
		return 0, err
	}
	return t.ReferenceIndex() / v, nil
}

// Default 返回内置的历史 CPI 表（基准年 2025）。
// 这些是固有的历史常量，不是部署参数，因此直接编译进二进制。
func Default() Table {
	t, err := New("2025", map[string]float64{
		"1979": 72.6,
		"1986": 109.6,
		"1992": 140.3,
		"1997": 160.5,
		"2004": 188.9,
		"2007": 207.3,
		"2012": 229.6,
		"2017": 245.1,
		"2024": 315.6,
		"2025": 319.1,
	})
	if err != nil {
		// 常量表构造失败只可能是编码错误。
		panic(err)
	}
	return t
}
