package adjust

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/DevTexRanger/alien-franchise-data/internal/cpi"
	"github.com/DevTexRanger/alien-franchise-data/internal/domain"
)

func testTable(t *testing.T) cpi.Table {
	t.Helper()
	tb, err := cpi.New("2025", map[string]float64{"1979": 72.6, "2025": 319.1})
	if err != nil {
		t.Fatalf("构造 CPI 表失败：%v", err)
	}
	return tb
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"11,000,000", 11000000, false},
		{"~104,930,000", 104930000, false}, // 近似标记不构成失败
		{"0", 0, false},
		{" 1,234 ", 1234, false},
		{"N/A", 0, true},
		{"", 0, true},
		{"~", 0, true},
		{"12.5", 0, true},
		{"1,2a3", 0, true},
		{"-100", 0, true}, // 金额只接受非负
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		if c.wantErr {
			if !IsMalformedAmount(err) {
				t.Fatalf("ParseAmount(%q)：期望 MalformedAmountError，实际 err=%v", c.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAmount(%q)：不期望错误：%v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseAmount(%q)：期望 %d，实际=%d", c.in, c.want, got)
		}
	}
}

func TestCanonical_ParseRoundTrip(t *testing.T) {
	// 幂等性：对已规范化的串再次解析，结果与原始纯数字串一致。
	for _, n := range []int64{0, 999, 1000, 11000000, 104930000} {
		s := Canonical(n)
		got, err := ParseAmount(s)
		if err != nil {
			t.Fatalf("ParseAmount(Canonical(%d)=%q)：不期望错误：%v", n, s, err)
		}
		if got != n {
			t.Fatalf("期望 %d，实际=%d（中间串 %q）", n, got, s)
		}
	}
	if Canonical(11000000) != "11,000,000" {
		t.Fatalf("期望 \"11,000,000\"，实际=%q", Canonical(11000000))
	}
}

func TestAmount_Formula(t *testing.T) {
	a := Adjuster{Table: testTable(t)}

	got, err := a.Amount(104930000, "1979")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 期望值按公式推导，而不是手抄的字面量。
	want := int64(math.Round(104930000 * 319.1 / 72.6))
	if got != want {
		t.Fatalf("期望 %d，实际=%d", want, got)
	}
}

func TestAmount_IdentityAtReferenceYear(t *testing.T) {
	a := Adjuster{Table: testTable(t)}
	got, err := a.Amount(123456789, "2025")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got != 123456789 {
		t.Fatalf("基准年应恒等：期望 123456789，实际=%d", got)
	}
}

func TestAmount_UnknownYear(t *testing.T) {
	a := Adjuster{Table: testTable(t)}
	_, err := a.Amount(100, "1968")
	if !cpi.IsUnknownYear(err) {
		t.Fatalf("期望 UnknownYearError，实际：%T %v", err, err)
	}
}

func budgetRecord(title, budget string) *domain.Record {
	r := domain.NewRecord()
	r.Set(domain.FieldTitle, title)
	r.Set(domain.FieldBudget, budget)
	return r
}

func TestBudgets_TolerantMode(t *testing.T) {
	in := []*domain.Record{
		budgetRecord("Alien", "11,000,000"),
		budgetRecord("Alien: Isolation", "N/A"),
		budgetRecord("Aliens", "18500000"),
	}

	res := Budgets(in, 1.02598)

	if len(res.Records) != len(in) {
		t.Fatalf("期望输出条数=%d，实际=%d", len(in), len(res.Records))
	}
	if res.Unknown != 1 {
		t.Fatalf("期望 unknown=1，实际=%d", res.Unknown)
	}

	// 成功条目：源字段规范化 + 调整值（11000000 × 1.02598 = 11285780）。
	r0 := res.Records[0]
	if r0.Get(domain.FieldBudget) != "11,000,000" {
		t.Fatalf("期望源字段规范化为 \"11,000,000\"，实际=%q", r0.Get(domain.FieldBudget))
	}
	if r0.Get(domain.FieldAdjustedBudget) != "11285780" {
		t.Fatalf("期望调整值 11285780，实际=%q", r0.Get(domain.FieldAdjustedBudget))
	}

	// 失败条目：保留在输出中、带 Unknown 标记、原字段原样不动。
	r1 := res.Records[1]
	if r1.Get(domain.FieldAdjustedBudget) != domain.UnknownMarker {
		t.Fatalf("期望 Unknown 标记，实际=%q", r1.Get(domain.FieldAdjustedBudget))
	}
	if r1.Get(domain.FieldBudget) != "N/A" {
		t.Fatalf("失败条目的源字段不应被改写，实际=%q", r1.Get(domain.FieldBudget))
	}

	// Series 只包含成功条目，顺序与输入一致。
	if len(res.Series.Labels) != 2 || len(res.Series.Values) != 2 {
		t.Fatalf("期望 series 含 2 个点，实际 labels=%d values=%d", len(res.Series.Labels), len(res.Series.Values))
	}
	if res.Series.Labels[0] != "Alien" || res.Series.Labels[1] != "Aliens" {
		t.Fatalf("series 顺序错误：%v", res.Series.Labels)
	}
	if res.Series.Values[0] != 11285780 {
		t.Fatalf("期望 series 首值 11285780，实际=%d", res.Series.Values[0])
	}

	// 输入记录不被修改（write-once 派生）。
	if in[0].Get(domain.FieldBudget) != "11,000,000" {
		t.Fatalf("输入记录被意外修改：%q", in[0].Get(domain.FieldBudget))
	}
	if in[0].Has(domain.FieldAdjustedBudget) {
		t.Fatalf("输入记录不应出现派生字段")
	}
}

func TestBudgets_NeverFails(t *testing.T) {
	in := []*domain.Record{
		budgetRecord("a", "???"),
		budgetRecord("b", ""),
		budgetRecord("c", "N/A"),
	}
	res := Budgets(in, 2.0)
	if res.Unknown != 3 || len(res.Records) != 3 {
		t.Fatalf("容忍模式不应丢条目：unknown=%d records=%d", res.Unknown, len(res.Records))
	}
}

func boxOfficeRecord(title, year, revenue string) *domain.Record {
	r := domain.NewRecord()
	r.Set(domain.FieldTitle, title)
	r.Set(domain.FieldYear, year)
	r.Set(domain.FieldRevenue, revenue)
	return r
}

func TestBoxOffice_StrictMode(t *testing.T) {
	a := Adjuster{Table: testTable(t)}
	in := []*domain.Record{
		boxOfficeRecord("Alien", "1979", "~104,930,000"),
	}

	res, err := a.BoxOffice(in)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	want := int64(math.Round(104930000 * 319.1 / 72.6))
	r0 := res.Records[0]
	if r0.Get(domain.FieldAdjustedRevenue) == "" {
		t.Fatalf("缺少派生字段 %q", domain.FieldAdjustedRevenue)
	}
	if got := r0.Get(domain.FieldAdjustedRevenue); got != strconv.FormatInt(want, 10) {
		t.Fatalf("期望调整值 %d，实际=%q", want, got)
	}

	// 原始值不重写（严格模式不做源字段规范化）。
	if r0.Get(domain.FieldRevenue) != "~104,930,000" {
		t.Fatalf("严格模式不应改写源字段，实际=%q", r0.Get(domain.FieldRevenue))
	}

	if len(res.Chart.Labels) != 1 || res.Chart.A[0] != 104930000 || res.Chart.B[0] != want {
		t.Fatalf("对比数据错误：labels=%v A=%v B=%v", res.Chart.Labels, res.Chart.A, res.Chart.B)
	}
}

func TestBoxOffice_MalformedIsFatal(t *testing.T) {
	a := Adjuster{Table: testTable(t)}
	in := []*domain.Record{
		boxOfficeRecord("Alien", "1979", "104,930,000"),
		boxOfficeRecord("Aliens", "1979", "N/A"),
	}
	_, err := a.BoxOffice(in)
	if !IsMalformedAmount(err) {
		t.Fatalf("期望 MalformedAmountError，实际：%T %v", err, err)
	}
}

func TestBoxOffice_UnknownYearIsFatal(t *testing.T) {
	a := Adjuster{Table: testTable(t)}
	in := []*domain.Record{
		boxOfficeRecord("Alien 3", "1992", "100"),
	}
	_, err := a.BoxOffice(in)
	if !cpi.IsUnknownYear(err) {
		t.Fatalf("期望 UnknownYearError，实际：%T %v", err, err)
	}
}

func compareRecord(title, year, budget, profit string) *domain.Record {
	r := domain.NewRecord()
	r.Set(domain.FieldTitle, title)
	r.Set(domain.FieldYear, year)
	r.Set(domain.FieldProductionBudget, budget)
	r.Set(domain.FieldProfit, profit)
	return r
}

func TestBudgetProfit_OriginalPassThrough(t *testing.T) {
	a := Adjuster{Table: testTable(t)}
	in := []*domain.Record{
		compareRecord("Alien", "1979", "11,000,000", "~93,930,000"),
	}

	cmp, err := a.BudgetProfit(in, false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if cmp.A[0] != 11000000 || cmp.B[0] != 93930000 {
		t.Fatalf("adjusted=false 应透传解析值：A=%v B=%v", cmp.A, cmp.B)
	}
	if cmp.NameA != "Original Budget" || cmp.NameB != "Original Profit" {
		t.Fatalf("图例名错误：%q %q", cmp.NameA, cmp.NameB)
	}
}

func TestBudgetProfit_Adjusted(t *testing.T) {
	a := Adjuster{Table: testTable(t)}
	in := []*domain.Record{
		compareRecord("Alien", "1979", "11,000,000", "93,930,000"),
	}

	cmp, err := a.BudgetProfit(in, true)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	wantBudget := int64(math.Round(11000000 * 319.1 / 72.6))
	wantProfit := int64(math.Round(93930000 * 319.1 / 72.6))
	if cmp.A[0] != wantBudget || cmp.B[0] != wantProfit {
		t.Fatalf("期望 A=%d B=%d，实际 A=%d B=%d", wantBudget, wantProfit, cmp.A[0], cmp.B[0])
	}
}

func TestBudgetProfit_MalformedCarriesField(t *testing.T) {
	a := Adjuster{Table: testTable(t)}
	in := []*domain.Record{
		compareRecord("Alien", "1979", "oops", "1"),
	}
	_, err := a.BudgetProfit(in, false)
	var me *MalformedAmountError
	if !errors.As(err, &me) || me.Field != domain.FieldProductionBudget {
		t.Fatalf("期望错误携带字段名 %q，实际：%v", domain.FieldProductionBudget, err)
	}
}
