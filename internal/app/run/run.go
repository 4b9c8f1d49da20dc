package run

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/DevTexRanger/alien-franchise-data/internal/adjust"
	"github.com/DevTexRanger/alien-franchise-data/internal/chart"
	"github.com/DevTexRanger/alien-franchise-data/internal/config"
	"github.com/DevTexRanger/alien-franchise-data/internal/cpi"
	"github.com/DevTexRanger/alien-franchise-data/internal/domain"
	"github.com/DevTexRanger/alien-franchise-data/internal/infra/httpx"
	"github.com/DevTexRanger/alien-franchise-data/internal/provider"
	"github.com/DevTexRanger/alien-franchise-data/internal/tabular"
)

// 图表文件名沿用参考数据集的命名（扩展名换成 html）。
const (
	chartBudgetLine      = "alien_franchise_budget_plot.html"
	chartBoxOfficeBars   = "alien_franchise_box_office_comparison.html"
	chartCompareOriginal = "alien_franchise_budget_profit_plot.html"
	chartCompareAdjusted = "alien_franchise_adjusted_budget_profit_plot.html"
)

// Execute 执行一次 run，并返回对外稳定的 RunReport。
//
// 阶段按固定顺序串行执行（整个流程是单线程的一遍处理）；
// 阶段之间互相独立：一个阶段失败不会取消其它阶段。
func Execute(eff config.EffectiveConfig) domain.RunReport {
	return ExecuteWithObserver(eff, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度信息
// （由上层决定是否启用）。
func ExecuteWithObserver(eff config.EffectiveConfig, obs Observer) domain.RunReport {
	started := time.Now().UTC()
	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Path:      eff.Path,
		StartedAt: started,
		Stages:    make([]domain.StageResult, 0, 3),
	}

	adj := adjust.Adjuster{Table: cpi.Default()}

	for _, stage := range selectStages(eff.Stage) {
		stageStarted := time.Now()
		var res domain.StageResult
		switch stage {
		case domain.StageBudgets:
			res = runBudgets(eff)
		case domain.StageBoxOffice:
			res = runBoxOffice(eff, adj)
		case domain.StageCompare:
			res = runCompare(eff, adj)
		}
		rr.Stages = append(rr.Stages, res)
		if obs != nil {
			obs.OnStageDone(res, time.Since(stageStarted))
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func selectStages(stage string) []string {
	if stage == config.StageAll {
		return []string{domain.StageBudgets, domain.StageBoxOffice, domain.StageCompare}
	}
	return []string{stage}
}

// runBudgets 是容忍模式阶段：固定乘数调整预算表，
// 解析失败的条目降级为 Unknown，整批照常写出。
func runBudgets(eff config.EffectiveConfig) domain.StageResult {
	res := newStage(domain.StageBudgets)

	records, err := tabular.Load(filepath.Join(eff.Path, eff.BudgetCSV))
	if err != nil {
		return failStage(res, errCode(err), err)
	}

	out := adjust.Budgets(records, eff.BudgetMultiplier)
	res.Records = len(out.Records)
	res.Unknown = out.Unknown

	if err := tabular.Save(filepath.Join(eff.Path, eff.BudgetOutCSV), out.Records); err != nil {
		return failStage(res, domain.ErrCodeIOFailed, err)
	}
	res.Outputs = append(res.Outputs, eff.BudgetOutCSV)

	if eff.Charts {
		rel := filepath.Join(eff.ChartsDir, chartBudgetLine)
		err := chart.RenderLine(
			filepath.Join(eff.Path, rel),
			"Alien Franchise Budgets (Adjusted to 2025 USD)",
			out.Series,
		)
		if err != nil {
			return failStage(res, domain.ErrCodeChartFailed, err)
		}
		res.Outputs = append(res.Outputs, rel)
	}
	return res
}

// runBoxOffice 是严格模式阶段：CPI 查表调整票房，任何解析失败/未知年份都中止
// 该阶段，且不写出任何文件（内存中的部分结果直接丢弃）。
func runBoxOffice(eff config.EffectiveConfig, adj adjust.Adjuster) domain.StageResult {
	res := newStage(domain.StageBoxOffice)

	records, err := tabular.Load(filepath.Join(eff.Path, eff.BoxOfficeCSV))
	if err != nil {
		return failStage(res, errCode(err), err)
	}
	res.Records = len(records)

	out, err := adj.BoxOffice(records)
	if err != nil {
		return failStage(res, errCode(err), err)
	}

	if err := tabular.Save(filepath.Join(eff.Path, eff.BoxOfficeOutCSV), out.Records); err != nil {
		return failStage(res, domain.ErrCodeIOFailed, err)
	}
	res.Outputs = append(res.Outputs, eff.BoxOfficeOutCSV)

	if eff.Charts {
		rel := filepath.Join(eff.ChartsDir, chartBoxOfficeBars)
		err := chart.RenderBars(
			filepath.Join(eff.Path, rel),
			"Alien Franchise Box Office Revenue: Original vs. Adjusted",
			out.Chart,
		)
		if err != nil {
			return failStage(res, domain.ErrCodeChartFailed, err)
		}
		res.Outputs = append(res.Outputs, rel)
	}
	return res
}

// runCompare 复用票房表做预算/利润对比：同一套逻辑调两次
// （adjusted=false/true），产出两张对比图。该阶段只产出图表。
func runCompare(eff config.EffectiveConfig, adj adjust.Adjuster) domain.StageResult {
	res := newStage(domain.StageCompare)

	if !eff.Charts {
		res.Status = domain.StatusSkipped
		return res
	}

	records, err := tabular.Load(filepath.Join(eff.Path, eff.BoxOfficeCSV))
	if err != nil {
		return failStage(res, errCode(err), err)
	}
	res.Records = len(records)

	original, err := adj.BudgetProfit(records, false)
	if err != nil {
		return failStage(res, errCode(err), err)
	}
	adjusted, err := adj.BudgetProfit(records, true)
	if err != nil {
		return failStage(res, errCode(err), err)
	}

	relOrig := filepath.Join(eff.ChartsDir, chartCompareOriginal)
	if err := chart.RenderBars(filepath.Join(eff.Path, relOrig), "Alien Franchise Budgets and Profits", original); err != nil {
		return failStage(res, domain.ErrCodeChartFailed, err)
	}
	res.Outputs = append(res.Outputs, relOrig)

	relAdj := filepath.Join(eff.ChartsDir, chartCompareAdjusted)
	if err := chart.RenderBars(filepath.Join(eff.Path, relAdj), "Alien Franchise: Adjusted Budgets and Profits (2025 USD)", adjusted); err != nil {
		return failStage(res, domain.ErrCodeChartFailed, err)
	}
	res.Outputs = append(res.Outputs, relAdj)

	return res
}

// ExecuteFetch 执行 fetch：抓取 source_url 的影片财务表格，
// 写为票房输入 CSV（覆盖已有文件）。
func ExecuteFetch(ctx context.Context, eff config.EffectiveConfig, reg provider.Registry, providerName string) domain.RunReport {
	started := time.Now().UTC()
	rr := domain.RunReport{
		Path:      eff.Path,
		StartedAt: started,
		Stages:    make([]domain.StageResult, 0, 1),
	}

	res := newStage(domain.StageFetch)
	switch {
	case eff.SourceURL == "":
		res = failStage(res, domain.ErrCodeConfigInvalid, fmt.Errorf("fetch 需要 source_url（配置文件或 --url）"))
	default:
		res = runFetch(ctx, eff, reg, providerName, res)
	}

	rr.Stages = append(rr.Stages, res)
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func runFetch(ctx context.Context, eff config.EffectiveConfig, reg provider.Registry, providerName string, res domain.StageResult) domain.StageResult {
	client, err := httpx.NewFetchClient(eff.ProxyURL)
	if err != nil {
		return failStage(res, domain.ErrCodeConfigInvalid, err)
	}

	records, err := provider.FetchParse(ctx, reg, providerName, eff.SourceURL, client)
	if err != nil {
		return failStage(res, providerErrCode(err), err)
	}
	res.Records = len(records)

	if err := tabular.Save(filepath.Join(eff.Path, eff.BoxOfficeCSV), records); err != nil {
		return failStage(res, domain.ErrCodeIOFailed, err)
	}
	res.Outputs = append(res.Outputs, eff.BoxOfficeCSV)
	return res
}

func newStage(stage string) domain.StageResult {
	return domain.StageResult{
		Stage:   stage,
		Status:  domain.StatusProcessed, // 失败时覆盖
		Outputs: []string{},
	}
}

func failStage(res domain.StageResult, code string, err error) domain.StageResult {
	res.Status = domain.StatusFailed
	res.ErrorCode = code
	res.ErrorMsg = err.Error()
	return res
}

// errCode 把核心层的类型化错误映射为对外稳定的 error_code。
func errCode(err error) string {
	switch {
	case cpi.IsUnknownYear(err):
		return domain.ErrCodeUnknownYear
	case adjust.IsMalformedAmount(err):
		return domain.ErrCodeMalformedAmount
	case tabular.IsMissingInput(err):
		return domain.ErrCodeMissingInput
	case tabular.IsEmptyInput(err):
		return domain.ErrCodeEmptyInput
	default:
		return domain.ErrCodeIOFailed
	}
}

func providerErrCode(err error) string {
	var pe *provider.Error
	if errors.As(err, &pe) && pe.Stage == "parse" {
		return domain.ErrCodeParseFailed
	}
	return domain.ErrCodeFetchFailed
}
