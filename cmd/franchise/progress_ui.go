package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/DevTexRanger/alien-franchise-data/internal/app/run"
	"github.com/DevTexRanger/alien-franchise-data/internal/config"
	"github.com/DevTexRanger/alien-franchise-data/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端的进度输出。
//
// 约束：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
type progressUI struct {
	w io.Writer

	done int
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	fmt.Fprintf(p.w, "[%s] franchise run\n", time.Now().Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	fmt.Fprintf(p.w, "  stage: %s\n", stageChain(eff.Stage))
	fmt.Fprintf(p.w, "  charts: %s\n", onOff(eff.Charts))
	fmt.Fprintf(p.w, "  budget_multiplier: %v\n", eff.BudgetMultiplier)

	fmt.Fprintln(p.w, "输入:")
	fmt.Fprintf(p.w, "  budgets: %s\n", filepath.Join(eff.Path, eff.BudgetCSV))
	fmt.Fprintf(p.w, "  boxoffice: %s\n", filepath.Join(eff.Path, eff.BoxOfficeCSV))
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnStageDone(res domain.StageResult, dur time.Duration) {
	p.done++

	status := strings.ToUpper(res.Status)
	switch res.Status {
	case domain.StatusProcessed:
		status = "OK"
	case domain.StatusSkipped:
		status = "SKIP"
	case domain.StatusFailed:
		status = "FAIL"
	}

	switch res.Status {
	case domain.StatusFailed:
		fmt.Fprintf(p.w, "[%d] %s %s %s: %s (%s)\n",
			p.done, res.Stage, status, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	case domain.StatusSkipped:
		fmt.Fprintf(p.w, "[%d] %s %s (图表已关闭，无需执行) (%s)\n",
			p.done, res.Stage, status, formatShortDuration(dur),
		)
	default:
		extra := ""
		if res.Unknown > 0 {
			extra = fmt.Sprintf(" unknown=%d", res.Unknown)
		}
		fmt.Fprintf(p.w, "[%d] %s %s records=%d outputs=%d%s (%s)\n",
			p.done, res.Stage, status, res.Records, len(res.Outputs), extra, formatShortDuration(dur),
		)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func stageChain(stage string) string {
	if stage == config.StageAll {
		return "budgets -> boxoffice -> compare"
	}
	return stage
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
