package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/DevTexRanger/alien-franchise-data/internal/config"
	"github.com/DevTexRanger/alien-franchise-data/internal/domain"
)

func TestProgressUI_OnStart(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf)

	ui.OnStart(config.EffectiveConfig{
		Path:             "/data",
		Stage:            config.StageAll,
		Charts:           true,
		BudgetMultiplier: config.DefaultMultiplier,
		BudgetCSV:        config.DefaultBudgetCSV,
		BoxOfficeCSV:     config.DefaultBoxOfficeCSV,
	})

	out := buf.String()
	for _, want := range []string{
		"配置（生效）",
		"stage: budgets -> boxoffice -> compare",
		"charts: on",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
}

func TestProgressUI_OnStageDone(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf)

	ui.OnStageDone(domain.StageResult{
		Stage:   domain.StageBudgets,
		Status:  domain.StatusProcessed,
		Records: 9,
		Unknown: 2,
		Outputs: []string{"alien_franchise_adjusted.csv"},
	}, 120*time.Millisecond)
	ui.OnStageDone(domain.StageResult{
		Stage:     domain.StageBoxOffice,
		Status:    domain.StatusFailed,
		ErrorCode: domain.ErrCodeMalformedAmount,
		ErrorMsg:  "字段坏了",
	}, time.Second)
	ui.OnStageDone(domain.StageResult{
		Stage:  domain.StageCompare,
		Status: domain.StatusSkipped,
	}, 0)

	out := buf.String()
	if !strings.Contains(out, "[1] budgets OK records=9 outputs=1 unknown=2") {
		t.Fatalf("缺少 budgets 行：\n%s", out)
	}
	if !strings.Contains(out, "[2] boxoffice FAIL malformed_amount") {
		t.Fatalf("缺少 boxoffice 失败行：\n%s", out)
	}
	if !strings.Contains(out, "[3] compare SKIP") {
		t.Fatalf("缺少 compare 跳过行：\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 5); got != "ab..." {
		t.Fatalf("期望 %q，实际=%q", "ab...", got)
	}
	if got := truncate("abc", 5); got != "abc" {
		t.Fatalf("期望原样返回，实际=%q", got)
	}
}
