package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

const (
	StageBudgets   = "budgets"
	StageBoxOffice = "boxoffice"
	StageCompare   = "compare"
	StageFetch     = "fetch"
)

const (
	ErrCodeUnknownYear     = "unknown_year"
	ErrCodeMalformedAmount = "malformed_amount"
	ErrCodeMissingInput    = "missing_input"
	ErrCodeEmptyInput      = "empty_input"
	ErrCodeIOFailed        = "io_failed"
	ErrCodeFetchFailed     = "fetch_failed"
	ErrCodeParseFailed     = "parse_failed"
	ErrCodeChartFailed     = "chart_failed"

	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
)

// RunReport 是对外稳定输出（report.json / stdout JSON）的结构。
type RunReport struct {
	Path string `json:"path"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Stages  []StageResult `json:"stages"`
}

type ReportSummary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	// Records/Unknown 汇总各阶段读入的记录数与容忍模式降级为 Unknown 的条数。
	Records int `json:"records"`
	Unknown int `json:"unknown"`
}

// StageResult 是单个处理阶段（budgets/boxoffice/compare/fetch）的结果。
// 阶段之间互相独立：一个阶段失败不会取消其它阶段，但整个 run 以非零退出。
type StageResult struct {
	Stage string `json:"stage"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Records int `json:"records"`
	Unknown int `json:"unknown"`

	// Outputs 列出该阶段实际写出的文件（相对 path），用于失败时追溯“写到哪一步”。
	Outputs []string `json:"outputs"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 stages 计算得出
//
// stages 保持执行顺序，不排序（顺序本身就是信息）。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	var s ReportSummary
	for _, st := range r.Stages {
		switch st.Status {
		case StatusProcessed:
			s.Processed++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
		s.Records += st.Records
		s.Unknown += st.Unknown
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
