package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 franchise.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = "config_missing_path"
)

const (
	// StageAll 表示依次执行全部三个处理阶段。
	StageAll = "all"

	// DefaultMultiplier 是容忍模式（预算表）的固定调整乘数。
	// 预算表没有逐条年份绑定，乘数由已知的 CPI 比值预先算好、作为部署参数提供。
	DefaultMultiplier = 1.02598

	DefaultBudgetCSV       = "alien_franchise.csv"
	DefaultBudgetOutCSV    = "alien_franchise_adjusted.csv"
	DefaultBoxOfficeCSV    = "alien_box_office.csv"
	DefaultBoxOfficeOutCSV = "alien_box_office_cpi_adjusted.csv"
	DefaultChartsDir       = "charts"
)

// CLIArgs 只包含 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --charts=false 必须能覆盖 config.charts=true。
type CLIArgs struct {
	Path string

	Stage    string
	StageSet bool

	Charts    bool
	ChartsSet bool

	SourceURL    string
	SourceURLSet bool
}

// FileConfig 对应 franchise.json 的解析结构。
type FileConfig struct {
	Path string `json:"path"`

	Stage  string `json:"stage"`
	Charts *bool  `json:"charts"`

	BudgetMultiplier float64 `json:"budget_multiplier"`

	BudgetCSV       string `json:"budget_csv"`
	BudgetOutCSV    string `json:"budget_out_csv"`
	BoxOfficeCSV    string `json:"boxoffice_csv"`
	BoxOfficeOutCSV string `json:"boxoffice_out_csv"`
	ChartsDir       string `json:"charts_dir"`

	SourceURL string       `json:"source_url"`
	Proxy     *ProxyConfig `json:"proxy"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
// （实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path string

	Stage  string
	Charts bool

	BudgetMultiplier float64

	// 数据文件名均相对 Path 解释。
	BudgetCSV       string
	BudgetOutCSV    string
	BoxOfficeCSV    string
	BoxOfficeOutCSV string
	ChartsDir       string

	// SourceURL 是 fetch 命令的抓取页面；仅 fetch 使用。
	SourceURL string
	ProxyURL  string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 按约定发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 path：尝试读取 <path>/franchise.json（可选）
// 2) CLI 未提供 path：必须读取 <cwd>/franchise.json（必选），且其中必须包含 path
//
// 覆盖优先级（固定）：
// - path：CLI path > config path
// - stage：CLI > config > 默认 all
// - charts：CLI --charts/--charts=false > config > 默认 true
// - source_url：CLI --url > config
// - 其他字段：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		// CLI 给了 path：配置文件可选，位置固定在 <path>/franchise.json。
		absPath := absCleanFrom(cwdAbs, cli.Path)
		cfgPath := filepath.Join(absPath, "franchise.json")

		fc, _, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		return merge(absPath, cli, fc, cfgPath)
	}

	// CLI 没给 path：必须读取 <cwd>/franchise.json，且其中必须包含 path。
	cfgPath := filepath.Join(cwdAbs, "franchise.json")
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	absPath := absCleanFrom(cwdAbs, fc.Path)
	return merge(absPath, cli, fc, cfgPath)
}

func merge(absPath string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	// stage：CLI > config > 默认 all
	stage := StageAll
	if cli.StageSet {
		stage = cli.Stage
	} else if strings.TrimSpace(fc.Stage) != "" {
		stage = fc.Stage
	}
	if err := ValidateStage(stage); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// charts：CLI > config > 默认 true
	charts := true
	if cli.ChartsSet {
		charts = cli.Charts
	} else if fc.Charts != nil {
		charts = *fc.Charts
	}

	multiplier := fc.BudgetMultiplier
	if multiplier == 0 {
		multiplier = DefaultMultiplier
	}
	if multiplier <= 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("budget_multiplier 必须为正，实际是 %v", multiplier)}
	}

	sourceURL := strings.TrimSpace(fc.SourceURL)
	if cli.SourceURLSet {
		sourceURL = strings.TrimSpace(cli.SourceURL)
	}
	if sourceURL != "" {
		u, err := url.Parse(sourceURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("source_url 无效：%q", sourceURL)}
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("source_url 必须是 http/https：%q", sourceURL)}
		}
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("proxy.url 无效：%w", err)}
		}
	}

	return EffectiveConfig{
		Path:             absPath,
		Stage:            stage,
		Charts:           charts,
		BudgetMultiplier: multiplier,
		BudgetCSV:        orDefault(fc.BudgetCSV, DefaultBudgetCSV),
		BudgetOutCSV:     orDefault(fc.BudgetOutCSV, DefaultBudgetOutCSV),
		BoxOfficeCSV:     orDefault(fc.BoxOfficeCSV, DefaultBoxOfficeCSV),
		BoxOfficeOutCSV:  orDefault(fc.BoxOfficeOutCSV, DefaultBoxOfficeOutCSV),
		ChartsDir:        orDefault(fc.ChartsDir, DefaultChartsDir),
		SourceURL:        sourceURL,
		ProxyURL:         proxyURL,
	}, nil
}

// ValidateStage 校验 --stage 的取值（budgets/boxoffice/compare/all）。
func ValidateStage(s string) error {
	switch s {
	case StageAll, "budgets", "boxoffice", "compare":
		return nil
	case "":
		return errors.New("stage 不能为空")
	default:
		return fmt.Errorf("stage 只能是 budgets、boxoffice、compare 或 all，实际是 %q", s)
	}
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
