package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DevTexRanger/alien-franchise-data/internal/app/run"
	"github.com/DevTexRanger/alien-franchise-data/internal/config"
	"github.com/DevTexRanger/alien-franchise-data/internal/domain"
	"github.com/DevTexRanger/alien-franchise-data/internal/infra/fsx"
	"github.com/DevTexRanger/alien-franchise-data/internal/provider"
	"github.com/DevTexRanger/alien-franchise-data/internal/provider/wikitable"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	case "fetch":
		if code := fetchCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Path:      ra.Path,
		Stage:     ra.Stage,
		StageSet:  ra.StageSet,
		Charts:    ra.Charts,
		ChartsSet: ra.ChartsSet,
	})
	if err != nil {
		emitReport(reportForConfigError(cwdAbs, err))
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := run.ExecuteWithObserver(eff, obs)

	if err := writeReportFile(eff.Path, rr); err != nil {
		fmt.Fprintf(os.Stderr, "写入 report.json 失败：%v\n", err)
		emitReport(rr)
		return 1
	}

	emitReport(rr)
	if interactive {
		emitLocations(progressW, eff)
	}
	if rr.Summary.Failed == 0 {
		return 0
	}
	return 1
}

func fetchCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printFetchUsage()
			return 0
		}
	}

	fa, err := parseFetchArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printFetchUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Path:         fa.Path,
		SourceURL:    fa.URL,
		SourceURLSet: fa.URLSet,
	})
	if err != nil {
		emitReport(reportForConfigError(cwdAbs, err))
		return 1
	}

	reg, e := provider.NewRegistry(wikitable.Provider{})
	if e != nil {
		fmt.Fprintf(os.Stderr, "初始化 provider registry 失败：%v\n", e)
		return 1
	}

	rr := run.ExecuteFetch(context.Background(), eff, reg, "wikitable")

	emitReport(rr)
	if rr.Summary.Failed == 0 {
		return 0
	}
	return 1
}

type runArgs struct {
	Path string

	Stage    string
	StageSet bool

	Charts    bool
	ChartsSet bool
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--stage":
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("--stage 需要一个值")
			}
			i++
			ra.Stage = args[i]
			ra.StageSet = true
		case strings.HasPrefix(a, "--stage="):
			ra.Stage = strings.TrimPrefix(a, "--stage=")
			ra.StageSet = true
		case a == "--charts":
			ra.Charts = true
			ra.ChartsSet = true
		case strings.HasPrefix(a, "--charts="):
			v := strings.TrimPrefix(a, "--charts=")
			switch v {
			case "true":
				ra.Charts = true
			case "false":
				ra.Charts = false
			default:
				return runArgs{}, fmt.Errorf("--charts 只能是 true 或 false，实际是 %q", v)
			}
			ra.ChartsSet = true
		case strings.HasPrefix(a, "-"):
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ra.Path != "" {
				return runArgs{}, fmt.Errorf("重复的 path：%q 与 %q", ra.Path, a)
			}
			ra.Path = a
		}
	}

	if ra.StageSet {
		if err := config.ValidateStage(ra.Stage); err != nil {
			return runArgs{}, err
		}
	}

	return ra, nil
}

type fetchArgs struct {
	Path string

	URL    string
	URLSet bool
}

func parseFetchArgs(args []string) (fetchArgs, error) {
	fa := fetchArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--url":
			if i+1 >= len(args) {
				return fetchArgs{}, fmt.Errorf("--url 需要一个值")
			}
			i++
			fa.URL = args[i]
			fa.URLSet = true
		case strings.HasPrefix(a, "--url="):
			fa.URL = strings.TrimPrefix(a, "--url=")
			fa.URLSet = true
		case strings.HasPrefix(a, "-"):
			return fetchArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if fa.Path != "" {
				return fetchArgs{}, fmt.Errorf("重复的 path：%q 与 %q", fa.Path, a)
			}
			fa.Path = a
		}
	}

	if fa.URLSet && strings.TrimSpace(fa.URL) == "" {
		return fetchArgs{}, fmt.Errorf("--url 不能为空")
	}

	return fa, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  franchise run [path] [--stage budgets|boxoffice|compare|all] [--charts[=true|false]]
  franchise fetch [path] [--url <page>]

命令：
  run    读取 CSV、做通胀调整并写出结果与图表
  fetch  抓取 source_url 的影片财务表格，写为票房输入 CSV

使用 "franchise run --help" / "franchise fetch --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  franchise run [path] [--stage budgets|boxoffice|compare|all] [--charts[=true|false]]

参数：
  --stage     只执行指定阶段（默认 all，依次执行 budgets、boxoffice、compare）
  --charts    是否渲染图表（默认 true）；支持 --charts=false 覆盖配置中的 charts=true
  -h, --help  显示帮助
`)
}

func printFetchUsage() {
	fmt.Fprint(os.Stdout, `用法：
  franchise fetch [path] [--url <page>]

参数：
  --url       抓取页面（http/https）；未指定则读配置文件中的 source_url
  -h, --help  显示帮助
`)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：processed=%d skipped=%d failed=%d records=%d unknown=%d\n",
			rr.Summary.Processed, rr.Summary.Skipped, rr.Summary.Failed, rr.Summary.Records, rr.Summary.Unknown,
		)
		if rr.Summary.Failed > 0 {
			for _, s := range rr.Stages {
				if s.Status != domain.StatusFailed {
					continue
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", s.Stage, s.ErrorCode, s.ErrorMsg)
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：processed=%d skipped=%d failed=%d records=%d unknown=%d\n",
		rr.Summary.Processed, rr.Summary.Skipped, rr.Summary.Failed, rr.Summary.Records, rr.Summary.Unknown,
	)
}

func reportForConfigError(cwdAbs string, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		Path:       cwdAbs,
		StartedAt:  now,
		FinishedAt: now,
		Stages: []domain.StageResult{{
			Stage:     "config",
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
			Outputs:   []string{},
		}},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(root string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(root, "report.json", b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	// 这两行用于降低“完成后不知道产物在哪”的摩擦，且不影响 stdout JSON 契约。
	if w == nil {
		return
	}
	fmt.Fprintf(w, "report: %s\n", filepath.Join(eff.Path, "report.json"))
	if eff.Charts {
		fmt.Fprintf(w, "charts: %s\n", filepath.Join(eff.Path, eff.ChartsDir))
	}
}
