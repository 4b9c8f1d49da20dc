// Package chart 把核心产出的 (labels, values) 数据形态渲染为 HTML 图表。
//
// 依赖方向是单向的：核心（adjust）只产出 domain.Series/Comparison，
// 对渲染实现一无所知；本包是纯消费方。
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/DevTexRanger/alien-franchise-data/internal/domain"
	"github.com/DevTexRanger/alien-franchise-data/internal/infra/fsx"
)

// RenderLine 把单序列折线图写为 path 处的 HTML 文件（原子替换）。
func RenderLine(path, title string, s domain.Series) error {
	if len(s.Labels) != len(s.Values) {
		return fmt.Errorf("series 数据不平行：labels=%d values=%d", len(s.Labels), len(s.Values))
	}
	if len(s.Labels) == 0 {
		return errors.New("series 为空，没有可渲染的数据点")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: title}))

	data := make([]opts.LineData, 0, len(s.Values))
	for _, v := range s.Values {
		data = append(data, opts.LineData{Value: v})
	}
	line.SetXAxis(s.Labels).AddSeries(s.Name, data)

	return renderTo(path, line)
}

// RenderBars 把双柱对比图写为 path 处的 HTML 文件（原子替换）。
func RenderBars(path, title string, c domain.Comparison) error {
	if len(c.Labels) != len(c.A) || len(c.Labels) != len(c.B) {
		return fmt.Errorf("对比数据不平行：labels=%d A=%d B=%d", len(c.Labels), len(c.A), len(c.B))
	}
	if len(c.Labels) == 0 {
		return errors.New("对比数据为空，没有可渲染的数据点")
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: title}))

	a := make([]opts.BarData, 0, len(c.A))
	for _, v := range c.A {
		a = append(a, opts.BarData{Value: v})
	}
	b := make([]opts.BarData, 0, len(c.B))
	for _, v := range c.B {
		b = append(b, opts.BarData{Value: v})
	}
	bar.SetXAxis(c.Labels).AddSeries(c.NameA, a).AddSeries(c.NameB, b)

	return renderTo(path, bar)
}

type renderer interface {
	Render(w io.Writer) error
}

func renderTo(path string, r renderer) error {
	// 先渲染到内存，再原子落盘：渲染失败不触碰旧文件。
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return fmt.Errorf("渲染 %q 失败：%w", path, err)
	}
	if err := fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), buf.Bytes()); err != nil {
		return fmt.Errorf("写入 %q 失败：%w", path, err)
	}
	return nil
}
