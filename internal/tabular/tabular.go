// Package tabular 实现记录序列与带表头 CSV 文件之间的读写边界。
//
// 约束：
// - 读：整个文件一次读完再返回（无流式处理；后续调整阶段都在内存里做）
// - 写：先完整序列化，再经 fsx 原子替换落盘（失败不留半个文件）
// - 表头顺序 = 第一条记录的字段顺序（输入顺序 + 追加的派生列）
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/DevTexRanger/alien-franchise-data/internal/domain"
	"github.com/DevTexRanger/alien-franchise-data/internal/infra/fsx"
)

// MissingInputError 表示输入文件不存在。上层映射为 error_code=missing_input。
type MissingInputError struct {
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("输入文件不存在：%q", e.Path)
}

func IsMissingInput(err error) bool {
	var e *MissingInputError
	return errors.As(err, &e)
}

// EmptyInputError 表示文件为空，或只有表头、没有任何数据行。
// 显式报错，而不是静默产出空文件（error_code=empty_input）。
type EmptyInputError struct {
	Path string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("输入文件 %q 没有任何数据行", e.Path)
}

func IsEmptyInput(err error) bool {
	var e *EmptyInputError
	return errors.As(err, &e)
}

// Load 读取带表头的 CSV，每行变成一条 Record（字段顺序 = 表头顺序）。
func Load(path string) ([]*domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingInputError{Path: path}
		}
		return nil, fmt.Errorf("打开 %q 失败：%w", path, err)
	}
	defer f.Close()

	rd := csv.NewReader(f)
	header, err := rd.Read()
	if err == io.EOF {
		return nil, &EmptyInputError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("读取 %q 的表头失败：%w", path, err)
	}

	records := make([]*domain.Record, 0, 16)
	for {
		row, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析 %q 失败：%w", path, err)
		}
		r := domain.NewRecord()
		for i, h := range header {
			// csv.Reader 保证每行字段数与表头一致（FieldsPerRecord）。
			r.Set(h, row[i])
		}
		records = append(records, r)
	}
	if len(records) == 0 {
		return nil, &EmptyInputError{Path: path}
	}
	return records, nil
}

// Save 把记录序列写为 CSV：表头取第一条记录的字段顺序，
// 引号/转义交给 encoding/csv（RFC 4180）。
func Save(path string, records []*domain.Record) error {
	if len(records) == 0 {
		return errors.New("没有可写出的记录")
	}

	header := records[0].Fields()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("序列化 %q 失败：%w", path, err)
	}
	row := make([]string, len(header))
	for _, r := range records {
		for i, h := range header {
			row[i] = r.Get(h)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("序列化 %q 失败：%w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("序列化 %q 失败：%w", path, err)
	}

	if err := fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), buf.Bytes()); err != nil {
		return fmt.Errorf("写入 %q 失败：%w", path, err)
	}
	return nil
}
