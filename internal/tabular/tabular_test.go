package tabular

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/DevTexRanger/alien-franchise-data/internal/domain"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("写入测试文件失败：%v", err)
	}
}

func TestLoad_HeaderOrderAndValues(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "in.csv")
	writeFile(t, p, []byte("Film Title,Year,Box Office Revenue (USD)\nAlien,1979,\"~104,930,000\"\nAliens,1986,\"183,316,455\"\n"))

	records, err := Load(p)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(records) != 2 {
		t.Fatalf("期望 2 条记录，实际=%d", len(records))
	}

	wantFields := []string{"Film Title", "Year", "Box Office Revenue (USD)"}
	if got := records[0].Fields(); !reflect.DeepEqual(got, wantFields) {
		t.Fatalf("字段顺序错误：%v", got)
	}
	if records[0].Get("Box Office Revenue (USD)") != "~104,930,000" {
		t.Fatalf("带引号字段解析错误：%q", records[0].Get("Box Office Revenue (USD)"))
	}
	if records[1].Get("Film Title") != "Aliens" {
		t.Fatalf("期望 Aliens，实际=%q", records[1].Get("Film Title"))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	if !IsMissingInput(err) {
		t.Fatalf("期望 MissingInputError，实际：%T %v", err, err)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "empty.csv")
	writeFile(t, p, []byte(""))

	_, err := Load(p)
	if !IsEmptyInput(err) {
		t.Fatalf("期望 EmptyInputError，实际：%T %v", err, err)
	}
}

func TestLoad_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "header.csv")
	writeFile(t, p, []byte("Film Title,Year\n"))

	_, err := Load(p)
	if !IsEmptyInput(err) {
		t.Fatalf("期望 EmptyInputError，实际：%T %v", err, err)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out.csv")

	r := domain.NewRecord()
	r.Set(domain.FieldTitle, "Alien")
	r.Set(domain.FieldBudget, "11,000,000")
	// 追加的派生列必须排在原有列之后。
	r.Set(domain.FieldAdjustedBudget, "11285780")

	if err := Save(p, []*domain.Record{r}); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	back, err := Load(p)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(back) != 1 {
		t.Fatalf("期望 1 条记录，实际=%d", len(back))
	}

	wantFields := []string{domain.FieldTitle, domain.FieldBudget, domain.FieldAdjustedBudget}
	if got := back[0].Fields(); !reflect.DeepEqual(got, wantFields) {
		t.Fatalf("字段顺序经序列化后不一致：%v", got)
	}
	for _, f := range wantFields {
		if back[0].Get(f) != r.Get(f) {
			t.Fatalf("字段 %q 值不一致：写入=%q 读回=%q", f, r.Get(f), back[0].Get(f))
		}
	}
}

func TestSave_EmptyRecords(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "out.csv"), nil)
	if err == nil {
		t.Fatalf("期望失败，但得到 nil")
	}
}
