package fsx

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 通过可替换的函数指针，让测试能稳定模拟 rename 失败。
var renameFunc = os.Rename

// WriteFileAtomicReplace 在 dir 下原子写入 name（临时文件 + rename），
// 目标已存在则覆盖。
//
// 所有对外产物（调整后 CSV、图表 HTML、report.json）都走这里：
// 序列化中途失败时，磁盘上要么是旧文件、要么什么都没有，绝不出现半个文件。
//
// - 临时文件必须与目标文件在同目录，以保证 rename 的原子性
// - 临时文件做 Sync；目录 Sync 采用 best-effort（平台差异大，失败不报错）
func WriteFileAtomicReplace(dir, name string, data []byte) error {
	return writeFileAtomic(dir, name, data, 0o644)
}

func writeFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 同目录临时文件（前缀带 '.'，避免中间态出现在用户的数据目录视图里）。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// rename 原子替换到最终文件名。
	if err := renameFunc(tmpName, dst); err != nil {
		return err
	}

	_ = syncDirBestEffort(dir)

	// rename 成功后，不应删除最终文件。
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	// Windows 上目录 Sync 的语义与支持情况不稳定，这里直接跳过。
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
