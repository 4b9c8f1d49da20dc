package domain

import "testing"

func TestRecord_SetKeepsFieldOrder(t *testing.T) {
	r := NewRecord()
	r.Set(FieldTitle, "Alien")
	r.Set(FieldYear, "1979")
	r.Set(FieldRevenue, "104,930,000")

	// 更新已有字段不改变顺序。
	r.Set(FieldYear, "1986")
	// 新字段追加到末尾。
	r.Set(FieldAdjustedRevenue, "461200041")

	want := []string{FieldTitle, FieldYear, FieldRevenue, FieldAdjustedRevenue}
	got := r.Fields()
	if len(got) != len(want) {
		t.Fatalf("期望 %d 个字段，实际=%v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("期望字段顺序 %v，实际=%v", want, got)
		}
	}
	if r.Get(FieldYear) != "1986" {
		t.Fatalf("期望更新后的值 %q，实际=%q", "1986", r.Get(FieldYear))
	}
}

func TestRecord_FieldsReturnsCopy(t *testing.T) {
	r := NewRecord()
	r.Set(FieldTitle, "Alien")

	fs := r.Fields()
	fs[0] = "mutated"
	if got := r.Fields()[0]; got != FieldTitle {
		t.Fatalf("Fields 应返回拷贝，实际被改为 %q", got)
	}
}

func TestRecord_CloneIsIndependent(t *testing.T) {
	r := NewRecord()
	r.Set(FieldTitle, "Alien")
	r.Set(FieldBudget, "11,000,000")

	c := r.Clone()
	c.Set(FieldBudget, "0")
	c.Set(FieldAdjustedBudget, "11285780")

	if r.Get(FieldBudget) != "11,000,000" {
		t.Fatalf("原记录不应被修改，实际=%q", r.Get(FieldBudget))
	}
	if r.Has(FieldAdjustedBudget) {
		t.Fatalf("原记录不应出现新字段")
	}
	if c.Len() != 3 || r.Len() != 2 {
		t.Fatalf("期望 clone=3 原=2，实际 clone=%d 原=%d", c.Len(), r.Len())
	}
}
