package domain

// 字段名是数据集的部署约定（和参考 CSV 的表头一一对应），不是算法的一部分。
// 集中定义以避免各处散落字符串字面量。
const (
	FieldTitle            = "Film Title"
	FieldYear             = "Year"
	FieldBudget           = "Estimated Budget (in USD)"
	FieldRevenue          = "Box Office Revenue (USD)"
	FieldProductionBudget = "Production Budget (USD)"
	FieldProfit           = "Estimated Profit (USD)"

	FieldAdjustedBudget  = "Adjusted Budget (2025 USD)"
	FieldAdjustedRevenue = "Adjusted Box Office Revenue (2025 USD)"
)

// UnknownMarker 是容忍模式下“金额无法解析”的显式输出标记。
const UnknownMarker = "Unknown"

// Record 表示一行表格数据：字段名保持首次写入的顺序（即表头顺序），
// 值一律是字符串——和 CSV 边界保持一致，数字解析延迟到真正需要的地方。
//
// 约束：
// - Set 已有字段只更新值，不改变顺序
// - Set 新字段追加到末尾（“新列只追加、不插入”的输出契约依赖该行为）
type Record struct {
	fields []string
	values map[string]string
}

func NewRecord() *Record {
	return &Record{
		fields: make([]string, 0, 8),
		values: make(map[string]string, 8),
	}
}

func (r *Record) Get(field string) string {
	return r.values[field]
}

func (r *Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

func (r *Record) Set(field, value string) {
	if _, ok := r.values[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.values[field] = value
}

// Fields 返回字段名的拷贝（调用方可自由修改返回值）。
func (r *Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

func (r *Record) Len() int { return len(r.fields) }

// Clone 返回独立副本。调整流程对副本做 write-once 派生，原始记录不被修改。
func (r *Record) Clone() *Record {
	nr := &Record{
		fields: make([]string, len(r.fields)),
		values: make(map[string]string, len(r.values)),
	}
	copy(nr.fields, r.fields)
	for k, v := range r.values {
		nr.values[k] = v
	}
	return nr
}
