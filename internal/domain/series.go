package domain

// Series 是单序列折线图需要的数据形态：labels 与 values 平行、等长。
// 核心流程只负责产出该形态，不依赖任何渲染实现。
type Series struct {
	Name   string
	Labels []string
	Values []int64
}

// Comparison 是双柱对比图需要的数据形态：labels 与两组 values 平行、等长，
// NameA/NameB 是两组柱子的图例名。
type Comparison struct {
	Labels []string

	NameA string
	A     []int64

	NameB string
	B     []int64
}
