/*
 * @module service/data_quality/record_batch
 * @description 记录批次与模式发现，为规则评估提供不可变的数据视图
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 原始记录 -> 批次构造(拷贝) -> 模式发现 -> 规则评估
 * @rules 批次构造后不可修改；期望模式仅来自第一条记录，字段名排序以保证结果可复现
 * @dependencies github.com/spf13/cast
 * @refs quality_engine.go, catalog.go
 */

package data_quality

import (
	"maps"
	"sort"

	"github.com/spf13/cast"
)

// Record 单条记录，字段名到标量值的映射
type Record map[string]interface{}

// Present 字段存在且不为 null
func (r Record) Present(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// Number 读取数值字段；缺失、null 或无法转换为数值时 ok 为 false
func (r Record) Number(field string) (float64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// NumberOr 读取数值字段，不可用时返回默认值
func (r Record) NumberOr(field string, def float64) float64 {
	if f, ok := r.Number(field); ok {
		return f
	}
	return def
}

// RecordBatch 记录批次，构造时拷贝输入，之后只读
type RecordBatch struct {
	records  []Record
	category Category
}

// NewRecordBatch 创建记录批次
func NewRecordBatch(records []Record, category Category) *RecordBatch {
	copied := make([]Record, len(records))
	for i, r := range records {
		copied[i] = maps.Clone(r)
		if copied[i] == nil {
			copied[i] = Record{}
		}
	}
	return &RecordBatch{records: copied, category: category}
}

// Len 记录数
func (b *RecordBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.records)
}

// At 返回第 i 条记录，调用方不得修改
func (b *RecordBatch) At(i int) Record {
	return b.records[i]
}

// Category 批次声明的数据源类别
func (b *RecordBatch) Category() Category {
	return b.category
}

// Schema 发现的模式：第一条记录的字段集合（排序后）
type Schema struct {
	fields []string
}

// DiscoverSchema 从批次第一条记录推导期望模式，空批次返回空模式
func DiscoverSchema(b *RecordBatch) Schema {
	if b.Len() == 0 {
		return Schema{}
	}
	first := b.At(0)
	fields := make([]string, 0, len(first))
	for field := range first {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return Schema{fields: fields}
}

// Fields 期望字段列表（副本）
func (s Schema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len 期望字段数
func (s Schema) Len() int {
	return len(s.fields)
}

// Missing 返回记录缺少的期望字段
func (s Schema) Missing(r Record) []string {
	var missing []string
	for _, field := range s.fields {
		if _, ok := r[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}
