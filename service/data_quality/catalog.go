/*
 * @module service/data_quality/catalog
 * @description 固定检查目录：通用检查（模式完整性、非空）与按类别选择的业务规则
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 类别 -> 检查定义列表 -> 逐条评估
 * @rules 检查定义是纯函数，不持有状态；样例最多保留5条；details 必含 total_records
 * @dependencies watchtower-service/service/models, github.com/spf13/cast
 * @refs quality_engine.go, category.go
 */

package data_quality

import (
	"math"
	"strconv"

	"watchtower-service/service/models"

	"github.com/spf13/cast"
)

// maxSamples 每个检查保留的违规样例上限
const maxSamples = 5

// balanceTolerance 余额一致性允许的误差
const balanceTolerance = 0.01

// debitTransactionTypes 扣减余额的交易类型
var debitTransactionTypes = map[string]bool{
	"withdrawal": true,
	"payment":    true,
	"transfer":   true,
}

// Verdict 单个检查的结论
type Verdict struct {
	Status  models.CheckStatus
	Details models.JSONB
}

// CheckDefinition 检查定义
type CheckDefinition struct {
	Name      string
	CheckType models.CheckType
	// Definition 生成描述性的规则参数，只依赖模式
	Definition func(schema Schema) models.JSONB
	// Evaluate 对批次执行检查
	Evaluate func(schema Schema, batch *RecordBatch) Verdict
}

// CheckCatalog 检查目录
type CheckCatalog struct {
	common []CheckDefinition
}

// NewCheckCatalog 创建检查目录
func NewCheckCatalog() *CheckCatalog {
	return &CheckCatalog{
		common: []CheckDefinition{schemaCompleteness, nonNullValidation},
	}
}

// ChecksFor 返回类别对应的完整检查列表：通用检查在前，业务规则在后
func (c *CheckCatalog) ChecksFor(category Category) []CheckDefinition {
	rules := category.BusinessRules()
	checks := make([]CheckDefinition, 0, len(c.common)+len(rules))
	checks = append(checks, c.common...)
	return append(checks, rules...)
}

var schemaCompleteness = CheckDefinition{
	Name:      "Schema Completeness",
	CheckType: models.CheckTypeSchema,
	Definition: func(schema Schema) models.JSONB {
		return models.JSONB{"type": "schema_validation", "expected_fields": schema.Fields()}
	},
	Evaluate: func(schema Schema, batch *RecordBatch) Verdict {
		violations := 0
		for i := 0; i < batch.Len(); i++ {
			if len(schema.Missing(batch.At(i))) > 0 {
				violations++
			}
		}
		return Verdict{
			Status: statusFor(violations > 0, models.CheckStatusFailed),
			Details: models.JSONB{
				"expected_fields":             schema.Fields(),
				"records_with_missing_fields": violations,
				"total_records":               batch.Len(),
			},
		}
	},
}

// nonNullValidation 空值只产生 warning，不阻断流水线
var nonNullValidation = CheckDefinition{
	Name:      "Non-Null Validation",
	CheckType: models.CheckTypeConstraint,
	Definition: func(schema Schema) models.JSONB {
		return models.JSONB{"type": "null_check", "fields": schema.Fields()}
	},
	Evaluate: func(schema Schema, batch *RecordBatch) Verdict {
		nullCounts := map[string]interface{}{}
		for _, field := range schema.Fields() {
			count := 0
			for i := 0; i < batch.Len(); i++ {
				if !batch.At(i).Present(field) {
					count++
				}
			}
			if count > 0 {
				nullCounts[field] = count
			}
		}
		return Verdict{
			Status: statusFor(len(nullCounts) > 0, models.CheckStatusWarning),
			Details: models.JSONB{
				"fields_with_nulls": nullCounts,
				"total_records":     batch.Len(),
			},
		}
	},
}

// claimWithinPolicyLimit 缺失 policy_limit 视为无上限
var claimWithinPolicyLimit = CheckDefinition{
	Name:      "Claim Amount <= Policy Limit",
	CheckType: models.CheckTypeBusinessRule,
	Definition: func(Schema) models.JSONB {
		return models.JSONB{"type": "business_rule", "rule": "claim_amount <= policy_limit"}
	},
	Evaluate: func(_ Schema, batch *RecordBatch) Verdict {
		violations := 0
		samples := make([]interface{}, 0, maxSamples)
		for i := 0; i < batch.Len(); i++ {
			record := batch.At(i)
			limit, bounded := record.Number("policy_limit")
			if !bounded || record.NumberOr("claim_amount", 0) <= limit {
				continue
			}
			violations++
			if len(samples) < maxSamples {
				samples = append(samples, map[string]interface{}{
					"record_index": i,
					"claim_id":     record["claim_id"],
					"claim_amount": record["claim_amount"],
					"policy_limit": record["policy_limit"],
				})
			}
		}
		return Verdict{
			Status: statusFor(violations > 0, models.CheckStatusFailed),
			Details: models.JSONB{
				"violations_count":  violations,
				"sample_violations": samples,
				"total_records":     batch.Len(),
			},
		}
	},
}

// uniqueClaimIDs 缺失的 claim_id 按 null 计入，多个 null 互为重复
var uniqueClaimIDs = CheckDefinition{
	Name:      "Unique Claim IDs",
	CheckType: models.CheckTypeConstraint,
	Definition: func(Schema) models.JSONB {
		return models.JSONB{"type": "uniqueness_check", "field": "claim_id"}
	},
	Evaluate: func(_ Schema, batch *RecordBatch) Verdict {
		distinct := make(map[string]struct{}, batch.Len())
		for i := 0; i < batch.Len(); i++ {
			distinct[identityKey(batch.At(i)["claim_id"])] = struct{}{}
		}
		duplicates := batch.Len() - len(distinct)
		return Verdict{
			Status: statusFor(duplicates > 0, models.CheckStatusFailed),
			Details: models.JSONB{
				"duplicate_count": duplicates,
				"total_records":   batch.Len(),
			},
		}
	},
}

var nonNegativeAmount = CheckDefinition{
	Name:      "Positive Transaction Amount",
	CheckType: models.CheckTypeConstraint,
	Definition: func(Schema) models.JSONB {
		return models.JSONB{"type": "range_check", "field": "amount", "min": 0}
	},
	Evaluate: func(_ Schema, batch *RecordBatch) Verdict {
		negatives := 0
		samples := make([]interface{}, 0, maxSamples)
		for i := 0; i < batch.Len(); i++ {
			record := batch.At(i)
			if record.NumberOr("amount", 0) >= 0 {
				continue
			}
			negatives++
			if len(samples) < maxSamples {
				samples = append(samples, map[string]interface{}{
					"transaction_id": record["transaction_id"],
					"amount":         record["amount"],
				})
			}
		}
		return Verdict{
			Status: statusFor(negatives > 0, models.CheckStatusFailed),
			Details: models.JSONB{
				"negative_amount_count": negatives,
				"sample_violations":     samples,
				"total_records":         batch.Len(),
			},
		}
	},
}

// balanceConsistency 余额漂移视为质量信号，只产生 warning
var balanceConsistency = CheckDefinition{
	Name:      "Balance Consistency",
	CheckType: models.CheckTypeBusinessRule,
	Definition: func(Schema) models.JSONB {
		return models.JSONB{"type": "business_rule", "rule": "balance_after = balance_before +/- amount"}
	},
	Evaluate: func(_ Schema, batch *RecordBatch) Verdict {
		inconsistent := 0
		sampleIDs := make([]interface{}, 0, maxSamples)
		for i := 0; i < batch.Len(); i++ {
			record := batch.At(i)
			if math.Abs(record.NumberOr("balance_after", 0)-expectedBalance(record)) <= balanceTolerance {
				continue
			}
			inconsistent++
			if len(sampleIDs) < maxSamples {
				sampleIDs = append(sampleIDs, record["transaction_id"])
			}
		}
		return Verdict{
			Status: statusFor(inconsistent > 0, models.CheckStatusWarning),
			Details: models.JSONB{
				"inconsistent_count": inconsistent,
				"sample_ids":         sampleIDs,
				"total_records":      batch.Len(),
			},
		}
	},
}

// expectedBalance 根据交易类型推算交易后余额
func expectedBalance(record Record) float64 {
	before := record.NumberOr("balance_before", 0)
	amount := math.Abs(record.NumberOr("amount", 0))
	txType, _ := record["transaction_type"].(string)
	if debitTransactionTypes[txType] {
		return before - amount
	}
	return before + amount
}

// statusFor 命中时返回给定结论，否则 passed
func statusFor(violated bool, onViolation models.CheckStatus) models.CheckStatus {
	if violated {
		return onViolation
	}
	return models.CheckStatusPassed
}

// identityKey 归一化标识值用于去重：数值按数值比较，null 为同一个键
func identityKey(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return "s:" + x
	case bool:
		return "b:" + strconv.FormatBool(x)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "n:" + strconv.FormatFloat(cast.ToFloat64(x), 'g', -1, 64)
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	return "v:" + cast.ToString(v)
}
