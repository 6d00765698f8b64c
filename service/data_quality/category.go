package data_quality

import "strings"

// Category 数据源类别，每个类别携带自己的业务规则列表
type Category int

const (
	// CategoryUnrecognized 未识别的类别：不报错，只执行通用检查
	CategoryUnrecognized Category = iota
	CategoryInsurance
	CategoryBanking
	CategoryCustom
)

// ParseCategory 解析类别字符串，未知取值映射为 CategoryUnrecognized
func ParseCategory(raw string) Category {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "insurance":
		return CategoryInsurance
	case "banking":
		return CategoryBanking
	case "custom":
		return CategoryCustom
	}
	return CategoryUnrecognized
}

func (c Category) String() string {
	switch c {
	case CategoryInsurance:
		return "insurance"
	case CategoryBanking:
		return "banking"
	case CategoryCustom:
		return "custom"
	case CategoryUnrecognized:
		return "unrecognized"
	}
	return "unrecognized"
}

// BusinessRules 类别专属的业务规则
func (c Category) BusinessRules() []CheckDefinition {
	switch c {
	case CategoryInsurance:
		return []CheckDefinition{claimWithinPolicyLimit, uniqueClaimIDs}
	case CategoryBanking:
		return []CheckDefinition{nonNegativeAmount, balanceConsistency}
	case CategoryCustom, CategoryUnrecognized:
		return nil
	}
	return nil
}
