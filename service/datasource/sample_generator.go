package datasource

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"watchtower-service/service/models"
)

var (
	claimTypes          = []string{"auto", "home", "health", "life", "liability"}
	claimStatuses       = []string{"pending", "approved", "rejected", "under_review"}
	regions             = []string{"North", "South", "East", "West", "Central"}
	transactionTypes    = []string{"deposit", "withdrawal", "transfer", "payment", "refund"}
	debitTypes          = map[string]bool{"withdrawal": true, "payment": true, "transfer": true}
	channels            = []string{"online", "mobile", "branch", "atm"}
	currencies          = []string{"USD", "EUR", "GBP"}
	merchantCategories  = []string{"retail", "food", "utilities", "entertainment", "healthcare"}
	riskLevels          = []string{"low", "medium", "high"}
	nullAgentRate       = 0.05
	negativeAmountRate  = 0.02
	flaggedTransactRate = 0.03
)

// randInt 返回 [lo, hi] 区间内的随机整数
func randInt(rng *rand.Rand, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + rng.Intn(hi-lo+1)
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func shortID(rng *rand.Rand) string {
	return fmt.Sprintf("%08X", rng.Uint32())
}

// GenerateInsuranceClaims 生成保险理赔样例数据。
// 理赔金额上限在保单限额附近浮动，部分记录会超限；约 5% 的记录 agent_id 为空
func GenerateInsuranceClaims(rng *rand.Rand, count int, now time.Time) []models.JSONB {
	records := make([]models.JSONB, 0, count)
	for i := 0; i < count; i++ {
		policyLimit := randInt(rng, 10000, 500000)
		claimAmount := randInt(rng, 500, policyLimit+randInt(rng, -5000, 20000))

		record := models.JSONB{
			"claim_id":      "CLM-" + shortID(rng),
			"policy_id":     fmt.Sprintf("POL-%d", randInt(rng, 100000, 999999)),
			"policy_holder": fmt.Sprintf("Customer_%d", randInt(rng, 1000, 9999)),
			"claim_type":    pick(rng, claimTypes),
			"claim_amount":  claimAmount,
			"policy_limit":  policyLimit,
			"claim_date":    now.AddDate(0, 0, -randInt(rng, 1, 365)).UTC().Format(time.RFC3339),
			"status":        pick(rng, claimStatuses),
			"deductible":    randInt(rng, 500, 5000),
			"agent_id":      fmt.Sprintf("AGT-%d", randInt(rng, 100, 999)),
			"region":        pick(rng, regions),
			"risk_score":    math.Round((0.1+rng.Float64()*0.9)*100) / 100,
		}
		if rng.Float64() < nullAgentRate {
			record["agent_id"] = nil
		}
		records = append(records, record)
	}
	return records
}

// GenerateBankingTransactions 生成银行交易样例数据，约 2% 的记录金额为负
func GenerateBankingTransactions(rng *rand.Rand, count int, now time.Time) []models.JSONB {
	records := make([]models.JSONB, 0, count)
	for i := 0; i < count; i++ {
		balanceBefore := randInt(rng, 1000, 100000)
		amount := randInt(rng, 10, 50000)
		txType := pick(rng, transactionTypes)

		balanceAfter := balanceBefore + amount
		if debitTypes[txType] {
			balanceAfter = balanceBefore - amount
		}

		record := models.JSONB{
			"transaction_id":    "TXN-" + shortID(rng),
			"account_id":        fmt.Sprintf("ACC-%d", randInt(rng, 100000, 999999)),
			"customer_id":       fmt.Sprintf("CUST-%d", randInt(rng, 10000, 99999)),
			"transaction_type":  txType,
			"amount":            amount,
			"currency":          pick(rng, currencies),
			"balance_before":    balanceBefore,
			"balance_after":     balanceAfter,
			"transaction_date":  now.AddDate(0, 0, -randInt(rng, 0, 90)).UTC().Format(time.RFC3339),
			"channel":           pick(rng, channels),
			"merchant_category": pick(rng, merchantCategories),
			"is_flagged":        rng.Float64() < flaggedTransactRate,
			"risk_level":        pick(rng, riskLevels),
		}
		if rng.Float64() < negativeAmountRate {
			record["amount"] = -amount
		}
		records = append(records, record)
	}
	return records
}
