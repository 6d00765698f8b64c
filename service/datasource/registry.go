/*
 * @module service/datasource/registry
 * @description 样例数据生成器注册中心，按数据源类型查找生成器
 * @architecture 注册中心模式 - 统一管理各类型的样例数据生成器
 * @documentReference DESIGN.md
 * @stateFlow 注册内置类型 -> 创建数据源时按类型查找 -> 生成记录
 * @rules 未注册的类型不生成数据；类型名大小写不敏感
 * @dependencies sync
 * @refs sample_generator.go, service.go
 */

package datasource

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"watchtower-service/service/models"
)

// SampleGenerator 样例数据生成函数
type SampleGenerator func(rng *rand.Rand, count int, now time.Time) []models.JSONB

// GeneratorRegistry 样例数据生成器注册中心
type GeneratorRegistry struct {
	mu         sync.RWMutex
	generators map[string]SampleGenerator
}

// NewGeneratorRegistry 创建注册中心并注册内置类型
func NewGeneratorRegistry() *GeneratorRegistry {
	r := &GeneratorRegistry{generators: make(map[string]SampleGenerator)}
	r.Register("insurance", GenerateInsuranceClaims)
	r.Register("banking", GenerateBankingTransactions)
	return r
}

// Register 注册生成器，同名覆盖
func (r *GeneratorRegistry) Register(sourceType string, generator SampleGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[normalizeType(sourceType)] = generator
}

// Lookup 查找生成器
func (r *GeneratorRegistry) Lookup(sourceType string) (SampleGenerator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[normalizeType(sourceType)]
	return g, ok
}

// Types 返回已注册的类型
func (r *GeneratorRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.generators))
	for t := range r.generators {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func normalizeType(sourceType string) string {
	return strings.ToLower(strings.TrimSpace(sourceType))
}
