/*
 * @module service/datasource/service
 * @description 数据源管理服务，负责创建、上传、查询数据源并提交质量流水线任务
 * @architecture 分层架构 - 业务服务层
 * @documentReference DESIGN.md
 * @stateFlow 创建/上传 -> 持久化记录 -> 提交编排任务 -> 后台执行质量检查
 * @rules 所有查询按归属范围隔离；任务提交失败只记录日志，不影响创建结果
 * @dependencies gorm.io/gorm, service/pipeline
 * @refs registry.go, upload_parser.go, service/pipeline/runner.go
 */

package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"watchtower-service/service/models"
	"watchtower-service/service/pipeline"
)

const (
	// DefaultPreviewLimit 数据预览默认条数
	DefaultPreviewLimit = 50
	// DefaultUploadName 上传未指定名称时的默认名称
	DefaultUploadName = "Uploaded Dataset"
	customSourceType  = "custom"
)

var (
	// ErrNotFound 数据源不存在或不属于当前用户
	ErrNotFound = errors.New("Data source not found")
	// ErrInvalidInput 请求参数不合法
	ErrInvalidInput = errors.New("数据源参数不合法")
)

// CreateInput 创建数据源请求
type CreateInput struct {
	Name        string  `json:"name"`
	SourceType  string  `json:"source_type"`
	Description *string `json:"description"`
}

// Service 数据源服务
type Service struct {
	db          *gorm.DB
	queue       pipeline.TaskQueue
	generators  *GeneratorRegistry
	sampleCount int

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// Option 服务选项
type Option func(*Service)

// WithSeed 固定样例数据随机种子
func WithSeed(seed int64) Option {
	return func(s *Service) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithSampleCount 设置样例记录条数
func WithSampleCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sampleCount = n
		}
	}
}

// WithGenerators 替换生成器注册中心
func WithGenerators(r *GeneratorRegistry) Option {
	return func(s *Service) { s.generators = r }
}

// NewService 创建数据源服务
func NewService(db *gorm.DB, queue pipeline.TaskQueue, opts ...Option) *Service {
	s := &Service{
		db:          db,
		queue:       queue,
		generators:  NewGeneratorRegistry(),
		sampleCount: 100,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create 创建数据源，已注册类型生成样例数据
func (s *Service) Create(ctx context.Context, ownerScope string, input CreateInput) (*models.DataSource, error) {
	name := strings.TrimSpace(input.Name)
	sourceType := strings.ToLower(strings.TrimSpace(input.SourceType))
	if name == "" || sourceType == "" {
		return nil, fmt.Errorf("%w: name 与 source_type 不能为空", ErrInvalidInput)
	}

	var records models.JSONBArray
	if generate, ok := s.generators.Lookup(sourceType); ok {
		s.rngMu.Lock()
		records = generate(s.rng, s.sampleCount, s.now())
		s.rngMu.Unlock()
	}

	source := &models.DataSource{
		Name:        name,
		SourceType:  sourceType,
		Description: input.Description,
		RecordCount: len(records),
		Data:        records,
		OwnerID:     ownerScope,
	}
	if err := s.db.WithContext(ctx).Create(source).Error; err != nil {
		return nil, fmt.Errorf("创建数据源失败: %w", err)
	}

	slog.Info("数据源已创建", "source_id", source.ID, "source_type", sourceType, "record_count", source.RecordCount)
	s.enqueue(ctx, source, false, pipeline.TriggerCreate)
	return source, nil
}

// Upload 解析上传文件并创建 custom 类型数据源
func (s *Service) Upload(ctx context.Context, ownerScope, name, filename string, content []byte, charset string) (*models.DataSource, error) {
	records, err := ParseUpload(filename, content, charset)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultUploadName
	}

	description := fmt.Sprintf("Uploaded from %s", filename)
	source := &models.DataSource{
		Name:        name,
		SourceType:  customSourceType,
		Description: &description,
		RecordCount: len(records),
		Data:        records,
		OwnerID:     ownerScope,
	}
	if err := s.db.WithContext(ctx).Create(source).Error; err != nil {
		return nil, fmt.Errorf("保存上传数据源失败: %w", err)
	}

	slog.Info("上传数据源已创建", "source_id", source.ID, "file", filename, "record_count", source.RecordCount)
	s.enqueue(ctx, source, false, pipeline.TriggerUpload)
	return source, nil
}

// List 列出当前归属范围的数据源，最新的在前
func (s *Service) List(ctx context.Context, ownerScope string) ([]models.DataSource, error) {
	var sources []models.DataSource
	err := s.db.WithContext(ctx).
		Omit("data").
		Where("owner_id = ?", ownerScope).
		Order("created_at DESC").
		Find(&sources).Error
	if err != nil {
		return nil, fmt.Errorf("查询数据源列表失败: %w", err)
	}
	return sources, nil
}

// Get 获取数据源（含记录）
func (s *Service) Get(ctx context.Context, ownerScope, id string) (*models.DataSource, error) {
	var source models.DataSource
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerScope).
		First(&source).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询数据源失败: %w", err)
	}
	return &source, nil
}

// Records 预览数据源记录，返回前 limit 条与总数
func (s *Service) Records(ctx context.Context, ownerScope, id string, limit int) ([]models.JSONB, int, error) {
	source, err := s.Get(ctx, ownerScope, id)
	if err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	total := len(source.Data)
	if limit > total {
		limit = total
	}
	records := make([]models.JSONB, limit)
	copy(records, source.Data[:limit])
	return records, total, nil
}

// Rerun 重新执行数据源的质量流水线，历史检查结果在任务内作废
func (s *Service) Rerun(ctx context.Context, ownerScope, id string) error {
	var source models.DataSource
	err := s.db.WithContext(ctx).
		Select("id", "owner_id").
		Where("id = ? AND owner_id = ?", id, ownerScope).
		First(&source).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("查询数据源失败: %w", err)
	}

	if err := s.queue.Enqueue(ctx, s.newTask(&source, true, pipeline.TriggerRerun)); err != nil {
		return fmt.Errorf("提交重跑任务失败: %w", err)
	}
	slog.Info("已提交重跑任务", "source_id", id)
	return nil
}

func (s *Service) enqueue(ctx context.Context, source *models.DataSource, invalidate bool, trigger string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, s.newTask(source, invalidate, trigger)); err != nil {
		slog.Error("提交质量流水线任务失败", "source_id", source.ID, "trigger", trigger, "error", err)
	}
}

func (s *Service) newTask(source *models.DataSource, invalidate bool, trigger string) pipeline.Task {
	return pipeline.Task{
		DataSourceID:    source.ID,
		OwnerID:         source.OwnerID,
		InvalidatePrior: invalidate,
		Trigger:         trigger,
		EnqueuedAt:      s.now(),
	}
}
