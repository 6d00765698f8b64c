package distributed_lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const defaultPollInterval = 200 * time.Millisecond

// LockExecutor 带锁执行器，用于简化锁的使用
type LockExecutor struct {
	lock         DistributedLock
	pollInterval time.Duration
}

// NewLockExecutor 创建带锁执行器
func NewLockExecutor(lock DistributedLock) *LockExecutor {
	return &LockExecutor{lock: lock, pollInterval: defaultPollInterval}
}

// ExecuteWithLock 在锁保护下执行函数，锁被占用时直接跳过
func (e *LockExecutor) ExecuteWithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	locked, err := e.lock.TryLock(ctx, key, ttl)
	if err != nil {
		return fmt.Errorf("获取锁失败: %w", err)
	}
	if !locked {
		slog.Debug("分布式锁: 锁已被其他持有者占用，跳过执行", "key", key)
		return nil
	}
	defer e.release(key)

	return fn()
}

// ExecuteSerialized 等待获取锁后执行函数，执行期间按 ttl/3 自动续期。
// 同一 key 的调用因此串行执行
func (e *LockExecutor) ExecuteSerialized(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	if ttl <= 0 {
		return fmt.Errorf("无效的锁过期时间: %s", ttl)
	}
	if err := e.acquire(ctx, key, ttl); err != nil {
		return err
	}
	defer e.release(key)

	refreshCtx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()

	go func() {
		ticker := time.NewTicker(ttl / 3)
		defer ticker.Stop()

		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-ticker.C:
				if err := e.lock.Refresh(refreshCtx, key, ttl); err != nil {
					slog.Error("分布式锁: 续期失败", "key", key, "error", err)
				}
			}
		}
	}()

	return fn()
}

func (e *LockExecutor) acquire(ctx context.Context, key string, ttl time.Duration) error {
	for {
		locked, err := e.lock.TryLock(ctx, key, ttl)
		if err != nil {
			return fmt.Errorf("获取锁失败: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("等待锁 %s 超时: %w", key, ctx.Err())
		case <-time.After(e.pollInterval):
		}
	}
}

// release 使用独立上下文释放锁，调用方上下文取消后仍能释放
func (e *LockExecutor) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := e.lock.Unlock(ctx, key); err != nil {
		slog.Error("分布式锁: 释放锁失败", "key", key, "error", err)
	}
}
