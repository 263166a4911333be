package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/to404hanga/online_judge_duel/entity"
	"gorm.io/gorm"
)

// DuelPatch 状态迁移时随 status 一起写入的字段
type DuelPatch struct {
	Status    entity.DuelStatus
	User2ID   *uint64
	StartedAt *time.Time
	EndedAt   *time.Time
	UpdatedAt time.Time
}

type DuelRepository interface {
	// Get 按 id 获取对战
	Get(ctx context.Context, id string) (*entity.Duel, error)
	// Insert 插入一条 pending 对战
	Insert(ctx context.Context, duel *entity.Duel) error
	// CompareAndSwapStatus 仅当当前状态等于 expected 时写入 patch, 是修改 status 的唯一入口
	CompareAndSwapStatus(ctx context.Context, id string, expected entity.DuelStatus, patch DuelPatch) error
	// ListOverdueIDs 查询已到截止时间仍处于 active 的对战
	ListOverdueIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
	// ListStalePendingIDs 查询创建时间早于 before 仍无人加入的对战
	ListStalePendingIDs(ctx context.Context, before time.Time, limit int) ([]string, error)
	// ListByUser 查询用户参与的对战, 按创建时间倒序
	ListByUser(ctx context.Context, userID uint64, page, pageSize int) ([]entity.Duel, int64, error)
}

type DuelRepositoryImpl struct {
	db *gorm.DB
}

var _ DuelRepository = (*DuelRepositoryImpl)(nil)

func NewDuelRepository(db *gorm.DB) DuelRepository {
	return &DuelRepositoryImpl{db: db}
}

func (r *DuelRepositoryImpl) Get(ctx context.Context, id string) (*entity.Duel, error) {
	var duel entity.Duel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&duel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get duel failed at select: %w", err)
	}
	return &duel, nil
}

func (r *DuelRepositoryImpl) Insert(ctx context.Context, duel *entity.Duel) error {
	if duel.Status != entity.DuelStatusPending || duel.User2ID != nil {
		return fmt.Errorf("Insert duel failed: new duel must be pending without opponent")
	}
	if err := r.db.WithContext(ctx).Create(duel).Error; err != nil {
		return fmt.Errorf("Insert duel failed at create: %w", err)
	}
	return nil
}

func (r *DuelRepositoryImpl) CompareAndSwapStatus(ctx context.Context, id string, expected entity.DuelStatus, patch DuelPatch) error {
	if !expected.CanTransitionTo(patch.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, expected, patch.Status)
	}

	updates := map[string]any{
		"status":     patch.Status,
		"updated_at": patch.UpdatedAt,
	}
	if patch.User2ID != nil {
		updates["user2_id"] = *patch.User2ID
	}
	if patch.StartedAt != nil {
		updates["started_at"] = *patch.StartedAt
	}
	if patch.EndedAt != nil {
		updates["ended_at"] = *patch.EndedAt
	}

	res := r.db.WithContext(ctx).Model(&entity.Duel{}).
		Where("id = ?", id).
		Where("status = ?", expected).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("CompareAndSwapStatus failed at update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStoreConflict
	}
	return nil
}

func (r *DuelRepositoryImpl) ListOverdueIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&entity.Duel{}).
		Where("status = ?", entity.DuelStatusActive).
		Where("ended_at <= ?", now).
		Order("ended_at asc").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("ListOverdueIDs failed at select: %w", err)
	}
	return ids, nil
}

func (r *DuelRepositoryImpl) ListStalePendingIDs(ctx context.Context, before time.Time, limit int) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&entity.Duel{}).
		Where("status = ?", entity.DuelStatusPending).
		Where("created_at < ?", before).
		Order("created_at asc").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("ListStalePendingIDs failed at select: %w", err)
	}
	return ids, nil
}

func (r *DuelRepositoryImpl) ListByUser(ctx context.Context, userID uint64, page, pageSize int) ([]entity.Duel, int64, error) {
	query := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&entity.Duel{}).
			Where("user1_id = ? OR user2_id = ?", userID, userID)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("ListByUser failed at count: %w", err)
	}

	duels := make([]entity.Duel, 0, pageSize)
	err := query().Order("created_at desc").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&duels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser failed at select: %w", err)
	}
	return duels, total, nil
}
