package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/online_judge_duel/entity"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"gorm.io/gorm"
)

const (
	ChallengeKey      = "challenge:%s"
	ChallengeCacheTTL = 8 * time.Hour
)

type ChallengeRepository interface {
	// Get 获取已发布的题目
	Get(ctx context.Context, slug string) (*entity.Challenge, error)
	// ListPublishedSlugs 获取所有已发布题目的 slug
	ListPublishedSlugs(ctx context.Context) ([]string, error)
}

// ChallengeRepositoryImpl 题目只读访问, 详情缓存在 Redis, 缓存失败不影响读取
type ChallengeRepositoryImpl struct {
	db  *gorm.DB
	rdb redis.Cmdable
	log logger.Logger
}

var _ ChallengeRepository = (*ChallengeRepositoryImpl)(nil)

func NewChallengeRepository(db *gorm.DB, rdb redis.Cmdable, log logger.Logger) ChallengeRepository {
	// 未配置 Redis 时注入的可能是 nil 指针, 统一视为不使用缓存
	switch c := rdb.(type) {
	case *redis.Client:
		if c == nil {
			rdb = nil
		}
	case *redis.ClusterClient:
		if c == nil {
			rdb = nil
		}
	}
	return &ChallengeRepositoryImpl{
		db:  db,
		rdb: rdb,
		log: log,
	}
}

func (r *ChallengeRepositoryImpl) Get(ctx context.Context, slug string) (*entity.Challenge, error) {
	key := fmt.Sprintf(ChallengeKey, slug)
	if r.rdb != nil {
		val, err := r.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var challenge entity.Challenge
			if err = json.Unmarshal(val, &challenge); err == nil {
				return &challenge, nil
			}
			r.log.WarnContext(ctx, "unmarshal challenge cache failed", logger.String("slug", slug), logger.Error(err))
		} else if !errors.Is(err, redis.Nil) {
			r.log.WarnContext(ctx, "get challenge cache failed", logger.String("slug", slug), logger.Error(err))
		}
	}

	var challenge entity.Challenge
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		Where("published = ?", true).
		First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get challenge failed at select: %w", err)
	}

	if r.rdb != nil {
		if val, err := json.Marshal(challenge); err == nil {
			if err = r.rdb.Set(ctx, key, val, ChallengeCacheTTL).Err(); err != nil {
				r.log.WarnContext(ctx, "set challenge cache failed", logger.String("slug", slug), logger.Error(err))
			}
		}
	}
	return &challenge, nil
}

func (r *ChallengeRepositoryImpl) ListPublishedSlugs(ctx context.Context) ([]string, error) {
	slugs := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&entity.Challenge{}).
		Where("published = ?", true).
		Order("slug asc").
		Pluck("slug", &slugs).Error
	if err != nil {
		return nil, fmt.Errorf("ListPublishedSlugs failed at select: %w", err)
	}
	return slugs, nil
}
