package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/repository"
	"github.com/to404hanga/online_judge_duel/service/exporter/factory"
	"github.com/to404hanga/online_judge_duel/service/scoring"
)

type LeaderboardService interface {
	// GetLeaderboard 获取全站排行榜
	GetLeaderboard(ctx context.Context, page, pageSize int) ([]model.LeaderboardEntry, int, error)
	// Page 获取排行榜的一页, 供导出使用
	Page(ctx context.Context, page, pageSize int) ([]model.LeaderboardEntry, error)
	// RefreshUser 按提交历史重新计算用户总分
	RefreshUser(ctx context.Context, userID uint64) error
	// Rebuild 由数据库全量重建排行榜
	Rebuild(ctx context.Context) error
	// Export 导出排行榜
	Export(ctx context.Context, format factory.ExporterType, w io.Writer) error
}

// LeaderboardServiceImpl 排行榜缓存在 Redis, 分数与对战结算使用同一聚合规则, 缓存缺失时由数据库重建
type LeaderboardServiceImpl struct {
	users           repository.UserRepository
	rdb             redis.Cmdable
	log             logger.Logger
	exporterFactory *factory.ExporterFactory
}

var _ LeaderboardService = (*LeaderboardServiceImpl)(nil)

func NewLeaderboardService(users repository.UserRepository, rdb redis.Cmdable, log logger.Logger) LeaderboardService {
	s := &LeaderboardServiceImpl{
		users: users,
		rdb:   rdb,
		log:   log,
	}
	s.exporterFactory = factory.NewExporterFactory(s, log)
	return s
}

const (
	LeaderboardKey            = "leaderboard:global"
	LeaderboardSolvedKey      = "leaderboard:global:solved"
	leaderboardRebuildKey     = "leaderboard:global:rebuild"
	leaderboardRebuildLockKey = "leaderboard:global:rebuild:lock"
	leaderboardDirtyKey       = "leaderboard:global:dirty"
	rebuildBatchSize          = 500
	rebuildLockTTL            = 5 * time.Minute
	rebuildWaitInterval       = 50 * time.Millisecond
	rebuildWaitRetries        = 100
)

// ErrLeaderboardRebuilding 其他实例正在重建排行榜
var ErrLeaderboardRebuilding = errors.New("leaderboard rebuild in progress")

// 只释放自己持有的锁
var releaseRebuildLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// GetLeaderboard 获取全站排行榜
func (s *LeaderboardServiceImpl) GetLeaderboard(ctx context.Context, page, pageSize int) ([]model.LeaderboardEntry, int, error) {
	entries, err := s.Page(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.rdb.ZCard(ctx, LeaderboardKey).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("get total from redis failed: %w", err)
	}
	return entries, int(total), nil
}

func (s *LeaderboardServiceImpl) Page(ctx context.Context, page, pageSize int) ([]model.LeaderboardEntry, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	start := int64((page - 1) * pageSize)
	stop := start + int64(pageSize) - 1

	// 按分数降序
	zs, err := s.rdb.ZRevRangeWithScores(ctx, LeaderboardKey, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("get leaderboard from redis failed: %w", err)
	}
	if len(zs) == 0 {
		return []model.LeaderboardEntry{}, nil
	}

	members := make([]string, 0, len(zs))
	for _, z := range zs {
		members = append(members, z.Member.(string))
	}
	solved, err := s.rdb.HMGet(ctx, LeaderboardSolvedKey, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("get solved count from redis failed: %w", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		userID, err := strconv.ParseUint(members[i], 10, 64)
		if err != nil {
			s.log.ErrorContext(ctx, "parse leaderboard member failed",
				logger.Error(err),
				logger.String("member", members[i]))
			continue
		}
		entry := model.LeaderboardEntry{
			Rank:   int(start) + i + 1,
			UserID: userID,
			Total:  int(z.Score),
		}
		if v, ok := solved[i].(string); ok {
			entry.Solved, _ = strconv.Atoi(v)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ensure 排行榜不存在时重建; 其他实例正在重建时等待其完成
func (s *LeaderboardServiceImpl) ensure(ctx context.Context) error {
	op := func() error {
		n, err := s.rdb.Exists(ctx, LeaderboardKey).Result()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("check leaderboard exists failed: %w", err))
		}
		if n > 0 {
			return nil
		}
		err = s.Rebuild(ctx)
		if errors.Is(err, ErrLeaderboardRebuilding) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(rebuildWaitInterval), rebuildWaitRetries), ctx)
	return backoff.Retry(op, policy)
}

// RefreshUser 更新用户分数; 排行榜尚未建立时跳过, 由下次读取时全量重建.
// 重建进行中时记录到脏集合, 由重建在替换 key 之后补算
func (s *LeaderboardServiceImpl) RefreshUser(ctx context.Context, userID uint64) error {
	member := strconv.FormatUint(userID, 10)

	locked, err := s.rdb.Exists(ctx, leaderboardRebuildLockKey).Result()
	if err != nil {
		return fmt.Errorf("RefreshUser failed at check rebuild lock: %w", err)
	}
	if locked > 0 {
		if err = s.rdb.SAdd(ctx, leaderboardDirtyKey, member).Err(); err != nil {
			return fmt.Errorf("RefreshUser failed at mark dirty: %w", err)
		}
	}

	n, err := s.rdb.Exists(ctx, LeaderboardKey).Result()
	if err != nil {
		return fmt.Errorf("check leaderboard exists failed: %w", err)
	}
	if n == 0 {
		return nil
	}
	if err = s.writeUser(ctx, userID); err != nil {
		return fmt.Errorf("RefreshUser failed: %w", err)
	}
	return nil
}

// writeUser 由数据库重新计算用户总分并写入排行榜
func (s *LeaderboardServiceImpl) writeUser(ctx context.Context, userID uint64) error {
	subs, err := s.users.GetSubmissions(ctx, userID)
	if err != nil {
		return fmt.Errorf("get submissions failed: %w", err)
	}
	agg := scoring.Calculate(subs, scoring.ForUser(userID))

	member := strconv.FormatUint(userID, 10)
	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, LeaderboardKey, redis.Z{Score: float64(agg.Total), Member: member})
	pipe.HSet(ctx, LeaderboardSolvedKey, member, len(agg.PerChallengeBest))
	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update redis failed: %w", err)
	}
	return nil
}

// Rebuild 写入临时 key 后整体替换, 重建期间读取的仍是旧数据.
// 同一时刻只有一个重建, 重建期间的提交在替换后补算
func (s *LeaderboardServiceImpl) Rebuild(ctx context.Context) error {
	token := uuid.NewString()
	ok, err := s.rdb.SetNX(ctx, leaderboardRebuildLockKey, token, rebuildLockTTL).Result()
	if err != nil {
		return fmt.Errorf("Rebuild failed at acquire lock: %w", err)
	}
	if !ok {
		return ErrLeaderboardRebuilding
	}
	tmpKey := leaderboardRebuildKey + ":" + token
	tmpSolvedKey := tmpKey + ":solved"
	defer func() {
		// 使用独立 context, 调用方取消后仍需清理
		cleanupCtx := context.WithoutCancel(ctx)
		if delErr := s.rdb.Del(cleanupCtx, tmpKey, tmpSolvedKey).Err(); delErr != nil {
			s.log.WarnContext(ctx, "clear leaderboard temp keys failed", logger.Error(delErr))
		}
		if relErr := releaseRebuildLock.Run(cleanupCtx, s.rdb, []string{leaderboardRebuildLockKey}, token).Err(); relErr != nil {
			s.log.WarnContext(ctx, "release leaderboard rebuild lock failed", logger.Error(relErr))
		}
	}()

	if err = s.rdb.Del(ctx, leaderboardDirtyKey).Err(); err != nil {
		return fmt.Errorf("Rebuild failed at clear dirty set: %w", err)
	}

	count := 0
	for page := 1; ; page++ {
		users, err := s.users.ListUsers(ctx, page, rebuildBatchSize)
		if err != nil {
			return fmt.Errorf("Rebuild failed at list users: %w", err)
		}
		if len(users) == 0 {
			break
		}

		pipe := s.rdb.Pipeline()
		for _, u := range users {
			agg := scoring.Calculate(u.Submissions, scoring.ForUser(u.ID))
			member := strconv.FormatUint(u.ID, 10)
			pipe.ZAdd(ctx, tmpKey, redis.Z{Score: float64(agg.Total), Member: member})
			pipe.HSet(ctx, tmpSolvedKey, member, len(agg.PerChallengeBest))
		}
		// 重建中途崩溃时临时 key 自动过期
		pipe.Expire(ctx, tmpKey, rebuildLockTTL)
		pipe.Expire(ctx, tmpSolvedKey, rebuildLockTTL)
		if _, err = pipe.Exec(ctx); err != nil {
			return fmt.Errorf("Rebuild failed at write temp keys: %w", err)
		}
		count += len(users)

		if len(users) < rebuildBatchSize {
			break
		}
	}

	if count > 0 {
		pipe := s.rdb.TxPipeline()
		pipe.Rename(ctx, tmpKey, LeaderboardKey)
		pipe.Rename(ctx, tmpSolvedKey, LeaderboardSolvedKey)
		pipe.Persist(ctx, LeaderboardKey)
		pipe.Persist(ctx, LeaderboardSolvedKey)
		if _, err = pipe.Exec(ctx); err != nil {
			return fmt.Errorf("Rebuild failed at swap keys: %w", err)
		}
	}

	replayed, err := s.replayDirty(ctx)
	if err != nil {
		return fmt.Errorf("Rebuild failed at replay dirty users: %w", err)
	}
	if count > 0 || replayed > 0 {
		s.log.InfoContext(ctx, "leaderboard rebuilt",
			logger.Int("users", count),
			logger.Int("replayed", replayed))
	}
	return nil
}

// replayDirty 补算重建期间有新提交的用户, 直到脏集合为空
func (s *LeaderboardServiceImpl) replayDirty(ctx context.Context) (int, error) {
	replayed := 0
	for {
		member, err := s.rdb.SPop(ctx, leaderboardDirtyKey).Result()
		if errors.Is(err, redis.Nil) {
			return replayed, nil
		}
		if err != nil {
			return replayed, err
		}
		userID, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			s.log.ErrorContext(ctx, "parse dirty leaderboard member failed",
				logger.Error(err),
				logger.String("member", member))
			continue
		}
		if err = s.writeUser(ctx, userID); err != nil {
			// 补算失败时丢弃排行榜, 下次读取时全量重建
			if delErr := s.rdb.Del(ctx, LeaderboardKey, LeaderboardSolvedKey).Err(); delErr != nil {
				s.log.ErrorContext(ctx, "drop stale leaderboard failed", logger.Error(delErr))
			}
			return replayed, err
		}
		replayed++
	}
}

// Export 导出排行榜
func (s *LeaderboardServiceImpl) Export(ctx context.Context, format factory.ExporterType, w io.Writer) error {
	exp := s.exporterFactory.GetExporter(format)
	if exp == nil {
		return fmt.Errorf("%w: unsupported export format %q", ErrValidation, format)
	}
	if err := exp.Export(ctx, w); err != nil {
		return fmt.Errorf("Export leaderboard failed: %w", err)
	}
	return nil
}
