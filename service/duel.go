package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/to404hanga/online_judge_duel/config"
	"github.com/to404hanga/online_judge_duel/entity"
	"github.com/to404hanga/online_judge_duel/event"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/pkg/pointer"
	"github.com/to404hanga/online_judge_duel/realtime"
	"github.com/to404hanga/online_judge_duel/repository"
)

var DefaultSupportedTimeLimits = []int{300, 600, 900, 1800}

const (
	DefaultChallengeCount = 1
	DefaultPendingTimeout = 24 * 60 // 单位: 分钟
	DefaultSweepBatchSize = 100
)

type DuelService interface {
	// CreateDuel 创建对战, challenges 为空时从已发布题目中随机分配
	CreateDuel(ctx context.Context, creatorID uint64, timeLimit int, challenges []string) (*entity.Duel, error)
	// JoinDuel 加入对战, 并发加入时只有一个请求成功
	JoinDuel(ctx context.Context, duelID string, joinerID uint64) (*entity.Duel, error)
	// GetDuel 获取对战, 已到截止时间的对战会先被结束
	GetDuel(ctx context.Context, duelID string) (*entity.Duel, error)
	// CompleteDuel 参与者主动结束对战
	CompleteDuel(ctx context.Context, duelID string, operator uint64) (*entity.Duel, error)
	// ListUserDuels 获取用户参与的对战
	ListUserDuels(ctx context.Context, userID uint64, page, pageSize int) ([]entity.Duel, int64, error)
	// GetDuelOutcome 获取对战比分, 进行中的对战返回实时比分
	GetDuelOutcome(ctx context.Context, duelID string) (*model.DuelOutcome, error)
	// ExpireActiveDuels 结束所有已到截止时间的对战, 返回本次结束的数量
	ExpireActiveDuels(ctx context.Context) (int, error)
	// AbandonStalePendingDuels 废弃长时间无人加入的对战, 返回本次废弃的数量
	AbandonStalePendingDuels(ctx context.Context) (int, error)
}

type DuelServiceImpl struct {
	duels      repository.DuelRepository
	challenges repository.ChallengeRepository
	resolver   OutcomeResolver
	publisher  realtime.Publisher
	kafka      event.Producer
	clock      clockwork.Clock
	log        logger.Logger

	timeLimits     []int
	challengeCount int
	pendingTimeout time.Duration
	batchSize      int
}

var _ DuelService = (*DuelServiceImpl)(nil)

func NewDuelService(
	duels repository.DuelRepository,
	challenges repository.ChallengeRepository,
	resolver OutcomeResolver,
	publisher realtime.Publisher,
	kafka event.Producer,
	clock clockwork.Clock,
	cfg config.DuelConfig,
	log logger.Logger,
) DuelService {
	s := &DuelServiceImpl{
		duels:          duels,
		challenges:     challenges,
		resolver:       resolver,
		publisher:      publisher,
		kafka:          kafka,
		clock:          clock,
		log:            log,
		timeLimits:     cfg.SupportedTimeLimits,
		challengeCount: cfg.ChallengeCount,
		pendingTimeout: time.Duration(cfg.PendingTimeout) * time.Minute,
		batchSize:      cfg.SweepBatchSize,
	}
	if len(s.timeLimits) == 0 {
		s.timeLimits = DefaultSupportedTimeLimits
	}
	if s.challengeCount <= 0 {
		s.challengeCount = DefaultChallengeCount
	}
	if s.pendingTimeout <= 0 {
		s.pendingTimeout = DefaultPendingTimeout * time.Minute
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultSweepBatchSize
	}
	return s
}

// now 统一使用 UTC 毫秒精度, 与数据库 datetime(3) 保持一致
func (s *DuelServiceImpl) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

// CreateDuel 创建对战
func (s *DuelServiceImpl) CreateDuel(ctx context.Context, creatorID uint64, timeLimit int, challenges []string) (*entity.Duel, error) {
	if creatorID == 0 {
		return nil, fmt.Errorf("%w: creator is required", ErrValidation)
	}
	if !slices.Contains(s.timeLimits, timeLimit) {
		return nil, fmt.Errorf("%w: unsupported time limit %d, supported: %v", ErrValidation, timeLimit, s.timeLimits)
	}

	slugs, err := s.assignChallenges(ctx, challenges)
	if err != nil {
		return nil, err
	}

	now := s.now()
	duel := &entity.Duel{
		ID:             uuid.NewString(),
		User1ID:        creatorID,
		Status:         entity.DuelStatusPending,
		TimeLimit:      timeLimit,
		ChallengesSlug: slugs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = s.duels.Insert(ctx, duel); err != nil {
		return nil, fmt.Errorf("CreateDuel failed at insert duel: %w", err)
	}

	s.log.InfoContext(ctx, "duel created",
		logger.String("duel_id", duel.ID),
		logger.Int("time_limit", timeLimit),
		logger.Slice("challenges", []string(slugs)))
	return duel, nil
}

// assignChallenges 校验指定题目, 未指定时随机抽取
func (s *DuelServiceImpl) assignChallenges(ctx context.Context, challenges []string) (entity.StringList, error) {
	if len(challenges) > 0 {
		slugs := make(entity.StringList, 0, len(challenges))
		for _, slug := range challenges {
			if slices.Contains(slugs, slug) {
				continue
			}
			if _, err := s.challenges.Get(ctx, slug); err != nil {
				if errors.Is(err, repository.ErrRecordNotFound) {
					return nil, fmt.Errorf("%w: %s", ErrChallengeNotFound, slug)
				}
				return nil, fmt.Errorf("CreateDuel failed at get challenge: %w", err)
			}
			slugs = append(slugs, slug)
		}
		return slugs, nil
	}

	published, err := s.challenges.ListPublishedSlugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("CreateDuel failed at list challenges: %w", err)
	}
	if len(published) == 0 {
		return nil, fmt.Errorf("%w: no published challenge available", ErrValidation)
	}
	rand.Shuffle(len(published), func(i, j int) {
		published[i], published[j] = published[j], published[i]
	})
	return entity.StringList(published[:min(s.challengeCount, len(published))]), nil
}

// JoinDuel 加入对战
func (s *DuelServiceImpl) JoinDuel(ctx context.Context, duelID string, joinerID uint64) (*entity.Duel, error) {
	if joinerID == 0 {
		return nil, fmt.Errorf("%w: joiner is required", ErrValidation)
	}
	duel, err := s.getDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if duel.User1ID == joinerID {
		return nil, ErrSelfJoin
	}
	if duel.Status != entity.DuelStatusPending {
		return nil, joinRejection(duel)
	}

	// 读取只用于报错分类, 是否加入成功完全由条件更新决定
	now := s.now()
	endedAt := now.Add(time.Duration(duel.TimeLimit) * time.Second)
	err = s.duels.CompareAndSwapStatus(ctx, duelID, entity.DuelStatusPending, repository.DuelPatch{
		Status:    entity.DuelStatusActive,
		User2ID:   &joinerID,
		StartedAt: &now,
		EndedAt:   &endedAt,
		UpdatedAt: now,
	})
	if errors.Is(err, repository.ErrStoreConflict) {
		latest, getErr := s.getDuel(ctx, duelID)
		if getErr != nil {
			return nil, getErr
		}
		s.log.InfoContext(ctx, "join duel lost the race",
			logger.String("duel_id", duelID),
			logger.String("status", latest.Status.String()))
		return nil, joinRejection(latest)
	}
	if err != nil {
		return nil, fmt.Errorf("JoinDuel failed at compare and swap: %w", err)
	}

	duel.Status = entity.DuelStatusActive
	duel.User2ID = &joinerID
	duel.StartedAt = &now
	duel.EndedAt = &endedAt
	duel.UpdatedAt = now

	s.log.InfoContext(ctx, "duel joined",
		logger.String("duel_id", duelID),
		logger.Uint64("user1_id", duel.User1ID),
		logger.Uint64("user2_id", joinerID))
	s.notify(ctx, duel)
	s.produce(ctx, &event.DuelMessage{
		Type:    event.DuelEventJoined,
		DuelID:  duel.ID,
		User1ID: duel.User1ID,
		User2ID: joinerID,
		At:      now,
	})
	return duel, nil
}

// joinRejection 对非 pending 对战的加入请求给出原因
func joinRejection(duel *entity.Duel) error {
	if duel.User2ID != nil {
		return ErrDuelAlreadyJoined
	}
	return fmt.Errorf("%w: status %s", ErrDuelNotPending, duel.Status)
}

// GetDuel 获取对战
func (s *DuelServiceImpl) GetDuel(ctx context.Context, duelID string) (*entity.Duel, error) {
	duel, err := s.getDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if !duel.Overdue(s.now()) {
		return duel, nil
	}

	completed, err := s.complete(ctx, duel, nil)
	if err != nil {
		return nil, fmt.Errorf("GetDuel failed at expire duel: %w", err)
	}
	if completed != nil {
		return completed, nil
	}
	return s.getDuel(ctx, duelID)
}

// CompleteDuel 参与者主动结束对战, 结束时间取当前时间与截止时间中较早者
func (s *DuelServiceImpl) CompleteDuel(ctx context.Context, duelID string, operator uint64) (*entity.Duel, error) {
	duel, err := s.getDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if !duel.IsParticipant(operator) {
		return nil, ErrNotParticipant
	}
	switch duel.Status {
	case entity.DuelStatusCompleted:
		return duel, nil
	case entity.DuelStatusActive:
	default:
		return nil, fmt.Errorf("%w: status %s", ErrDuelNotActive, duel.Status)
	}

	endedAt := s.now()
	if deadline := duel.Deadline(); deadline != nil && deadline.Before(endedAt) {
		endedAt = *deadline
	}
	completed, err := s.complete(ctx, duel, &endedAt)
	if err != nil {
		return nil, fmt.Errorf("CompleteDuel failed at complete duel: %w", err)
	}
	if completed != nil {
		return completed, nil
	}

	latest, err := s.getDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}
	if latest.Status != entity.DuelStatusCompleted {
		return nil, fmt.Errorf("CompleteDuel failed: %w", ErrStoreConflict)
	}
	return latest, nil
}

// complete 将 active 对战置为 completed; 已被其他请求结束时返回 nil, nil
func (s *DuelServiceImpl) complete(ctx context.Context, duel *entity.Duel, endedAt *time.Time) (*entity.Duel, error) {
	now := s.now()
	err := s.duels.CompareAndSwapStatus(ctx, duel.ID, entity.DuelStatusActive, repository.DuelPatch{
		Status:    entity.DuelStatusCompleted,
		EndedAt:   endedAt,
		UpdatedAt: now,
	})
	if errors.Is(err, repository.ErrStoreConflict) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	completed := *duel
	completed.Status = entity.DuelStatusCompleted
	completed.UpdatedAt = now
	if endedAt != nil {
		completed.EndedAt = endedAt
	}
	s.afterCompleted(ctx, &completed)
	return &completed, nil
}

// afterCompleted 推送变更并发布带结果的完成事件, 失败只记录日志
func (s *DuelServiceImpl) afterCompleted(ctx context.Context, duel *entity.Duel) {
	s.notify(ctx, duel)

	outcome, err := s.resolver.Resolve(ctx, duel)
	if err != nil {
		s.log.WarnContext(ctx, "resolve completed duel failed",
			logger.String("duel_id", duel.ID),
			logger.Error(err))
		return
	}
	s.log.InfoContext(ctx, "duel completed",
		logger.String("duel_id", duel.ID),
		logger.Int("score1", outcome.Scores.User1),
		logger.Int("score2", outcome.Scores.User2))

	msg := &event.DuelMessage{
		Type:     event.DuelEventCompleted,
		DuelID:   duel.ID,
		User1ID:  duel.User1ID,
		User2ID:  pointer.Deref(duel.User2ID),
		WinnerID: outcome.WinnerID,
		Score1:   outcome.Scores.User1,
		Score2:   outcome.Scores.User2,
		At:       duel.UpdatedAt,
	}
	s.produce(ctx, msg)
}

func (s *DuelServiceImpl) notify(ctx context.Context, duel *entity.Duel) {
	if err := s.publisher.PublishDuel(ctx, duel); err != nil {
		s.log.WarnContext(ctx, "publish duel change failed",
			logger.String("duel_id", duel.ID),
			logger.Error(err))
	}
}

func (s *DuelServiceImpl) produce(ctx context.Context, msg *event.DuelMessage) {
	pm, err := event.NewDuelProducerMessage(msg)
	if err == nil {
		_, _, err = s.kafka.Produce(ctx, pm)
	}
	if err != nil {
		s.log.WarnContext(ctx, "produce duel event failed",
			logger.String("duel_id", msg.DuelID),
			logger.String("type", string(msg.Type)),
			logger.Error(err))
	}
}

func (s *DuelServiceImpl) getDuel(ctx context.Context, duelID string) (*entity.Duel, error) {
	duel, err := s.duels.Get(ctx, duelID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, ErrDuelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get duel failed: %w", err)
	}
	return duel, nil
}

// ListUserDuels 获取用户参与的对战
func (s *DuelServiceImpl) ListUserDuels(ctx context.Context, userID uint64, page, pageSize int) ([]entity.Duel, int64, error) {
	duels, total, err := s.duels.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("ListUserDuels failed: %w", err)
	}
	return duels, total, nil
}

// GetDuelOutcome 获取对战比分
func (s *DuelServiceImpl) GetDuelOutcome(ctx context.Context, duelID string) (*model.DuelOutcome, error) {
	duel, err := s.GetDuel(ctx, duelID)
	if err != nil {
		return nil, err
	}
	outcome, err := s.resolver.Resolve(ctx, duel)
	if err != nil {
		return nil, fmt.Errorf("GetDuelOutcome failed at resolve: %w", err)
	}
	return outcome, nil
}

// ExpireActiveDuels 结束已到截止时间的对战, 并发执行时每个对战只会被结束一次
func (s *DuelServiceImpl) ExpireActiveDuels(ctx context.Context) (int, error) {
	count := 0
	for {
		ids, err := s.duels.ListOverdueIDs(ctx, s.now(), s.batchSize)
		if err != nil {
			return count, fmt.Errorf("ExpireActiveDuels failed at list overdue duels: %w", err)
		}
		if len(ids) == 0 {
			return count, nil
		}

		expired := 0
		for _, id := range ids {
			duel, err := s.getDuel(ctx, id)
			if err != nil {
				return count, fmt.Errorf("ExpireActiveDuels failed at get duel %s: %w", id, err)
			}
			if duel.Status != entity.DuelStatusActive {
				continue
			}
			completed, err := s.complete(ctx, duel, nil)
			if err != nil {
				return count, fmt.Errorf("ExpireActiveDuels failed at complete duel %s: %w", id, err)
			}
			if completed != nil {
				expired++
			}
		}
		count += expired

		// 整批被其他实例抢先结算时仍需继续, 后面可能还有超时对战
		if len(ids) < s.batchSize {
			return count, nil
		}
	}
}

// AbandonStalePendingDuels 将创建超过 pendingTimeout 仍无人加入的对战置为 abandoned
func (s *DuelServiceImpl) AbandonStalePendingDuels(ctx context.Context) (int, error) {
	now := s.now()
	ids, err := s.duels.ListStalePendingIDs(ctx, now.Add(-s.pendingTimeout), s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("AbandonStalePendingDuels failed at list stale duels: %w", err)
	}

	count := 0
	for _, id := range ids {
		err = s.duels.CompareAndSwapStatus(ctx, id, entity.DuelStatusPending, repository.DuelPatch{
			Status:    entity.DuelStatusAbandoned,
			EndedAt:   &now,
			UpdatedAt: now,
		})
		if errors.Is(err, repository.ErrStoreConflict) {
			continue
		}
		if err != nil {
			return count, fmt.Errorf("AbandonStalePendingDuels failed at compare and swap %s: %w", id, err)
		}
		count++

		if duel, err := s.duels.Get(ctx, id); err == nil {
			s.notify(ctx, duel)
		}
	}
	return count, nil
}
