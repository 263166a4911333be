package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/to404hanga/online_judge_duel/entity"
	"github.com/to404hanga/online_judge_duel/judge"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/realtime"
	"github.com/to404hanga/online_judge_duel/repository"
)

type SubmissionService interface {
	// RecordSubmission 调用判题服务并追加提交记录, 判题失败时不修改任何数据
	RecordSubmission(ctx context.Context, param *model.SubmitDuelChallengeParam) (*entity.Submission, error)
	// RunCode 运行代码, 不记录
	RunCode(ctx context.Context, param *model.RunCodeParam) (*judge.RunResponse, error)
}

type SubmissionServiceImpl struct {
	users       repository.UserRepository
	duels       repository.DuelRepository
	challenges  repository.ChallengeRepository
	judge       judge.Client
	leaderboard LeaderboardService
	publisher   realtime.Publisher
	clock       clockwork.Clock
	log         logger.Logger
}

var _ SubmissionService = (*SubmissionServiceImpl)(nil)

func NewSubmissionService(
	users repository.UserRepository,
	duels repository.DuelRepository,
	challenges repository.ChallengeRepository,
	judgeClient judge.Client,
	leaderboard LeaderboardService,
	publisher realtime.Publisher,
	clock clockwork.Clock,
	log logger.Logger,
) SubmissionService {
	return &SubmissionServiceImpl{
		users:       users,
		duels:       duels,
		challenges:  challenges,
		judge:       judgeClient,
		leaderboard: leaderboard,
		publisher:   publisher,
		clock:       clock,
		log:         log,
	}
}

func (s *SubmissionServiceImpl) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

// RecordSubmission 提交题目
func (s *SubmissionServiceImpl) RecordSubmission(ctx context.Context, param *model.SubmitDuelChallengeParam) (*entity.Submission, error) {
	if param.Operator == 0 || param.Code == "" || param.Language == "" || param.Challenge == "" {
		return nil, fmt.Errorf("%w: operator, code, language and challenge are required", ErrValidation)
	}

	challenge, err := s.challenges.Get(ctx, param.Challenge)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrChallengeNotFound, param.Challenge)
	}
	if err != nil {
		return nil, fmt.Errorf("RecordSubmission failed at get challenge: %w", err)
	}

	var duel *entity.Duel
	if param.DuelID != nil {
		if duel, err = s.checkDuel(ctx, *param.DuelID, param.Operator, param.Challenge); err != nil {
			return nil, err
		}
	}

	verdict, err := s.judge.Submit(ctx, &judge.SubmitRequest{
		Code:      param.Code,
		Language:  param.Language,
		Challenge: challenge.Slug,
		Time:      challenge.TimeLimit,
		Memory:    challenge.MemoryLimit,
	})
	if errors.Is(err, judge.ErrUnavailable) {
		s.log.WarnContext(ctx, "judge unavailable",
			logger.String("challenge", challenge.Slug),
			logger.Error(err))
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if *verdict.Score > challenge.MaxScore {
		return nil, fmt.Errorf("%w: score %d exceeds max score %d of %s",
			ErrJudgeUnavailable, *verdict.Score, challenge.MaxScore, challenge.Slug)
	}

	now := s.now()
	// 判题耗时可能越过截止时间, 超时的提交不计入对战
	if duel != nil && duel.EndedAt != nil && now.After(*duel.EndedAt) {
		return nil, fmt.Errorf("%w: deadline passed while judging", ErrDuelNotActive)
	}

	submission := entity.Submission{
		ID:        uuid.NewString(),
		UserID:    param.Operator,
		Challenge: challenge.Slug,
		Language:  param.Language,
		Code:      param.Code,
		Timestamp: now,
		Status:    verdict.Status,
		Score:     *verdict.Score,
		Result:    verdict.TestCaseResults(),
		Duel:      param.DuelID,
	}
	if err = s.users.AppendSubmission(ctx, param.Operator, submission); err != nil {
		return nil, fmt.Errorf("RecordSubmission failed at append submission: %w", err)
	}

	s.log.InfoContext(ctx, "submission recorded",
		logger.String("submission_id", submission.ID),
		logger.String("challenge", submission.Challenge),
		logger.String("status", string(submission.Status)),
		logger.Int("score", submission.Score))

	if err = s.leaderboard.RefreshUser(ctx, param.Operator); err != nil {
		s.log.WarnContext(ctx, "refresh leaderboard failed", logger.Error(err))
	}
	if err = s.publisher.PublishActivity(ctx, realtime.NewActivity(&submission)); err != nil {
		s.log.WarnContext(ctx, "publish activity failed", logger.Error(err))
	}
	return &submission, nil
}

// checkDuel 对战提交要求对战进行中, 提交者为参与者且题目属于该对战
func (s *SubmissionServiceImpl) checkDuel(ctx context.Context, duelID string, userID uint64, challenge string) (*entity.Duel, error) {
	duel, err := s.duels.Get(ctx, duelID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, ErrDuelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("RecordSubmission failed at get duel: %w", err)
	}
	if !duel.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if duel.Status != entity.DuelStatusActive || duel.Overdue(s.now()) {
		return nil, fmt.Errorf("%w: status %s", ErrDuelNotActive, duel.Status)
	}
	if !duel.HasChallenge(challenge) {
		return nil, fmt.Errorf("%w: challenge %s is not part of duel %s", ErrValidation, challenge, duelID)
	}
	return duel, nil
}

// RunCode 运行代码
func (s *SubmissionServiceImpl) RunCode(ctx context.Context, param *model.RunCodeParam) (*judge.RunResponse, error) {
	resp, err := s.judge.Run(ctx, &judge.RunRequest{
		Code:     param.Code,
		Language: param.Language,
		Input:    param.Input,
	})
	if errors.Is(err, judge.ErrUnavailable) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return resp, nil
}
