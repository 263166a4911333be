package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_duel/entity"
	"github.com/to404hanga/online_judge_duel/judge"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/repository"
	"github.com/to404hanga/online_judge_duel/service/exporter/factory"
)

func TestLeaderboardRebuildsFromStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.judge.verdict = accepted(60)
	_, err := env.submissions.RecordSubmission(ctx, submitParam(1, "sum", nil))
	require.NoError(t, err)
	env.judge.verdict = accepted(90)
	_, err = env.submissions.RecordSubmission(ctx, submitParam(1, "sum", nil))
	require.NoError(t, err)
	env.judge.verdict = accepted(150)
	_, err = env.submissions.RecordSubmission(ctx, submitParam(2, "graph", nil))
	require.NoError(t, err)
	env.judge.verdict = func(*judge.SubmitRequest) (*judge.Verdict, error) {
		zero := 0
		return &judge.Verdict{Status: entity.SubmissionStatusFailed, Score: &zero}, nil
	}
	_, err = env.submissions.RecordSubmission(ctx, submitParam(3, "fib", nil))
	require.NoError(t, err)

	// 尚未读取过排行榜, 提交时不会创建不完整的 key
	assert.False(t, env.mr.Exists(LeaderboardKey))

	entries, total, err := env.leaderboard.GetLeaderboard(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []model.LeaderboardEntry{
		{Rank: 1, UserID: 2, Total: 150, Solved: 1},
		{Rank: 2, UserID: 1, Total: 90, Solved: 1},
		{Rank: 3, UserID: 3, Total: 0, Solved: 0},
	}, entries)
}

func TestLeaderboardRefreshAfterSubmission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.judge.verdict = accepted(50)
	_, err := env.submissions.RecordSubmission(ctx, submitParam(1, "sum", nil))
	require.NoError(t, err)
	_, _, err = env.leaderboard.GetLeaderboard(ctx, 1, 10)
	require.NoError(t, err)

	env.judge.verdict = accepted(200)
	_, err = env.submissions.RecordSubmission(ctx, submitParam(2, "graph", nil))
	require.NoError(t, err)
	env.judge.verdict = accepted(100)
	_, err = env.submissions.RecordSubmission(ctx, submitParam(1, "fib", nil))
	require.NoError(t, err)

	entries, total, err := env.leaderboard.GetLeaderboard(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(2), entries[0].UserID)
	assert.Equal(t, 200, entries[0].Total)
	assert.Equal(t, uint64(1), entries[1].UserID)
	assert.Equal(t, 150, entries[1].Total)
	assert.Equal(t, 2, entries[1].Solved)
}

func TestLeaderboardMatchesDuelAggregation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	duel := env.activeDuel(t, 1, 2)
	for _, score := range []int{40, 100, 70} {
		env.judge.verdict = accepted(score)
		_, err := env.submissions.RecordSubmission(ctx, submitParam(1, "sum", &duel.ID))
		require.NoError(t, err)
	}

	outcome, err := env.duels.GetDuelOutcome(ctx, duel.ID)
	require.NoError(t, err)
	entries, _, err := env.leaderboard.GetLeaderboard(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, outcome.Scores.User1, entries[0].Total)
}

func TestLeaderboardPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for user := uint64(1); user <= 5; user++ {
		env.judge.verdict = accepted(int(user) * 10)
		_, err := env.submissions.RecordSubmission(ctx, submitParam(user, "sum", nil))
		require.NoError(t, err)
	}

	entries, total, err := env.leaderboard.GetLeaderboard(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].Rank)
	assert.Equal(t, uint64(3), entries[0].UserID)
	assert.Equal(t, 4, entries[1].Rank)

	entries, _, err = env.leaderboard.GetLeaderboard(ctx, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLeaderboardEmpty(t *testing.T) {
	env := newTestEnv(t)
	entries, total, err := env.leaderboard.GetLeaderboard(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, entries)
}

func TestLeaderboardExport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.judge.verdict = accepted(100)
	_, err := env.submissions.RecordSubmission(ctx, submitParam(8, "sum", nil))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, env.leaderboard.Export(ctx, factory.CSVExporter, &buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"1", "8", "100", "1"}, records[1])

	err = env.leaderboard.Export(ctx, "pdf", &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrValidation)
}

// hookedUsers 在第一次 ListUsers 返回前执行 onList, 模拟重建期间到达的提交
type hookedUsers struct {
	repository.UserRepository
	once   sync.Once
	onList func()
}

func (u *hookedUsers) ListUsers(ctx context.Context, page, pageSize int) ([]entity.User, error) {
	users, err := u.UserRepository.ListUsers(ctx, page, pageSize)
	u.once.Do(u.onList)
	return users, err
}

func TestLeaderboardRebuildKeepsSubmissionDuringRebuild(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.judge.verdict = accepted(50)
	_, err := env.submissions.RecordSubmission(ctx, submitParam(1, "sum", nil))
	require.NoError(t, err)

	users := &hookedUsers{UserRepository: env.userRepo}
	users.onList = func() {
		env.judge.verdict = accepted(100)
		_, err := env.submissions.RecordSubmission(ctx, submitParam(1, "fib", nil))
		require.NoError(t, err)
	}
	lb := NewLeaderboardService(users, env.rdb, logger.NewNopLogger())

	entries, total, err := lb.GetLeaderboard(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []model.LeaderboardEntry{
		{Rank: 1, UserID: 1, Total: 150, Solved: 2},
	}, entries)

	// 锁与临时 key 均已清理
	for _, key := range env.mr.Keys() {
		assert.False(t, strings.HasPrefix(key, leaderboardRebuildKey), key)
	}
	assert.False(t, env.mr.Exists(leaderboardDirtyKey))
	ttl := env.mr.TTL(LeaderboardKey)
	assert.Zero(t, ttl)
}

func TestLeaderboardRebuildRejectsConcurrentRebuild(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.judge.verdict = accepted(70)
	_, err := env.submissions.RecordSubmission(ctx, submitParam(1, "sum", nil))
	require.NoError(t, err)

	require.NoError(t, env.mr.Set(leaderboardRebuildLockKey, "other"))
	err = env.leaderboard.Rebuild(ctx)
	assert.ErrorIs(t, err, ErrLeaderboardRebuilding)
	// 不释放他人持有的锁
	got, err := env.mr.Get(leaderboardRebuildLockKey)
	require.NoError(t, err)
	assert.Equal(t, "other", got)

	// 持锁期间的提交进入脏集合
	env.judge.verdict = accepted(80)
	_, err = env.submissions.RecordSubmission(ctx, submitParam(1, "sum", nil))
	require.NoError(t, err)
	assert.True(t, env.mr.Exists(leaderboardDirtyKey))
}

func TestLeaderboardReadWaitsForRunningRebuild(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.judge.verdict = accepted(60)
	_, err := env.submissions.RecordSubmission(ctx, submitParam(1, "sum", nil))
	require.NoError(t, err)

	require.NoError(t, env.mr.Set(leaderboardRebuildLockKey, "other"))
	go func() {
		time.Sleep(150 * time.Millisecond)
		env.mr.Del(leaderboardRebuildLockKey)
	}()

	entries, total, err := env.leaderboard.GetLeaderboard(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, 60, entries[0].Total)
}

func TestLeaderboardReadGivesUpWhenContextDone(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.mr.Set(leaderboardRebuildLockKey, "other"))

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	_, _, err := env.leaderboard.GetLeaderboard(ctx, 1, 10)
	assert.Error(t, err)
}
