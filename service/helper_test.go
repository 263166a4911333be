package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_duel/config"
	"github.com/to404hanga/online_judge_duel/entity"
	"github.com/to404hanga/online_judge_duel/event"
	"github.com/to404hanga/online_judge_duel/judge"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/realtime"
	"github.com/to404hanga/online_judge_duel/repository"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var epoch = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type recordingPublisher struct {
	mu         sync.Mutex
	duels      []entity.Duel
	activities []realtime.Activity
}

func (p *recordingPublisher) PublishDuel(_ context.Context, duel *entity.Duel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.duels = append(p.duels, *duel)
	return nil
}

func (p *recordingPublisher) PublishActivity(_ context.Context, a *realtime.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = append(p.activities, *a)
	return nil
}

func (p *recordingPublisher) duelStatuses(id string) []entity.DuelStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]entity.DuelStatus, 0)
	for _, d := range p.duels {
		if d.ID == id {
			res = append(res, d.Status)
		}
	}
	return res
}

type recordingProducer struct {
	mu   sync.Mutex
	msgs []event.DuelMessage
}

func (p *recordingProducer) Produce(_ context.Context, msg *sarama.ProducerMessage) (int32, int64, error) {
	val, err := msg.Value.Encode()
	if err != nil {
		return 0, 0, err
	}
	var m event.DuelMessage
	if err = m.Unmarshal(val); err != nil {
		return 0, 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, m)
	return 0, int64(len(p.msgs) - 1), nil
}

func (p *recordingProducer) Close() error {
	return nil
}

func (p *recordingProducer) byType(typ event.DuelEventType) []event.DuelMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]event.DuelMessage, 0)
	for _, m := range p.msgs {
		if m.Type == typ {
			res = append(res, m)
		}
	}
	return res
}

// stubJudge 按 verdict 函数返回判题结果
type stubJudge struct {
	mu      sync.Mutex
	calls   int
	verdict func(req *judge.SubmitRequest) (*judge.Verdict, error)
}

func (j *stubJudge) Run(_ context.Context, req *judge.RunRequest) (*judge.RunResponse, error) {
	return &judge.RunResponse{Status: "ok", Results: []judge.CaseResult{{Stdout: req.Input}}}, nil
}

func (j *stubJudge) Submit(_ context.Context, req *judge.SubmitRequest) (*judge.Verdict, error) {
	j.mu.Lock()
	j.calls++
	j.mu.Unlock()
	return j.verdict(req)
}

func accepted(score int) func(*judge.SubmitRequest) (*judge.Verdict, error) {
	return func(*judge.SubmitRequest) (*judge.Verdict, error) {
		return &judge.Verdict{
			Status:  entity.SubmissionStatusAccepted,
			Score:   &score,
			Results: []judge.CaseResult{{Passed: true}},
		}, nil
	}
}

type testEnv struct {
	db          *gorm.DB
	mr          *miniredis.Miniredis
	rdb         *redis.Client
	clock       fakeClock
	duelRepo    repository.DuelRepository
	userRepo    repository.UserRepository
	publisher   *recordingPublisher
	kafka       *recordingProducer
	judge       *stubJudge
	duels       DuelService
	submissions SubmissionService
	leaderboard LeaderboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&entity.Duel{}, &entity.User{}, &entity.Challenge{}))
	require.NoError(t, db.Create([]entity.Challenge{
		{Slug: "sum", Title: "Sum", TimeLimit: 1000, MemoryLimit: 256, MaxScore: 100, Published: true},
		{Slug: "fib", Title: "Fib", TimeLimit: 1000, MemoryLimit: 256, MaxScore: 100, Published: true},
		{Slug: "graph", Title: "Graph", TimeLimit: 2000, MemoryLimit: 512, MaxScore: 200, Published: true},
	}).Error)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewNopLogger()
	clock := clockwork.NewFakeClockAt(epoch)

	env := &testEnv{
		db:        db,
		mr:        mr,
		rdb:       rdb,
		clock:     clock,
		duelRepo:  repository.NewDuelRepository(db),
		userRepo:  repository.NewUserRepository(db, 20),
		publisher: &recordingPublisher{},
		kafka:     &recordingProducer{},
		judge:     &stubJudge{verdict: accepted(100)},
	}
	challenges := repository.NewChallengeRepository(db, rdb, log)
	resolver := NewOutcomeResolver(env.userRepo)
	env.leaderboard = NewLeaderboardService(env.userRepo, rdb, log)
	env.duels = NewDuelService(env.duelRepo, challenges, resolver, env.publisher, env.kafka, clock, config.DuelConfig{
		SupportedTimeLimits: []int{300, 600},
		ChallengeCount:      2,
		PendingTimeout:      60,
		SweepBatchSize:      2,
	}, log)
	env.submissions = NewSubmissionService(env.userRepo, env.duelRepo, challenges, env.judge, env.leaderboard, env.publisher, clock, log)
	return env
}

// activeDuel 创建并加入一场 600 秒、包含 sum 的对战
func (e *testEnv) activeDuel(t *testing.T, user1, user2 uint64) *entity.Duel {
	t.Helper()
	ctx := context.Background()
	duel, err := e.duels.CreateDuel(ctx, user1, 600, []string{"sum", "fib"})
	require.NoError(t, err)
	duel, err = e.duels.JoinDuel(ctx, duel.ID, user2)
	require.NoError(t, err)
	return duel
}
