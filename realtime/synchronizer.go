package realtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	json "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/online_judge_duel/entity"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
)

const (
	DefaultChannelPrefix = "duel:changes"
	DefaultBufferSize    = 64
)

// Publisher 写入方在状态变更成功后推送变更后的行
type Publisher interface {
	PublishDuel(ctx context.Context, duel *entity.Duel) error
	PublishActivity(ctx context.Context, activity *Activity) error
}

// Synchronizer 基于 Redis pub/sub 的变更通知
//
// 每次变更同时发往表级频道 {prefix}:{table} 和行级频道 {prefix}:{table}:{id}.
type Synchronizer struct {
	rdb        redis.UniversalClient
	prefix     string
	bufferSize int
	log        logger.Logger
}

var _ Publisher = (*Synchronizer)(nil)

func NewSynchronizer(rdb redis.UniversalClient, prefix string, bufferSize int, log logger.Logger) *Synchronizer {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Synchronizer{
		rdb:        rdb,
		prefix:     prefix,
		bufferSize: bufferSize,
		log:        log,
	}
}

func (s *Synchronizer) tableChannel(table string) string {
	return fmt.Sprintf("%s:%s", s.prefix, table)
}

func (s *Synchronizer) rowChannel(table, id string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, table, id)
}

func (s *Synchronizer) PublishDuel(ctx context.Context, duel *entity.Duel) error {
	payload, err := json.Marshal(duel)
	if err != nil {
		return fmt.Errorf("PublishDuel failed at marshal: %w", err)
	}
	pipe := s.rdb.Pipeline()
	pipe.Publish(ctx, s.rowChannel(DuelTable, duel.ID), payload)
	pipe.Publish(ctx, s.tableChannel(DuelTable), payload)
	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("PublishDuel failed at publish: %w", err)
	}
	return nil
}

func (s *Synchronizer) PublishActivity(ctx context.Context, activity *Activity) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("PublishActivity failed at marshal: %w", err)
	}
	if err = s.rdb.Publish(ctx, s.tableChannel(ActivityTable), payload).Err(); err != nil {
		return fmt.Errorf("PublishActivity failed at publish: %w", err)
	}
	return nil
}

// SubscribeDuel 订阅单个对战的变更, 回调在同一 goroutine 中按到达顺序执行
//
// 状态次序落后于已投递状态的通知会被丢弃, 同一状态的重复通知照常投递.
func (s *Synchronizer) SubscribeDuel(ctx context.Context, duelID string, cb func(*entity.Duel)) (*Subscription, error) {
	lastRank := -1
	return s.subscribe(ctx, s.rowChannel(DuelTable, duelID), func(payload string) {
		var duel entity.Duel
		if err := json.UnmarshalString(payload, &duel); err != nil {
			s.log.WarnContext(ctx, "decode duel change failed", logger.String("duel_id", duelID), logger.Error(err))
			return
		}
		rank := duel.Status.Rank()
		if rank < lastRank {
			s.log.DebugContext(ctx, "drop stale duel change",
				logger.String("duel_id", duelID),
				logger.String("status", duel.Status.String()))
			return
		}
		lastRank = rank
		cb(&duel)
	})
}

// SubscribeActivity 订阅全站用户提交动态
func (s *Synchronizer) SubscribeActivity(ctx context.Context, cb func(*Activity)) (*Subscription, error) {
	return s.subscribe(ctx, s.tableChannel(ActivityTable), func(payload string) {
		var activity Activity
		if err := json.UnmarshalString(payload, &activity); err != nil {
			s.log.WarnContext(ctx, "decode activity failed", logger.Error(err))
			return
		}
		cb(&activity)
	})
}

func (s *Synchronizer) subscribe(ctx context.Context, channel string, handle func(payload string)) (*Subscription, error) {
	ps := s.rdb.Subscribe(ctx, channel)
	// 等待订阅确认, 返回后发布的变更不会丢失
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s failed: %w", channel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		channel: channel,
		pubsub:  ps,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	msgs := ps.Channel(redis.WithChannelSize(s.bufferSize))
	go func() {
		defer close(sub.done)
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if sub.stopped.Load() {
					return
				}
				handle(msg.Payload)
			}
		}
	}()

	go func() {
		<-subCtx.Done()
		sub.Unsubscribe()
	}()

	return sub, nil
}

// Subscription 订阅句柄, Unsubscribe 可重复调用
type Subscription struct {
	channel string
	pubsub  *redis.PubSub
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	stopped atomic.Bool
}

func (s *Subscription) Channel() string {
	return s.channel
}

// Unsubscribe 停止投递并释放连接, 不等待正在执行的回调, 可在回调内调用
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.stopped.Store(true)
		s.cancel()
		_ = s.pubsub.Close()
	})
}

// Done 投递 goroutine 退出后关闭
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
