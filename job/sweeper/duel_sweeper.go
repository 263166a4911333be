package sweeper

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/service"
)

var sweptDuelCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "online_judge_duel",
		Subsystem: "sweeper",
		Name:      "duels_transitioned_total",
		Help:      "Number of duels transitioned by sweeps",
	},
	[]string{"to"},
)

func init() {
	prometheus.MustRegister(sweptDuelCounter)
}

// DuelSweeper 定时推进对战状态, 可与其他实例并发执行
type DuelSweeper struct {
	duelSvc service.DuelService
	log     logger.Logger
}

func NewDuelSweeper(duelSvc service.DuelService, log logger.Logger) *DuelSweeper {
	return &DuelSweeper{
		duelSvc: duelSvc,
		log:     log,
	}
}

// RunExpiry 结束已到截止时间的对战
func (s *DuelSweeper) RunExpiry(ctx context.Context) error {
	n, err := s.duelSvc.ExpireActiveDuels(ctx)
	// 出错前已结束的对战同样计数
	sweptDuelCounter.WithLabelValues("completed").Add(float64(n))
	if err != nil {
		return fmt.Errorf("RunExpiry failed after %d duel(s): %w", n, err)
	}
	if n > 0 {
		s.log.InfoContext(ctx, "expired active duels", logger.Int("count", n))
	}
	return nil
}

// RunPendingCleanup 废弃长时间无人加入的对战
func (s *DuelSweeper) RunPendingCleanup(ctx context.Context) error {
	n, err := s.duelSvc.AbandonStalePendingDuels(ctx)
	sweptDuelCounter.WithLabelValues("abandoned").Add(float64(n))
	if err != nil {
		return fmt.Errorf("RunPendingCleanup failed after %d duel(s): %w", n, err)
	}
	if n > 0 {
		s.log.InfoContext(ctx, "abandoned stale pending duels", logger.Int("count", n))
	}
	return nil
}
