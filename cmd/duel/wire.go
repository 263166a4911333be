//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/online_judge_duel/cmd/duel/ioc"
	commonioc "github.com/to404hanga/online_judge_duel/ioc"
	"github.com/to404hanga/online_judge_duel/realtime"
	"github.com/to404hanga/online_judge_duel/repository"
	"github.com/to404hanga/online_judge_duel/service"
	"github.com/to404hanga/online_judge_duel/web"
)

func BuildDependency() *web.GinServer {
	wire.Build(
		commonioc.InitLogger,
		commonioc.InitDB,
		commonioc.InitRedis,
		commonioc.InitKafka,
		commonioc.InitJudgeClient,
		commonioc.InitSynchronizer,
		commonioc.InitClock,
		wire.Bind(new(redis.Cmdable), new(*redis.Client)),
		wire.Bind(new(realtime.Publisher), new(*realtime.Synchronizer)),
		wire.Bind(new(web.Subscriber), new(*realtime.Synchronizer)),

		repository.NewDuelRepository,
		repository.NewChallengeRepository,
		commonioc.InitUserRepository,

		service.NewOutcomeResolver,
		commonioc.InitDuelService,
		service.NewLeaderboardService,
		service.NewSubmissionService,

		web.NewDuelHandler,
		commonioc.InitSubmissionHandler,
		web.NewLeaderboardHandler,
		web.NewRealtimeHandler,
		web.NewHealthHandler,

		ioc.InitGinServer,
	)
	return &web.GinServer{}
}
