//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/online_judge_duel/cmd/cronjob/ioc"
	commonioc "github.com/to404hanga/online_judge_duel/ioc"
	"github.com/to404hanga/online_judge_duel/job"
	"github.com/to404hanga/online_judge_duel/job/sweeper"
	"github.com/to404hanga/online_judge_duel/realtime"
	"github.com/to404hanga/online_judge_duel/repository"
	"github.com/to404hanga/online_judge_duel/service"
)

func InitScheduler() *job.CronScheduler {
	wire.Build(
		commonioc.InitLogger,
		commonioc.InitDB,
		commonioc.InitRedis,
		commonioc.InitKafka,
		commonioc.InitSynchronizer,
		commonioc.InitClock,
		wire.Bind(new(redis.Cmdable), new(*redis.Client)),
		wire.Bind(new(realtime.Publisher), new(*realtime.Synchronizer)),

		repository.NewDuelRepository,
		repository.NewChallengeRepository,
		commonioc.InitUserRepository,
		service.NewOutcomeResolver,
		commonioc.InitDuelService,

		sweeper.NewDuelSweeper,
		ioc.InitScheduler,
	)
	return &job.CronScheduler{}
}
