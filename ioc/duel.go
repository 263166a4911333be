package ioc

import (
	"log"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_duel/config"
	"github.com/to404hanga/online_judge_duel/event"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/realtime"
	"github.com/to404hanga/online_judge_duel/repository"
	"github.com/to404hanga/online_judge_duel/service"
	"gorm.io/gorm"
)

func InitClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func InitUserRepository(db *gorm.DB) repository.UserRepository {
	return repository.NewUserRepository(db, repository.DefaultAppendAttempts)
}

func InitDuelService(
	duels repository.DuelRepository,
	challenges repository.ChallengeRepository,
	resolver service.OutcomeResolver,
	publisher realtime.Publisher,
	kafka event.Producer,
	clock clockwork.Clock,
	l logger.Logger,
) service.DuelService {
	var cfg config.DuelConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal duel config failed: %v", err)
	}
	return service.NewDuelService(duels, challenges, resolver, publisher, kafka, clock, cfg, l)
}
