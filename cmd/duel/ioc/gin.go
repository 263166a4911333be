package ioc

import (
	"log"
	"os"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_duel/config"
	"github.com/to404hanga/online_judge_duel/pkg/gintool"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/web"
)

func InitGinServer(
	l logger.Logger,
	duelHandler *web.DuelHandler,
	submissionHandler *web.SubmissionHandler,
	leaderboardHandler *web.LeaderboardHandler,
	realtimeHandler *web.RealtimeHandler,
	healthHandler *web.HealthHandler,
) *web.GinServer {
	var cfg config.GinConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal gin config failed, err: %v", err)
	}

	// 优先使用环境变量中设置的服务端口
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Addr = ":" + port
	}

	engine := gin.Default()
	engine.Use(gintool.ContextMiddleware())

	duelHandler.Register(engine)
	submissionHandler.Register(engine)
	leaderboardHandler.Register(engine)
	realtimeHandler.Register(engine)
	healthHandler.Register(engine)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.EnablePprof {
		pprof.Register(engine)
		l.Warn("pprof enabled", logger.String("prefix", pprof.DefaultPrefix))
	}

	return &web.GinServer{
		Engine: engine,
		Addr:   cfg.Addr,
	}
}
