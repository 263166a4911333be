package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_duel/cmd/cronjob/config"
	"github.com/to404hanga/online_judge_duel/cmd/cronjob/ioc"
)

const defaultConfigPath = "./config/config.yaml"

func main() {
	cfile := pflag.String("config", defaultConfigPath, "config file path")
	pflag.Parse()

	viper.SetConfigFile(*cfile)
	if err := viper.ReadInConfig(); err != nil {
		log.Panicf("read config file failed: %v", err)
	}

	app := InitScheduler()
	if err := app.Start(); err != nil {
		log.Panicf("cron job scheduler failed: %v", err)
	}

	log.Println("cron job scheduler started")

	// 启动时先结算停机期间到期的对战, 不等待第一次定时触发
	if err := app.RunJobOnce(ioc.DuelExpirySweepJob); err != nil {
		log.Printf("initial duel expiry sweep failed: %v", err)
	}

	var metricsCfg config.MetricsConfig
	if err := viper.UnmarshalKey(metricsCfg.Key(), &metricsCfg); err != nil {
		log.Panicf("unmarshal metrics config failed: %v", err)
	}
	var metricsSrv *http.Server
	if metricsCfg.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/jobs", app.StatusHandler())
		metricsSrv = &http.Server{Addr: metricsCfg.Addr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics server failed: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	app.Stop()
	if metricsSrv != nil {
		_ = metricsSrv.Close()
	}
}
