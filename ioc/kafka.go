package ioc

import (
	"log"

	"github.com/IBM/sarama"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_duel/config"
	"github.com/to404hanga/online_judge_duel/event"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
)

// InitKafka 未配置 broker 时不投递对战事件
func InitKafka(l logger.Logger) event.Producer {
	var cfg config.KafkaConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal kafka config failed: %v", err)
	}
	if len(cfg.Addrs) == 0 {
		l.Warn("kafka addrs not configured, duel events disabled")
		return event.NopProducer{}
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	// 同一对战的事件进入同一分区
	saramaCfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Addrs, saramaCfg)
	if err != nil {
		log.Panicf("create kafka producer failed: %v", err)
	}
	return event.NewSaramaProducer(producer)
}
