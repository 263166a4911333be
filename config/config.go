package config

import "github.com/to404hanga/online_judge_duel/pkg/logger"

type GinConfig struct {
	Addr        string `yaml:"addr" mapstructure:"addr"`
	EnablePprof bool   `yaml:"enablePprof" mapstructure:"enablePprof"`
}

func (GinConfig) Key() string {
	return "gin"
}

type DBConfig struct {
	Driver       string `yaml:"driver" mapstructure:"driver"` // mysql / postgres
	DSN          string `yaml:"dsn" mapstructure:"dsn"`
	MaxOpenConns int    `yaml:"maxOpenConns" mapstructure:"maxOpenConns"`
	MaxIdleConns int    `yaml:"maxIdleConns" mapstructure:"maxIdleConns"`
	AutoMigrate  bool   `yaml:"autoMigrate" mapstructure:"autoMigrate"`
}

func (DBConfig) Key() string {
	return "db"
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

func (RedisConfig) Key() string {
	return "redis"
}

type KafkaConfig struct {
	Addrs []string `yaml:"addrs" mapstructure:"addrs"`
}

func (KafkaConfig) Key() string {
	return "kafka"
}

type JudgeConfig struct {
	BaseURL    string `yaml:"baseURL" mapstructure:"baseURL"`
	Token      string `yaml:"token" mapstructure:"token"`           // 静态 bearer token, 与 signingKey 二选一
	SigningKey string `yaml:"signingKey" mapstructure:"signingKey"` // 配置后每次调用签发短期 JWT
	Issuer     string `yaml:"issuer" mapstructure:"issuer"`
	TokenTTL   int    `yaml:"tokenTTL" mapstructure:"tokenTTL"`     // 单位: 秒
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"`       // 单位: 毫秒
	MaxRetries uint64 `yaml:"maxRetries" mapstructure:"maxRetries"` // 瞬时失败的重试次数
	QPS        int    `yaml:"qps" mapstructure:"qps"`
	Burst      int    `yaml:"burst" mapstructure:"burst"`
}

func (JudgeConfig) Key() string {
	return "judge"
}

type DuelConfig struct {
	SupportedTimeLimits []int `yaml:"supportedTimeLimits" mapstructure:"supportedTimeLimits"` // 单位: 秒
	ChallengeCount      int   `yaml:"challengeCount" mapstructure:"challengeCount"`
	PendingTimeout      int   `yaml:"pendingTimeout" mapstructure:"pendingTimeout"` // 单位: 分钟
	SweepBatchSize      int   `yaml:"sweepBatchSize" mapstructure:"sweepBatchSize"`
}

func (DuelConfig) Key() string {
	return "duel"
}

type SubmissionConfig struct {
	MaxCodeSize int `yaml:"maxCodeSize" mapstructure:"maxCodeSize"` // 单位: 字节, 0 表示不限制
}

func (SubmissionConfig) Key() string {
	return "submission"
}

type RealtimeConfig struct {
	ChannelPrefix string `yaml:"channelPrefix" mapstructure:"channelPrefix"`
	BufferSize    int    `yaml:"bufferSize" mapstructure:"bufferSize"`
}

func (RealtimeConfig) Key() string {
	return "realtime"
}

type LoggerConfig struct {
	logger.Config `yaml:",inline" mapstructure:",squash"`
}

func (LoggerConfig) Key() string {
	return "logger"
}
