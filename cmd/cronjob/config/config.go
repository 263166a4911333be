package config

type BaseCronJobConfig struct {
	CronExpr string `yaml:"cronExpr" mapstructure:"cronExpr"`
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // 单位: 毫秒
}

type DuelExpirySweepConfig struct {
	BaseCronJobConfig `yaml:",inline" mapstructure:",squash"`
}

func (DuelExpirySweepConfig) Key() string {
	return "duelExpirySweep"
}

type PendingDuelCleanupConfig struct {
	BaseCronJobConfig `yaml:",inline" mapstructure:",squash"`
}

func (PendingDuelCleanupConfig) Key() string {
	return "pendingDuelCleanup"
}

type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"` // 为空时不暴露 /metrics
}

func (MetricsConfig) Key() string {
	return "cronjobMetrics"
}
