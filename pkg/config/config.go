// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/wyfcoding/papertrading/pkg/logger"
)

// Config 引擎配置根结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 查询接口配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 数据库配置
	Database DatabaseConfig `mapstructure:"database"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置（可选，brokers 为空时关闭事件发布与行情消费）
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger logger.Config `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 模拟引擎配置
	Engine EngineConfig `mapstructure:"engine"`
	// 投资者目录
	Investors []InvestorConfig `mapstructure:"investors"`
	// 标的目录
	Instruments []InstrumentConfig `mapstructure:"instruments"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 数据源名称
	DSN string `mapstructure:"dsn"`
	// 最大连接数
	MaxOpenConns int `mapstructure:"max_open_conns"`
	// 最大空闲连接数
	MaxIdleConns int `mapstructure:"max_idle_conns"`
	// 连接最大生命周期（秒）
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime"`
	// 是否启用 SQL 日志
	LogEnabled bool `mapstructure:"log_enabled"`
	// 慢查询阈值（毫秒）
	SlowQueryThreshold int `mapstructure:"slow_query_threshold"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	MaxPoolSize  int    `mapstructure:"max_pool_size"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	// Broker 地址列表
	Brokers []string `mapstructure:"brokers"`
	// 交易事件主题
	TradeTopic string `mapstructure:"trade_topic"`
	// 权益快照主题
	EquityTopic string `mapstructure:"equity_topic"`
	// 行情消费主题
	QuoteTopic string `mapstructure:"quote_topic"`
	// 行情消费 Group ID
	GroupID string `mapstructure:"group_id"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// EngineConfig 模拟引擎配置
type EngineConfig struct {
	// 快周期间隔（秒）：行情 + 策略 + 成交 + 结算
	FastIntervalSeconds int `mapstructure:"fast_interval_seconds"`
	// 慢周期间隔为快周期的倍数：刷新日线窗口
	SlowIntervalMultiple int `mapstructure:"slow_interval_multiple"`
	// 单轮总超时（秒）
	CycleTimeoutSeconds int `mapstructure:"cycle_timeout_seconds"`
	// 初始资金（USD）
	InitialCapital string `mapstructure:"initial_capital"`
	// 最小成交金额（USD），低于则拒绝
	MinTradeNotional string `mapstructure:"min_trade_notional"`
	// 日线窗口长度（交易日）
	CandleWindowDays int `mapstructure:"candle_window_days"`
	// 行情模拟器随机种子，0 表示按时间取种
	QuoteSeed int64 `mapstructure:"quote_seed"`
}

// InvestorConfig 单个投资者的目录项
type InvestorConfig struct {
	ID      string `mapstructure:"id"`
	Name    string `mapstructure:"name"`
	Persona string `mapstructure:"persona"`
	// 角色阈值参数（百分比、金额等，按角色解释）
	Params map[string]string `mapstructure:"params"`
}

// InstrumentConfig 单个标的的目录项
type InstrumentConfig struct {
	Symbol string `mapstructure:"symbol"`
	Name   string `mapstructure:"name"`
}

// Load 从 TOML 文件加载配置，支持 APP_ 前缀环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate 验证配置的有效性。目录缺失视为致命错误，进程不应启动。
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if len(c.Investors) == 0 {
		return fmt.Errorf("investor catalog is empty")
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("instrument list is empty")
	}
	seen := make(map[string]bool, len(c.Investors))
	for _, inv := range c.Investors {
		if inv.ID == "" || inv.Persona == "" {
			return fmt.Errorf("investor entry requires id and persona")
		}
		if seen[inv.ID] {
			return fmt.Errorf("duplicate investor id: %s", inv.ID)
		}
		seen[inv.ID] = true
	}
	for _, ins := range c.Instruments {
		if ins.Symbol == "" {
			return fmt.Errorf("instrument entry requires symbol")
		}
	}
	if c.Engine.FastIntervalSeconds <= 0 {
		return fmt.Errorf("engine.fast_interval_seconds must be positive")
	}
	if c.Engine.SlowIntervalMultiple <= 0 {
		return fmt.Errorf("engine.slow_interval_multiple must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 1000)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("kafka.trade_topic", "papertrading.trade.executed")
	v.SetDefault("kafka.equity_topic", "papertrading.equity.settled")
	v.SetDefault("kafka.quote_topic", "market.price")
	v.SetDefault("kafka.group_id", "papertrading-engine")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/engine.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("engine.fast_interval_seconds", 60)
	v.SetDefault("engine.slow_interval_multiple", 10)
	v.SetDefault("engine.cycle_timeout_seconds", 45)
	v.SetDefault("engine.initial_capital", "1000000")
	v.SetDefault("engine.min_trade_notional", "100")
	v.SetDefault("engine.candle_window_days", 7)
	v.SetDefault("engine.quote_seed", 0)
}
