package config

import (
	"github.com/blues/mss/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Task       TaskConfig       `mapstructure:"task"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig 链配置
type ChainConfig struct {
	ChainId      int64  `mapstructure:"chain_id"`      // 链ID
	RpcUrl       string `mapstructure:"rpc_url"`       // RPC节点URL
	PrivateKey   string `mapstructure:"private_key"`   // 私钥
	ContractAddr string `mapstructure:"contract_addr"` // 众筹合约地址
	StartBlock   uint64 `mapstructure:"start_block"`   // 起始区块号
	BatchSize    uint64 `mapstructure:"batch_size"`    // 每次扫描的区块数
}

// SettlementConfig 结算配置
type SettlementConfig struct {
	MaxRetries     uint `mapstructure:"max_retries"`      // 单次结算的最大重试次数
	RetryBaseSecs  int  `mapstructure:"retry_base_secs"`  // 重试初始间隔（秒）
	SweepBatchSize int  `mapstructure:"sweep_batch_size"` // 每轮对账处理的最大记录数
}

// NotifyConfig 通知配置
type NotifyConfig struct {
	WebhookUrl       string `mapstructure:"webhook_url"`        // 提醒服务的webhook地址
	TimeoutSecs      int    `mapstructure:"timeout_secs"`       // 请求超时（秒）
	PendingProofDays int    `mapstructure:"pending_proof_days"` // 证明挂起多少天后提醒
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/mss")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "milestone")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("chain.start_block", 0)
	viper.SetDefault("chain.batch_size", 100)
	viper.SetDefault("settlement.max_retries", 5)
	viper.SetDefault("settlement.retry_base_secs", 2)
	viper.SetDefault("settlement.sweep_batch_size", 50)
	viper.SetDefault("notify.timeout_secs", 5)
	viper.SetDefault("notify.pending_proof_days", 3)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
