package config

import (
	"time"

	"github.com/blues/cps/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	PayPal    PayPalConfig    `mapstructure:"paypal"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Log       LogConfig       `mapstructure:"log"`
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

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 访问令牌与刷新令牌配置
type JWTConfig struct {
	Secret          string `mapstructure:"secret"`            // 签名密钥
	Issuer          string `mapstructure:"issuer"`            // 签发方
	AccessTTLMin    int    `mapstructure:"access_ttl_min"`    // 访问令牌有效期（分钟）
	RefreshTTLHours int    `mapstructure:"refresh_ttl_hours"` // 刷新令牌有效期（小时）
}

// AccessTTL 访问令牌有效时长
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTTLMin) * time.Minute
}

// RefreshTTL 刷新令牌有效时长
func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTTLHours) * time.Hour
}

// PayPalConfig PayPal Orders v2 接入配置
type PayPalConfig struct {
	BaseURL      string `mapstructure:"base_url"`      // 沙箱或生产环境地址
	ClientID     string `mapstructure:"client_id"`     // 应用 Client ID
	ClientSecret string `mapstructure:"client_secret"` // 应用 Secret
	ReturnURL    string `mapstructure:"return_url"`    // 支付成功跳转
	CancelURL    string `mapstructure:"cancel_url"`    // 支付取消跳转
	TimeoutSec   int    `mapstructure:"timeout_sec"`   // 请求超时（秒）
}

// PaymentConfig 支付业务策略配置
type PaymentConfig struct {
	AmountTolerance    float64 `mapstructure:"amount_tolerance"`     // 捕获金额允许的误差
	StrictAmountCheck  bool    `mapstructure:"strict_amount_check"`  // 金额不符时是否中止确认
	PendingTTLMin      int     `mapstructure:"pending_ttl_min"`      // 待支付记录过期时间（分钟）
	PlatformFeeRate    float64 `mapstructure:"platform_fee_rate"`    // 平台费率
	ProcessingFeeRate  float64 `mapstructure:"processing_fee_rate"`  // 渠道费率
	ProcessingFeeFixed float64 `mapstructure:"processing_fee_fixed"` // 渠道单笔固定费用
}

// PendingTTL 待支付记录过期时长
func (p PaymentConfig) PendingTTL() time.Duration {
	return time.Duration(p.PendingTTLMin) * time.Minute
}

type SchedulerConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

// NotifyConfig 通知派发配置
type NotifyConfig struct {
	PoolSize int `mapstructure:"pool_size"` // 通知协程池大小
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
	viper.AddConfigPath("/etc/cps")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "crowdfunding")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.issuer", "cps")
	viper.SetDefault("jwt.access_ttl_min", 15)
	viper.SetDefault("jwt.refresh_ttl_hours", 168)
	viper.SetDefault("paypal.base_url", "https://api-m.sandbox.paypal.com")
	viper.SetDefault("paypal.timeout_sec", 30)
	viper.SetDefault("payment.amount_tolerance", 0.01)
	viper.SetDefault("payment.strict_amount_check", false)
	viper.SetDefault("payment.pending_ttl_min", 30)
	viper.SetDefault("payment.platform_fee_rate", 0.05)
	viper.SetDefault("payment.processing_fee_rate", 0.029)
	viper.SetDefault("payment.processing_fee_fixed", 0.3)
	viper.SetDefault("scheduler.interval", 60)
	viper.SetDefault("notify.pool_size", 8)
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
