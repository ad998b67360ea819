package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config 应用程序配置
type Config struct {
	APIPort     int
	LogLevel    string
	LogFile     LogFileConfig
	BaseURL     string // 本服务对外地址，用于支付回调与Webhook通知
	Database    DatabaseConfig
	Redis       RedisConfig
	MercadoPago MercadoPagoConfig
	SuperFrete  SuperFreteConfig
	Policy      PolicyConfig
}

// DatabaseConfig MySQL数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// MercadoPagoConfig 支付网关配置
type MercadoPagoConfig struct {
	Environment string // sandbox 或 production
	BaseURL     string
	AccessToken string
}

// SuperFreteConfig 物流网关配置
type SuperFreteConfig struct {
	Environment string // sandbox 或 production
	BaseURL     string
	Token       string
	UserAgent   string
}

// PolicyConfig 交易策略配置
type PolicyConfig struct {
	FeePercent               int // 平台手续费百分比
	BuyerApprovalDays        int // 收货后买家确认期（天）
	AuctionPaymentWindowDays int // 拍卖成交后的付款期限（天）
	ShippingPostDeadlineDays int // 付款后卖家发货期限（天）
}

// 网关默认地址，未显式配置BaseURL时按环境选择
const (
	mercadoPagoDefaultURL   = "https://api.mercadopago.com"
	superFreteProductionURL = "https://api.superfrete.com/api/v0"
	superFreteSandboxURL    = "https://sandbox.superfrete.com/api/v0"
)

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 加载.env文件
	err := godotenv.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{
		APIPort:  getEnvInt("API_PORT", 8080),
		LogLevel: os.Getenv("LOG_LEVEL"),
		BaseURL:  os.Getenv("BASE_URL"),
		LogFile: LogFileConfig{
			Enabled:    os.Getenv("LOG_FILE_ENABLED") == "true",
			Path:       os.Getenv("LOG_FILE_PATH"),
			MaxSize:    getEnvInt("LOG_FILE_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_FILE_MAX_BACKUPS", 7),
			MaxAge:     getEnvInt("LOG_FILE_MAX_AGE", 30),
			Compress:   os.Getenv("LOG_FILE_COMPRESS") == "true",
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnvInt("DB_PORT", 3306),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		MercadoPago: MercadoPagoConfig{
			Environment: getEnvDefault("MP_ENVIRONMENT", "sandbox"),
			BaseURL:     os.Getenv("MP_BASE_URL"),
			AccessToken: os.Getenv("MP_ACCESS_TOKEN"),
		},
		SuperFrete: SuperFreteConfig{
			Environment: getEnvDefault("SUPERFRETE_ENVIRONMENT", "sandbox"),
			BaseURL:     os.Getenv("SUPERFRETE_BASE_URL"),
			Token:       os.Getenv("SUPERFRETE_TOKEN"),
			UserAgent:   getEnvDefault("SUPERFRETE_USER_AGENT", "jianlou/1.0"),
		},
		Policy: PolicyConfig{
			FeePercent:               getEnvInt("POLICY_FEE_PERCENT", 10),
			BuyerApprovalDays:        getEnvInt("POLICY_BUYER_APPROVAL_DAYS", 3),
			AuctionPaymentWindowDays: getEnvInt("POLICY_AUCTION_PAYMENT_WINDOW_DAYS", 4),
			ShippingPostDeadlineDays: getEnvInt("POLICY_SHIPPING_POST_DEADLINE_DAYS", 7),
		},
	}

	// 未显式配置网关地址时按环境选择默认地址
	if cfg.MercadoPago.BaseURL == "" {
		// MercadoPago沙箱与生产共用同一域名，按凭证区分环境
		cfg.MercadoPago.BaseURL = mercadoPagoDefaultURL
	}
	if cfg.SuperFrete.BaseURL == "" {
		if cfg.SuperFrete.Environment == "production" {
			cfg.SuperFrete.BaseURL = superFreteProductionURL
		} else {
			cfg.SuperFrete.BaseURL = superFreteSandboxURL
		}
	}

	return cfg, nil
}

// getEnvInt 读取整数环境变量，解析失败时返回默认值
func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvDefault 读取环境变量，为空时返回默认值
func getEnvDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
