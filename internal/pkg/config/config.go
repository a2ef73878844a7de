package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	App       AppConfig       `mapstructure:"app"`
	Auth      AuthConfig      `mapstructure:"auth"`
	OSS       OSSConfig       `mapstructure:"oss"`
	Push      PushConfig      `mapstructure:"push"`
	Mail      MailConfig      `mapstructure:"mail"`
	MoMo      MoMoConfig      `mapstructure:"momo"`
	Alipay    AlipayConfig    `mapstructure:"alipay"`
	Wechat    WechatPayConfig `mapstructure:"wechat"`
	Voucher   VoucherConfig   `mapstructure:"voucher"`
	Search    SearchConfig    `mapstructure:"search"`
	Stats     StatsConfig     `mapstructure:"stats"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

// DSN gorm/pgx 使用的 key=value 连接串
func (d DatabaseConfig) DSN() string {
	return "host=" + d.Host + " user=" + d.User + " password=" + d.Password +
		" dbname=" + d.DBName + " port=" + d.Port + " sslmode=" + d.SSLMode + " TimeZone=" + d.TimeZone
}

// URL golang-migrate 使用的 URL 形式
func (d DatabaseConfig) URL() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

type AppConfig struct {
	Env              string `mapstructure:"env"`
	Debug            bool   `mapstructure:"debug"`
	DefaultAvatarURL string `mapstructure:"default_avatar_url"`
	FrontendURL      string `mapstructure:"frontend_url"`
}

// IsProduction 生产环境不回显内部错误
func (a AppConfig) IsProduction() bool {
	return a.Env == "prod"
}

type AuthConfig struct {
	TempLoginTTL time.Duration `mapstructure:"temp_login_ttl"` // 临时登录令牌有效期
	LockCacheTTL time.Duration `mapstructure:"lock_cache_ttl"` // 账号锁定状态缓存
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	PresignExpire   int64  `mapstructure:"presign_expire"` // 秒
	MaxFileSize     int64  `mapstructure:"max_file_size"`  // 字节
	MaxFiles        int    `mapstructure:"max_files"`
}

type PushConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	AppKey          int64  `mapstructure:"app_key"`
	RegionID        string `mapstructure:"region_id"`
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type MoMoConfig struct {
	PartnerCode string        `mapstructure:"partner_code"`
	AccessKey   string        `mapstructure:"access_key"`
	SecretKey   string        `mapstructure:"secret_key"`
	Endpoint    string        `mapstructure:"endpoint"` // https://test-payment.momo.vn
	RedirectURL string        `mapstructure:"redirect_url"`
	IpnURL      string        `mapstructure:"ipn_url"`
	RequestType string        `mapstructure:"request_type"`
	Lang        string        `mapstructure:"lang"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type AlipayConfig struct {
	AppID        string `mapstructure:"app_id"`
	PrivateKey   string `mapstructure:"private_key"`   // 应用私钥
	PublicKey    string `mapstructure:"public_key"`    // 支付宝公钥
	NotifyURL    string `mapstructure:"notify_url"`    // 异步通知地址
	IsProduction bool   `mapstructure:"is_production"` // 是否生产环境
}

type WechatPayConfig struct {
	AppID                string `mapstructure:"app_id"`
	MchID                string `mapstructure:"mch_id"`
	MchCertificateSerial string `mapstructure:"mch_cert_serial"`
	MchPrivateKey        string `mapstructure:"mch_private_key"`
	APIv3Key             string `mapstructure:"apiv3_key"`
	NotifyURL            string `mapstructure:"notify_url"`
}

type VoucherConfig struct {
	// PerUserLimit 全局单用户上限，0 表示沿用券自身的 usageLimit
	PerUserLimit  int   `mapstructure:"per_user_limit"`
	CurrencyScale int32 `mapstructure:"currency_scale"` // 折扣保留的小数位，VND 为 0
}

type SearchConfig struct {
	BatchSize int  `mapstructure:"batch_size"`
	Accurate  bool `mapstructure:"accurate"` // 分批检索时扫描全量以得到准确的 totalPages
}

type StatsConfig struct {
	CostConcurrency int           `mapstructure:"cost_concurrency"`
	CostTimeout     time.Duration `mapstructure:"cost_timeout"`
	SkipMissingCost bool          `mapstructure:"skip_missing_cost"`
}

type RateLimitConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

var GlobalConfig Config

var envReplacer = strings.NewReplacer(".", "_")

// Validate 验证配置
func (c *Config) Validate() error {
	// JWT 配置验证
	if c.JWT.Secret == "" || c.JWT.Secret == "your_super_secret_key" {
		return errors.New("please set a secure JWT secret in production")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT secret should be at least 32 characters")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("jwt token ttl must be positive")
	}

	// 数据库配置验证
	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return errors.New("database configuration is incomplete")
	}

	// Redis 配置验证
	if c.Redis.Addr == "" {
		return errors.New("redis address is required")
	}

	if c.Search.BatchSize < 1 || c.Search.BatchSize > 500 {
		return errors.New("search.batch_size must be within [1, 500]")
	}
	if c.Stats.CostConcurrency < 1 {
		return errors.New("stats.cost_concurrency must be positive")
	}
	if c.Voucher.PerUserLimit < 0 {
		return errors.New("voucher.per_user_limit must not be negative")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "Asia/Ho_Chi_Minh")
	v.SetDefault("jwt.access_ttl", time.Hour)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.debug", true)
	v.SetDefault("auth.temp_login_ttl", time.Minute)
	v.SetDefault("auth.lock_cache_ttl", time.Minute)
	v.SetDefault("oss.presign_expire", 300)
	v.SetDefault("oss.max_file_size", 5<<20)
	v.SetDefault("oss.max_files", 5)
	v.SetDefault("mail.port", 587)
	v.SetDefault("momo.partner_code", "MOMO")
	v.SetDefault("momo.endpoint", "https://test-payment.momo.vn")
	v.SetDefault("momo.request_type", "payWithMethod")
	v.SetDefault("momo.lang", "vi")
	v.SetDefault("momo.timeout", 30*time.Second)
	v.SetDefault("voucher.per_user_limit", 0)
	v.SetDefault("voucher.currency_scale", 0)
	v.SetDefault("search.batch_size", 500)
	v.SetDefault("search.accurate", false)
	v.SetDefault("stats.cost_concurrency", 16)
	v.SetDefault("stats.cost_timeout", 5*time.Second)
	v.SetDefault("stats.skip_missing_cost", false)
	v.SetDefault("ratelimit.qps", 100)
	v.SetDefault("ratelimit.burst", 200)
}

// LoadConfig 加载配置
func LoadConfig() {
	// 获取环境变量，默认为dev
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	// 根据环境选择配置文件
	configName := "config"
	if env != "dev" {
		configName = "config." + env
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: Config file not found, using defaults or env vars: %v", err)
	}

	// 绑定环境变量 database.host -> DATABASE_HOST
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	if err := v.Unmarshal(&GlobalConfig); err != nil {
		log.Fatalf("Unable to decode into struct: %v", err)
	}

	// 兼容部署脚本中的短变量名
	if host := os.Getenv("DB_HOST"); host != "" {
		GlobalConfig.Database.Host = host
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		GlobalConfig.Redis.Addr = redisAddr
	}
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		GlobalConfig.JWT.Secret = jwtSecret
	}

	// 验证配置
	if err := GlobalConfig.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	log.Printf("Configuration loaded and validated successfully. Environment: %s", GlobalConfig.App.Env)
}
