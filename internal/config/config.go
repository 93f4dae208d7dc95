package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 结构体包含所有应用的配置
type Config struct {
	Server       ServerConfig       `mapstructure:"server"` // `mapstructure` 标签用于Viper绑定结构体
	MySQL        MySQLConfig        `mapstructure:"mysql"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Storage      StorageConfig      `mapstructure:"storage"`
	MinIO        MinIOConfig        `mapstructure:"minio"`
	AliyunOSS    AliyunOSSConfig    `mapstructure:"aliyun_oss"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
	Verification VerificationConfig `mapstructure:"verification"`
	Thumbnail    ThumbnailConfig    `mapstructure:"thumbnail"`
	Log          LogConfig          `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port   string `mapstructure:"port"`
	Domain string `mapstructure:"domain"` // 用于拼接文件访问URL
}

// MySQLConfig 数据库配置
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// StorageConfig 文件存储配置
// Type 可选 local / minio / aliyun_oss
type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalBasePath string `mapstructure:"local_base_path"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"` // 单文件上传上限（字节）
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

type AliyunOSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"` // 例如: oss-cn-hangzhou.aliyuncs.com
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
}

// SMTPConfig 邮件发送配置
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"` // 邮箱授权码
	From     string `mapstructure:"from"`
}

// VerificationConfig 验证码子系统配置
// 默认值见 DefaultVerification
type VerificationConfig struct {
	CodeTTL          time.Duration `mapstructure:"code_ttl"`           // 验证码有效期
	RateLimitWindow  time.Duration `mapstructure:"rate_limit_window"`  // 同一邮箱同类型的发送间隔
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`     // 后台清理周期
	MaxAttempts      int           `mapstructure:"max_attempts"`       // 最大尝试次数
	MaxCodesPerEmail int           `mapstructure:"max_codes_per_email"`
}

// DefaultVerification 返回验证码子系统的默认配置
func DefaultVerification() VerificationConfig {
	return VerificationConfig{
		CodeTTL:          5 * time.Minute,
		RateLimitWindow:  60 * time.Second,
		SweepInterval:    10 * time.Minute,
		MaxAttempts:      3,
		MaxCodesPerEmail: 3,
	}
}

// ThumbnailConfig 缩略图生成配置
type ThumbnailConfig struct {
	MaxWidth  int `mapstructure:"max_width"`
	MaxHeight int `mapstructure:"max_height"`
	Quality   int `mapstructure:"quality"`
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

var AppConfig *Config // 全局应用配置实例

// LoadConfig 加载配置
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")            // 配置文件名 (不带扩展名)
	viper.SetConfigType("yaml")              // 配置文件类型
	viper.AddConfigPath(".")                 // 在当前目录查找配置文件
	viper.AddConfigPath("./configs")         // 也可以添加其他路径，例如 ./configs/
	viper.AddConfigPath("/etc/go-gallery/")  // 生产环境常见路径

	// 读取环境变量，环境变量名将自动转换为大写，并用下划线替换点
	// 例如：SERVER.PORT 对应环境变量 GO_GALLERY_SERVER_PORT
	viper.SetEnvPrefix("GO_GALLERY")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 验证码子系统默认值（配置文件可覆盖）
	def := DefaultVerification()
	viper.SetDefault("verification.code_ttl", def.CodeTTL)
	viper.SetDefault("verification.rate_limit_window", def.RateLimitWindow)
	viper.SetDefault("verification.sweep_interval", def.SweepInterval)
	viper.SetDefault("verification.max_attempts", def.MaxAttempts)
	viper.SetDefault("verification.max_codes_per_email", def.MaxCodesPerEmail)

	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local_base_path", "./storage/uploads")
	viper.SetDefault("storage.max_upload_size", int64(100*1024*1024))
	viper.SetDefault("thumbnail.max_width", 300)
	viper.SetDefault("thumbnail.max_height", 300)
	viper.SetDefault("thumbnail.quality", 80)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件未找到，依赖环境变量或默认值
			log.Println("Warning: config file not found, using environment variables or default values.")
		} else {
			log.Fatalf("Fatal error reading config file: %s \n", err)
			return nil, err
		}
	}

	// 将读取到的配置绑定到结构体
	AppConfig = &Config{}
	if err := viper.Unmarshal(AppConfig); err != nil {
		log.Fatalf("Fatal error unmarshaling config: %s \n", err)
		return nil, err
	}

	log.Println("Configuration loaded successfully with Viper.")
	return AppConfig, nil
}
