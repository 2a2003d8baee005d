// Package config 加载服务配置：默认值 -> YAML 文件 -> 环境变量，逐层覆盖。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/listingrec/catalog"
	"github.com/rushteam/listingrec/core"
	"github.com/rushteam/listingrec/feature"
)

// EnvPrefix 是环境变量前缀；层级用双下划线分隔：
// LISTINGREC_DATABASE__MAX_OPEN_CONNS -> database.max_open_conns
const EnvPrefix = "LISTINGREC_"

// ConfigPathEnvVar 可以覆盖配置文件路径
const ConfigPathEnvVar = "LISTINGREC_CONFIG"

// DefaultConfigPaths 按顺序查找配置文件，使用第一个存在的
var DefaultConfigPaths = []string{
	"listingrec.yaml",
	"listingrec.yml",
	"/etc/listingrec/config.yaml",
}

// 不带前缀的兼容变量
var envMappings = map[string]string{
	"DATABASE_URL": "database.dsn",
	"REDIS_ADDR":   "redis.addr",
	"LOG_LEVEL":    "logging.level",
}

// 目录来源
const (
	SourcePostgres = "postgres"
	SourceFile     = "file"
)

// Config 是服务的完整配置
type Config struct {
	Server     ServerConfig           `koanf:"server"`
	Database   catalog.PostgresConfig `koanf:"database"`
	Catalog    CatalogConfig          `koanf:"catalog"`
	Redis      RedisConfig            `koanf:"redis"`
	Similarity SimilarityConfig       `koanf:"similarity"`
	Recommend  RecommendConfig        `koanf:"recommend"`
	Logging    LoggingConfig          `koanf:"logging"`
}

// ServerConfig HTTP 服务
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// CatalogConfig 目录来源与快照刷新
type CatalogConfig struct {
	Source          string        `koanf:"source" validate:"oneof=postgres file"`
	File            string        `koanf:"file" validate:"required_if=Source file"`
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gte=0"`
	LoadTimeout     time.Duration `koanf:"load_timeout" validate:"gte=0"`
}

// RedisConfig 目录快照的共享二级缓存（可选）
type RedisConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr" validate:"required_if=Enabled true"`
	DB      int    `koanf:"db" validate:"gte=0"`
	Key     string `koanf:"key"`
}

// SimilarityConfig 相似度计算
type SimilarityConfig struct {
	// Normalization: fixed（默认）/ observed
	Normalization string         `koanf:"normalization" validate:"omitempty,oneof=fixed observed"`
	Ranges        feature.Ranges `koanf:"ranges"`
	// WeightsFile 启动时加载的权重文件，为空使用默认权重
	WeightsFile string `koanf:"weights_file"`
}

// RecommendConfig 打分并发
type RecommendConfig struct {
	ChunkSize     int `koanf:"chunk_size" validate:"gte=0"`
	MaxConcurrent int `koanf:"max_concurrent" validate:"gte=0"`
}

// LoggingConfig 日志
type LoggingConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	File  string `koanf:"file"`
}

// Default 返回全部默认值
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: catalog.DefaultPostgresConfig(),
		Catalog: CatalogConfig{
			Source:          SourcePostgres,
			RefreshInterval: core.DefaultRefreshInterval,
			LoadTimeout:     30 * time.Second,
		},
		Redis: RedisConfig{
			Key: catalog.DefaultSharedKey,
		},
		Similarity: SimilarityConfig{
			Normalization: string(feature.NormalizationFixed),
			Ranges:        feature.DefaultRanges(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load 按 默认值 -> 配置文件 -> 环境变量 的顺序加载并校验配置。
// path 为空时依次查找 LISTINGREC_CONFIG 与 DefaultConfigPaths，找不到文件不算错误。
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Read 与 Load 相同但不做校验，调用方（例如命令行参数覆盖）修改后需自行调用 Validate。
func Read(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc 把环境变量名映射为 koanf 路径；返回空字符串的变量被忽略。
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	if !strings.HasPrefix(key, EnvPrefix) || key == ConfigPathEnvVar {
		return ""
	}
	k := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(k, "__", ".")
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate 校验结构约束以及跨字段规则
func (c *Config) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	var errs []error
	// Postgres 只在作为目录来源时校验
	target := *c
	if c.Catalog.Source != SourcePostgres {
		target.Database = catalog.DefaultPostgresConfig()
		target.Database.DSN = "unused"
	}
	if err := validate.Struct(&target); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %q validation", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err)
		}
	}
	if err := c.Similarity.Ranges.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Normalization 解析后的归一化方式
func (c *Config) Normalization() feature.Normalization {
	n, err := feature.ParseNormalization(c.Similarity.Normalization)
	if err != nil {
		return feature.NormalizationFixed
	}
	return n
}
