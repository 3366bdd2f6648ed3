// =============================================================================
// 📦 aceceed-edge 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + .env 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("configs/default.yaml").
//	    WithDotEnv(".env").
//	    WithEnvPrefix("ACECEED").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → .env 文件 → 环境变量 → 兼容别名
// =============================================================================
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// DefaultEnvPrefix 环境变量默认前缀
const DefaultEnvPrefix = "ACECEED"

// ConfigPathEnv 指定配置文件路径的环境变量
const ConfigPathEnv = "ACECEED_CONFIG"

// defaultConfigCandidates 未显式指定时按顺序探测的配置文件
var defaultConfigCandidates = []string{
	"configs/default.yaml",
	"../../configs/default.yaml",
}

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	dotEnvPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  DefaultEnvPrefix,
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithDotEnv 设置 .env 文件路径，文件中的值不会覆盖已存在的进程环境变量
func (l *Loader) WithDotEnv(path string) *Loader {
	l.dotEnvPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. .env 文件只补充缺失的环境变量
	if l.dotEnvPath != "" {
		if err := l.loadDotEnv(); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	// 4. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 5. 兼容旧版短变量名
	if err := applyLegacyAliases(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env aliases: %w", err)
	}

	// 6. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", l.configPath, err)
	}

	return nil
}

// loadDotEnv 加载 .env 文件，文件不存在时忽略
func (l *Loader) loadDotEnv() error {
	if _, err := os.Stat(l.dotEnvPath); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(l.dotEnvPath)
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			field.Set(reflect.ValueOf(splitList(value)))
		}
	}

	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyLegacyAliases 处理早期部署脚本使用的短变量名
func applyLegacyAliases(cfg *Config) error {
	strAliases := map[string]*string{
		"ACECEED_LLAMA_SERVER_URL": &cfg.LLM.Local.LlamaServerURL,
		"ACECEED_LLAMA_MODEL_PATH": &cfg.LLM.Local.ModelPath,
		"ACECEED_STT_BIN":          &cfg.STT.WhisperCpp.BinPath,
		"ACECEED_STT_MODEL":        &cfg.STT.WhisperCpp.ModelPath,
		"ACECEED_TTS_BIN":          &cfg.TTS.Piper.BinPath,
		"ACECEED_TTS_VOICE":        &cfg.TTS.Piper.VoicePath,
		"ACECEED_VISION_BACKEND":   &cfg.Vision.Capture.Backend,
		"ACECEED_RAG_INDEX":        &cfg.RAG.IndexPath,
		"ACECEED_RAG_GRADE":        &cfg.RAG.GradeBand,
	}
	for key, dst := range strAliases {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("ACECEED_AUDIO_DEVICE"); v != "" {
		cfg.Audio.Input.Device = v
		cfg.Audio.Output.Device = v
	}
	if v := os.Getenv("ACECEED_RAG_SUBJECTS"); v != "" {
		cfg.RAG.Subjects = splitList(v)
	}
	if v := os.Getenv("ACECEED_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ACECEED_API_PORT %q: %w", v, err)
		}
		cfg.Server.HTTPPort = port
	}
	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// ResolveConfigPath 解析配置文件路径
// 优先级: 显式参数 → ACECEED_CONFIG → 默认候选路径；都不存在时返回空字符串
func ResolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(ConfigPathEnv); env != "" {
		return env
	}
	for _, candidate := range defaultConfigCandidates {
		if abs, err := filepath.Abs(candidate); err == nil {
			if _, err := os.Stat(abs); err == nil {
				return abs
			}
		}
	}
	return ""
}
