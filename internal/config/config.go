package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/landpermit-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Land      LandConfig       `yaml:"land" mapstructure:"land"`
	Districts []model.District `yaml:"districts" mapstructure:"districts" validate:"required,min=1,dive"`
	Geocode   GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Telegram  TelegramConfig   `yaml:"telegram" mapstructure:"telegram"`
	Proxy     ProxyConfig      `yaml:"proxy" mapstructure:"proxy"`
	Cache     CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Output    OutputConfig     `yaml:"output" mapstructure:"output"`
	Report    ReportConfig     `yaml:"report" mapstructure:"report"`
	Metrics   MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Log       LogConfig        `yaml:"log" mapstructure:"log"`
}

// LandConfig configures the Seoul land information system endpoint.
type LandConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"gt=0"`
}

// GeocodeConfig holds Kakao Local API settings.
type GeocodeConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
	ThrottleMS int    `yaml:"throttle_ms" mapstructure:"throttle_ms" validate:"gte=0"`
	CityPrefix string `yaml:"city_prefix" mapstructure:"city_prefix"`
}

// TelegramConfig holds bot credentials and message sizing.
type TelegramConfig struct {
	Token       string `yaml:"token" mapstructure:"token"`
	ChatID      string `yaml:"chat_id" mapstructure:"chat_id"`
	APIEndpoint string `yaml:"api_endpoint" mapstructure:"api_endpoint"`
	ChunkSize   int    `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gt=0,lte=4096"`
}

// ProxyConfig routes outbound HTTP through a forward proxy.
type ProxyConfig struct {
	HTTP    string `yaml:"http" mapstructure:"http" validate:"omitempty,url"`
	HTTPS   string `yaml:"https" mapstructure:"https" validate:"omitempty,url"`
	NoProxy string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig selects the address cache backend.
type CacheConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver" validate:"oneof=json sqlite postgres memory"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OutputConfig names the export files. Empty paths disable that export.
type OutputConfig struct {
	RawCSV   string `yaml:"raw_csv" mapstructure:"raw_csv"`
	DedupCSV string `yaml:"dedup_csv" mapstructure:"dedup_csv"`
	XLSXPath string `yaml:"xlsx_path" mapstructure:"xlsx_path"`
}

// ReportConfig configures the chat reports.
type ReportConfig struct {
	FocusDistrict string `yaml:"focus_district" mapstructure:"focus_district"`
	FocusDong     string `yaml:"focus_dong" mapstructure:"focus_dong"`
	Timezone      string `yaml:"timezone" mapstructure:"timezone"`
}

// MetricsConfig configures the Prometheus textfile written after each run
// and the post-run alert thresholds.
type MetricsConfig struct {
	Textfile             string  `yaml:"textfile" mapstructure:"textfile"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold" validate:"gte=0,lte=1"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url" validate:"omitempty,url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional and never overrides variables already set.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LANDPERMIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("land.base_url", "https://land.seoul.go.kr")
	v.SetDefault("land.timeout_secs", 10)
	v.SetDefault("districts", defaultDistricts())
	v.SetDefault("geocode.base_url", "https://dapi.kakao.com")
	v.SetDefault("geocode.throttle_ms", 100)
	v.SetDefault("geocode.city_prefix", "서울특별시")
	v.SetDefault("telegram.api_endpoint", "https://api.telegram.org/bot%s/%s")
	v.SetDefault("telegram.chunk_size", 4000)
	v.SetDefault("cache.driver", "json")
	v.SetDefault("cache.path", "address_data.json")
	v.SetDefault("output.raw_csv", "permission_list.csv")
	v.SetDefault("output.dedup_csv", "permission_list_dedup.csv")
	v.SetDefault("report.focus_district", "서초구")
	v.SetDefault("report.focus_dong", "우면동")
	v.SetDefault("report.timezone", "Asia/Seoul")
	v.SetDefault("metrics.failure_rate_threshold", 0.5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Keys without defaults are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{
		"geocode.api_key", "telegram.token", "telegram.chat_id",
		"proxy.http", "proxy.https", "proxy.no_proxy",
		"cache.database_url", "output.xlsx_path", "metrics.textfile",
		"metrics.webhook_url",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func defaultDistricts() []map[string]string {
	out := make([]map[string]string, 0, len(model.DefaultDistricts))
	for _, d := range model.DefaultDistricts {
		out = append(out, map[string]string{"name": d.Name, "code": d.Code})
	}
	return out
}

var validate = validator.New()

// Validate checks field presence and enumerations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return eris.Wrap(err, "config: validate")
	}
	return nil
}

// ValidateNotify checks the settings the chat delivery needs.
func (c *Config) ValidateNotify() error {
	if c.Telegram.Token == "" {
		return eris.New("config: telegram.token is required (LANDPERMIT_TELEGRAM_TOKEN)")
	}
	if c.Telegram.ChatID == "" {
		return eris.New("config: telegram.chat_id is required (LANDPERMIT_TELEGRAM_CHAT_ID)")
	}
	return nil
}

// District returns the configured district with the given name.
func (c *Config) District(name string) (model.District, bool) {
	for _, d := range c.Districts {
		if d.Name == name {
			return d, true
		}
	}
	return model.District{}, false
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
