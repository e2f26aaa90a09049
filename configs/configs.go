package configs

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Conf struct {
	Environment   string `mapstructure:"ENVIRONMENT"`
	OtelCollector string `mapstructure:"OTEL_COLLECTOR"`

	ChannelURL        string        `mapstructure:"CHANNEL_URL"`
	APIURL            string        `mapstructure:"API_URL"`
	APIToken          string        `mapstructure:"API_TOKEN"`
	APITimeout        time.Duration `mapstructure:"API_TIMEOUT"`
	ReconnectAttempts int           `mapstructure:"RECONNECT_ATTEMPTS"`
	ReconnectDelay    time.Duration `mapstructure:"RECONNECT_DELAY"`

	GeoTimeout          time.Duration `mapstructure:"GEO_TIMEOUT"`
	GeoInterval         time.Duration `mapstructure:"GEO_INTERVAL"`
	StrictLocationOrder bool          `mapstructure:"STRICT_LOCATION_ORDER"`

	CartNamespace string `mapstructure:"CART_NAMESPACE"`
	CartDir       string `mapstructure:"CART_DIR"`
	CartBackend   string `mapstructure:"CART_BACKEND"`

	RedisHost      string  `mapstructure:"REDIS_HOST"`
	RedisPort      string  `mapstructure:"REDIS_PORT"`
	AMQPURL        string  `mapstructure:"AMQP_URL"`
	StatusExchange string  `mapstructure:"STATUS_EXCHANGE"`
	WebServerPort  string  `mapstructure:"WEB_SERVER_PORT"`
	GRPCPort       string  `mapstructure:"GRPC_PORT"`
	LocationRate   float64 `mapstructure:"LOCATION_RATE"`
	LocationBurst  int     `mapstructure:"LOCATION_BURST"`
}

func (c *Conf) IsProduction() bool {
	return c.Environment == "production"
}

var defaults = map[string]any{
	"ENVIRONMENT":           "development",
	"OTEL_COLLECTOR":        "",
	"CHANNEL_URL":           "ws://localhost:8080/ws",
	"API_URL":               "http://localhost:5000/api",
	"API_TOKEN":             "",
	"API_TIMEOUT":           10 * time.Second,
	"RECONNECT_ATTEMPTS":    5,
	"RECONNECT_DELAY":       time.Second,
	"GEO_TIMEOUT":           5 * time.Second,
	"GEO_INTERVAL":          3 * time.Second,
	"STRICT_LOCATION_ORDER": false,
	"CART_NAMESPACE":        "eatosnap-cart",
	"CART_DIR":              ".",
	"CART_BACKEND":          "file",
	"REDIS_HOST":            "localhost",
	"REDIS_PORT":            "6379",
	"AMQP_URL":              "",
	"STATUS_EXCHANGE":       "orders.status",
	"WEB_SERVER_PORT":       "8080",
	"GRPC_PORT":             "50051",
	"LOCATION_RATE":         2.0,
	"LOCATION_BURST":        5,
}

// LoadConfig reads an optional .env in path, then the environment, then any
// flags in fs that were set. fs may be nil. A missing .env is not an error.
func LoadConfig(path string, fs *pflag.FlagSet) (*Conf, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if bindErr == nil {
				bindErr = v.BindPFlag(flagKey(f.Name), f)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	var cfg Conf
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagKey maps a kebab-case flag name to its config key: channel-url → CHANNEL_URL.
func flagKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
