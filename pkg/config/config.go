package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	LogLevel string

	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers  []string
	RepairTopic   string
	CheckoutTopic string

	JWTSecret string
}

// Load reads configuration from an optional config file plus environment
// variables (CART_HTTP_PORT, CART_MONGO_URI, ...). Environment wins.
func Load(configPath string) (*Config, *viper.Viper, error) {
	v := viper.New()

	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_port", "8080")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db_name", "cartdb")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("kafka_brokers", []string{})
	v.SetDefault("repair_topic", "cart-repairs")
	v.SetDefault("checkout_topic", "checkout-completed")
	v.SetDefault("jwt_secret", "dev-secret-change-me")

	v.SetEnvPrefix("CART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, err
		}
	}

	cfg := &Config{
		Env:             v.GetString("env"),
		LogLevel:        v.GetString("log_level"),
		HTTPPort:        v.GetString("http_port"),
		RequestTimeout:  v.GetDuration("request_timeout"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		MongoURI:        v.GetString("mongo_uri"),
		MongoDBName:     v.GetString("mongo_db_name"),
		RedisAddr:       v.GetString("redis_addr"),
		RedisPassword:   v.GetString("redis_password"),
		KafkaBrokers:    v.GetStringSlice("kafka_brokers"),
		RepairTopic:     v.GetString("repair_topic"),
		CheckoutTopic:   v.GetString("checkout_topic"),
		JWTSecret:       v.GetString("jwt_secret"),
	}
	return cfg, v, nil
}
