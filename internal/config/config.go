package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Leader    LeaderConfig    `mapstructure:"leader"`
	Instance  InstanceConfig  `mapstructure:"instance"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Lock      LockConfig      `mapstructure:"lock"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	BiddingPort int    `mapstructure:"bidding_port"`
	Host        string `mapstructure:"host"`
}

// StoreConfig selects the persistence backend: "memory" or "mysql".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Migrate         bool          `mapstructure:"migrate"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

type SchedulerConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type LockConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	WaitTimeout   time.Duration `mapstructure:"wait_timeout"`
}

// AuthConfig signs tokens. When AdminUsername is set an ADMIN account with
// that name is created at startup if it does not exist yet.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.bidding_port", 8081)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true&loc=UTC")
	v.SetDefault("mysql.max_open_conns", 25)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("mysql.migrate", true)
	v.SetDefault("leader.ttl", 30*time.Second)
	v.SetDefault("instance.id", "auction-service-1")
	v.SetDefault("scheduler.sweep_interval", 60*time.Second)
	v.SetDefault("lock.ttl", 10*time.Second)
	v.SetDefault("lock.retry_interval", 25*time.Millisecond)
	v.SetDefault("lock.wait_timeout", 5*time.Second)
	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_username", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("log.level", "info")
}

func bindEnv(v *viper.Viper) {
	bindings := map[string]string{
		"server.port":              "SERVER_PORT",
		"server.bidding_port":      "SERVER_BIDDING_PORT",
		"server.host":              "SERVER_HOST",
		"store.driver":             "STORE_DRIVER",
		"redis.enabled":            "REDIS_ENABLED",
		"redis.address":            "REDIS_ADDRESS",
		"redis.password":           "REDIS_PASSWORD",
		"redis.db":                 "REDIS_DB",
		"mysql.dsn":                "MYSQL_DSN",
		"mysql.max_open_conns":     "MYSQL_MAX_OPEN_CONNS",
		"mysql.max_idle_conns":     "MYSQL_MAX_IDLE_CONNS",
		"mysql.conn_max_lifetime":  "MYSQL_CONN_MAX_LIFETIME",
		"mysql.migrate":            "MYSQL_MIGRATE",
		"leader.ttl":               "LEADER_TTL",
		"instance.id":              "INSTANCE_ID",
		"scheduler.sweep_interval": "SCHEDULER_SWEEP_INTERVAL",
		"lock.ttl":                 "LOCK_TTL",
		"lock.retry_interval":      "LOCK_RETRY_INTERVAL",
		"lock.wait_timeout":        "LOCK_WAIT_TIMEOUT",
		"auth.jwt_secret":          "AUTH_JWT_SECRET",
		"auth.token_ttl":           "AUTH_TOKEN_TTL",
		"auth.admin_username":      "AUTH_ADMIN_USERNAME",
		"auth.admin_password":      "AUTH_ADMIN_PASSWORD",
		"log.level":                "LOG_LEVEL",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/lot-auction/")

	v.AutomaticEnv()
	bindEnv(v)

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "mysql":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Scheduler.SweepInterval < time.Second {
		return fmt.Errorf("config: sweep interval %s is below one second", c.Scheduler.SweepInterval)
	}
	if c.Lock.WaitTimeout <= 0 {
		return errors.New("config: lock wait timeout must be positive")
	}
	if c.Auth.AdminUsername != "" && c.Auth.AdminPassword == "" {
		return errors.New("config: admin password is required when admin username is set")
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d (bidding %d), Store: %s, Redis: %s (enabled=%t), Instance: %s, Sweep: %s",
		c.Server.Host,
		c.Server.Port,
		c.Server.BiddingPort,
		c.Store.Driver,
		c.Redis.Address,
		c.Redis.Enabled,
		c.Instance.ID,
		c.Scheduler.SweepInterval,
	)
}
