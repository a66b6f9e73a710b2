package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/tictactoe/internal/entity"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	LogLevel   string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string        `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Storage    string        `yaml:"storage" env:"STORAGE" env-default:"memory"`
	SessionTTL time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"24h"`
	Redis      Redis         `yaml:"redis"`
	AI         AI            `yaml:"ai"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// AI holds the defaults for new games.
type AI struct {
	AutoPlay   bool          `yaml:"auto-play" env:"AI_AUTO_PLAY" env-default:"false"`
	Difficulty int           `yaml:"difficulty" env:"AI_DIFFICULTY" env-default:"2"`
	MoveDelay  time.Duration `yaml:"move-delay" env:"AI_MOVE_DELAY" env-default:"500ms"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.GameSettings().Validate(); err != nil {
		return nil, fmt.Errorf("invalid ai config: %w", err)
	}

	return config, nil
}

// LoadEnv builds the config from environment variables and defaults only.
func LoadEnv() (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to read environment: %w", err)
	}

	if err := config.GameSettings().Validate(); err != nil {
		return nil, fmt.Errorf("invalid ai config: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// GameSettings returns the default settings for new games.
func (that *Config) GameSettings() entity.Settings {
	return entity.Settings{
		AutoPlay:   that.AI.AutoPlay,
		Difficulty: entity.Difficulty(that.AI.Difficulty),
	}.Normalize()
}
