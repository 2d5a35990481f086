package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Config struct {
	LogLevel string   `yaml:"log-level" env-default:"info"`
	HTTPPort string   `yaml:"http-port" env-default:"9090"`
	Agent    Agent    `yaml:"agent"`
	Training Training `yaml:"training"`
	Storage  Storage  `yaml:"storage"`
	Redis    Redis    `yaml:"redis"`
}

type Agent struct {
	LearningRate             float64 `yaml:"learning-rate" env-default:"0.1"`
	DiscountFactor           float64 `yaml:"discount-factor" env-default:"0.9"`
	ExplorationRate          float64 `yaml:"exploration-rate" env-default:"0.3"`
	OptimizedExplorationRate float64 `yaml:"optimized-exploration-rate" env-default:"0.01"`
	Side                     string  `yaml:"side" env-default:"O"`
}

type Training struct {
	Episodes       int     `yaml:"episodes" env-default:"50000"`
	InitialEpsilon float64 `yaml:"initial-epsilon" env-default:"1.0"`
	MinEpsilon     float64 `yaml:"min-epsilon" env-default:"0.05"`
	EpsilonDecay   float64 `yaml:"epsilon-decay" env-default:"0.999"`
	ReportInterval int     `yaml:"report-interval" env-default:"1000"`
	Opponent       string  `yaml:"opponent" env-default:"random"`
}

type Storage struct {
	Backend    string `yaml:"backend" env-default:"file"`
	TableName  string `yaml:"table-name" env-default:"default"`
	FileDir    string `yaml:"file-dir" env-default:""`
	SQLitePath string `yaml:"sqlite-path" env-default:"tables.db"`
}

type Redis struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env-default:"0"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}
