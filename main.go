package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	app "github.com/rocketscienceinc/tictactoe-ai/internal"
	"github.com/rocketscienceinc/tictactoe-ai/internal/config"
)

const usage = `usage: tictactoe-ai [flags] <train|match|serve>

  train   train the Q-learning agent and save its table
  match   play two policies (random, minimax, qlearning) against each other
  serve   serve moves and the agent's table over HTTP

flags:
`

// main - is the entry point of the application. It initializes the configuration, logger, and runs the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	cmd, configPath := parseFlags()

	conf := initConfig(configPath)
	logger := initLogger(conf)

	if err := app.RunApp(logger, conf, cmd); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

func parseFlags() (app.Command, string) {
	var cmd app.Command

	configPath := flag.String("config", "", "path to config.yml (default ./config.yml)")
	flag.IntVar(&cmd.Episodes, "episodes", 0, "training games (default from config)")
	flag.IntVar(&cmd.Games, "games", 100, "match games")
	flag.StringVar(&cmd.PlayerX, "x", "qlearning", "policy playing X in a match")
	flag.StringVar(&cmd.PlayerO, "o", "random", "policy playing O in a match")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cmd.Name = flag.Arg(0)

	return cmd, *configPath
}

// initialize config.
func initConfig(path string) *config.Config {
	if path != "" {
		return config.MustLoad(path)
	}

	baseDir, err := os.Getwd()
	if err != nil {
		panic(fmt.Errorf("failed to get current directory: %w", err))
	}

	return config.MustLoad(filepath.Join(baseDir, "./config.yml"))
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
