package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-ai/internal/config"
	"github.com/rocketscienceinc/tictactoe-ai/internal/entity"
	"github.com/rocketscienceinc/tictactoe-ai/internal/qlearning"
	"github.com/rocketscienceinc/tictactoe-ai/internal/repository"
	"github.com/rocketscienceinc/tictactoe-ai/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-ai/internal/service"
	"github.com/rocketscienceinc/tictactoe-ai/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-ai/transport/rest"
)

const (
	CommandTrain = "train"
	CommandMatch = "match"
	CommandServe = "serve"
)

var (
	ErrUnknownCommand      = errors.New("unknown command")
	ErrUnknownBackend      = errors.New("unknown storage backend")
	ErrSelfPlayUnsupported = errors.New("q-learning opponent not supported for training")
)

// Command is what main asks the application to do.
type Command struct {
	Name string

	// train
	Episodes int

	// match
	Games   int
	PlayerX string
	PlayerO string
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config, cmd Command) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	repo, closer, err := newTableRepository(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closer.Close(); err != nil {
			log.Error("could not close table storage", "error", err)
		}
	}()

	return run(ctx, logger, conf, repo, cmd)
}

func run(ctx context.Context, logger *slog.Logger, conf *config.Config, repo repository.TableRepository, cmd Command) error {
	agent, err := loadAgent(ctx, logger, conf, repo)
	if err != nil {
		return err
	}

	switch cmd.Name {
	case CommandTrain:
		_, err = train(ctx, logger, conf, repo, agent, cmd.Episodes)
		return err
	case CommandMatch:
		_, err = match(ctx, logger, conf, agent, cmd)
		return err
	case CommandServe:
		return serve(ctx, logger, conf, repo, agent)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newTableRepository(ctx context.Context, conf *config.Config) (repository.TableRepository, io.Closer, error) {
	switch conf.Storage.Backend {
	case config.BackendFile, "":
		return repository.NewFileTableRepository(conf.Storage.FileDir), nopCloser{}, nil

	case config.BackendRedis:
		redisStorage, err := storage.NewRedisStorage(ctx, storage.RedisOptions{
			Host:     conf.Redis.Host,
			Port:     conf.Redis.Port,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRedisTableRepository(redisStorage.Connection), redisStorage, nil

	case config.BackendSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteTableRepository(sqliteStorage.Connection), sqliteStorage, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, conf.Storage.Backend)
	}
}

// loadAgent builds the agent from config and restores its saved table, if any.
func loadAgent(ctx context.Context, logger *slog.Logger, conf *config.Config, repo repository.TableRepository) (*qlearning.Agent, error) {
	log := logger.With("component", "app", "table", conf.Storage.TableName)

	agent := qlearning.NewAgent(
		qlearning.WithLearningRate(conf.Agent.LearningRate),
		qlearning.WithDiscountFactor(conf.Agent.DiscountFactor),
		qlearning.WithExplorationRate(conf.Agent.ExplorationRate),
	)

	table, err := repo.Load(ctx, conf.Storage.TableName)
	if errors.Is(err, repository.ErrTableNotFound) {
		log.Info("no saved table, starting fresh")
		return agent, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load table: %w", err)
	}

	if err = agent.Import(table); err != nil {
		return nil, fmt.Errorf("could not import table: %w", err)
	}

	log.Info("table loaded", "size", agent.Size())

	return agent, nil
}

func saveAgent(ctx context.Context, logger *slog.Logger, conf *config.Config, repo repository.TableRepository, agent *qlearning.Agent) error {
	// the run context may already be canceled
	ctx = context.WithoutCancel(ctx)

	if err := repo.Save(ctx, conf.Storage.TableName, agent.Export()); err != nil {
		return fmt.Errorf("could not save table: %w", err)
	}

	logger.Info("table saved", "component", "app", "table", conf.Storage.TableName, "size", agent.Size())

	return nil
}

// train runs the trainer and saves the table, also when training was interrupted.
func train(
	ctx context.Context,
	logger *slog.Logger,
	conf *config.Config,
	repo repository.TableRepository,
	agent *qlearning.Agent,
	episodes int,
) (usecase.TrainingReport, error) {
	if episodes <= 0 {
		episodes = conf.Training.Episodes
	}

	side, err := entity.ParseMover(conf.Agent.Side)
	if err != nil {
		return usecase.TrainingReport{}, fmt.Errorf("invalid agent side: %w", err)
	}

	if conf.Training.Opponent == service.QLearningPolicyName {
		return usecase.TrainingReport{}, ErrSelfPlayUnsupported
	}

	opponent, err := service.NewPolicy(conf.Training.Opponent, nil, nil)
	if err != nil {
		return usecase.TrainingReport{}, fmt.Errorf("invalid training opponent: %w", err)
	}

	trainer, err := usecase.NewTrainer(logger, agent, opponent, usecase.TrainingConfig{
		Side:           side,
		InitialEpsilon: conf.Training.InitialEpsilon,
		MinEpsilon:     conf.Training.MinEpsilon,
		EpsilonDecay:   conf.Training.EpsilonDecay,
		ReportInterval: conf.Training.ReportInterval,
	})
	if err != nil {
		return usecase.TrainingReport{}, err
	}

	report, err := trainer.Run(ctx, episodes)
	if err != nil && !errors.Is(err, context.Canceled) {
		return report, err
	}

	if saveErr := saveAgent(ctx, logger, conf, repo, agent); saveErr != nil {
		return report, saveErr
	}

	return report, nil
}

// match plays two policies against each other. A learning agent plays with
// its optimized exploration rate.
func match(ctx context.Context, logger *slog.Logger, conf *config.Config, agent *qlearning.Agent, cmd Command) (usecase.Stats, error) {
	if err := agent.SetExplorationRate(conf.Agent.OptimizedExplorationRate); err != nil {
		return usecase.Stats{}, fmt.Errorf("invalid optimized exploration rate: %w", err)
	}

	playerX, err := service.NewPolicy(cmd.PlayerX, agent, nil)
	if err != nil {
		return usecase.Stats{}, fmt.Errorf("invalid X policy: %w", err)
	}

	playerO, err := service.NewPolicy(cmd.PlayerO, agent, nil)
	if err != nil {
		return usecase.Stats{}, fmt.Errorf("invalid O policy: %w", err)
	}

	games := cmd.Games
	if games <= 0 {
		games = 1
	}

	return usecase.NewArena(logger).Play(ctx, playerX, playerO, games)
}

// serve runs the HTTP API until ctx is canceled, then saves the table.
func serve(ctx context.Context, logger *slog.Logger, conf *config.Config, repo repository.TableRepository, agent *qlearning.Agent) error {
	log := logger.With("component", "app")

	if err := agent.SetExplorationRate(conf.Agent.OptimizedExplorationRate); err != nil {
		return fmt.Errorf("invalid optimized exploration rate: %w", err)
	}

	router := rest.NewRouter(rest.NewHandlers(logger, agent, nil))

	log.Info("Starting HTTP server", "port", conf.HTTPPort)
	if err := rest.Start(ctx, conf.HTTPPort, router); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return saveAgent(ctx, logger, conf, repo, agent)
}
