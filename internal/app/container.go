// Package app provides the dependency injection container for the application.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/musher-dev/musher/internal/domain"
	"github.com/musher-dev/musher/internal/infra/agent"
	"github.com/musher-dev/musher/internal/infra/config"
	"github.com/musher-dev/musher/internal/infra/gitrepo"
	"github.com/musher-dev/musher/internal/infra/logging"
	"github.com/musher-dev/musher/internal/infra/roles"
	"github.com/musher-dev/musher/internal/infra/stopfile"
	"github.com/musher-dev/musher/internal/infra/taskstore"
	"github.com/musher-dev/musher/internal/trigger"
	"github.com/musher-dev/musher/internal/usecase"
)

// Config holds the application paths.
type Config struct {
	RepoRoot  string // Root directory of the git repository
	MusherDir string // Path to the .musher state directory
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for
// use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Tasks            domain.TaskStore
	StoreInitializer domain.StoreInitializer
	Git              domain.Git
	Agent            domain.Agent
	Roles            domain.RoleSource
	Stop             domain.StopSignal
	Clock            domain.Clock

	// ConfigLoader is concrete: trigger loading is not part of the
	// domain port.
	ConfigLoader *config.Loader

	Logger    *slog.Logger
	logCloser io.Closer

	// AppConfig is the loaded configuration with defaults applied.
	AppConfig *domain.Config

	Config Config
}

// New creates a new Container by detecting the git repository from the
// given directory.
func New(dir string) (*Container, error) {
	gitClient, err := gitrepo.NewClient(dir)
	if err != nil {
		return nil, err
	}

	cfg := Config{
		RepoRoot:  gitClient.RepoRoot(),
		MusherDir: domain.MusherDir(gitClient.RepoRoot()),
	}

	configLoader := config.NewLoader(cfg.MusherDir)
	appConfig, err := configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, logCloser := logging.New(cfg.MusherDir, logging.ParseLevel(appConfig.Log.Level))

	store := taskstore.New(cfg.MusherDir)

	return &Container{
		Tasks:            store,
		StoreInitializer: store,
		Git:              gitClient,
		Agent:            agent.NewClient(appConfig.Agent, cfg.RepoRoot),
		Roles:            roles.NewSource(cfg.MusherDir),
		Stop:             stopfile.New(cfg.MusherDir),
		Clock:            domain.RealClock{},
		ConfigLoader:     configLoader,
		Logger:           logger,
		logCloser:        logCloser,
		AppConfig:        appConfig,
		Config:           cfg,
	}, nil
}

// Close releases the container's resources (the log file handle).
func (c *Container) Close() error {
	if c.logCloser == nil {
		return nil
	}
	return c.logCloser.Close()
}

// UseCase factory methods

// InitRepoUseCase returns a new InitRepo use case.
func (c *Container) InitRepoUseCase() *usecase.InitRepo {
	return usecase.NewInitRepo(c.StoreInitializer)
}

// AddTaskUseCase returns a new AddTask use case.
func (c *Container) AddTaskUseCase() *usecase.AddTask {
	return usecase.NewAddTask(c.Tasks)
}

// ListTasksUseCase returns a new ListTasks use case.
func (c *Container) ListTasksUseCase() *usecase.ListTasks {
	return usecase.NewListTasks(c.Tasks)
}

// UnblockTaskUseCase returns a new UnblockTask use case.
func (c *Container) UnblockTaskUseCase() *usecase.UnblockTask {
	return usecase.NewUnblockTask(c.Tasks)
}

// StopLoopUseCase returns a new StopLoop use case.
func (c *Container) StopLoopUseCase() *usecase.StopLoop {
	return usecase.NewStopLoop(c.Stop)
}

// RunLoopUseCase returns a new RunLoop use case with the trigger list
// compiled from .musher/triggers.yaml.
func (c *Container) RunLoopUseCase() (*usecase.RunLoop, error) {
	specs, err := c.ConfigLoader.LoadTriggers()
	if err != nil {
		return nil, fmt.Errorf("load triggers: %w", err)
	}
	engine := trigger.NewEngine(specs, c.Logger)
	return usecase.NewRunLoop(
		c.Tasks,
		c.Git,
		c.Agent,
		c.Roles,
		engine,
		c.Stop,
		c.Clock,
		c.Logger,
		c.AppConfig,
	), nil
}
