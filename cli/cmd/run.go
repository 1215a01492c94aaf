package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/crucible/adapter"
	"github.com/pithecene-io/crucible/adapter/redis"
	"github.com/pithecene-io/crucible/adapter/webhook"
	"github.com/pithecene-io/crucible/archive"
	"github.com/pithecene-io/crucible/cli/config"
	"github.com/pithecene-io/crucible/cli/render"
	"github.com/pithecene-io/crucible/harness"
	"github.com/pithecene-io/crucible/log"
	"github.com/pithecene-io/crucible/types"
)

// Exit codes for `run`.
const (
	exitSuccess      = 0
	exitBuildFailure = 1
	exitHarnessError = 2
	exitInterrupted  = 3
)

// publishTimeout bounds event delivery, retries included.
const publishTimeout = 30 * time.Second

// RunCommand returns the run command.
// This is the only command that installs, stages or builds anything.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Install the project, stage every sample and build them in order",
		Flags: []cli.Flag{
			ConfigFlag,
			RootFlag,
			&cli.StringFlag{
				Name:  "workspace",
				Usage: "Directory receiving the staged samples",
			},
			&cli.StringFlag{
				Name:  "repository",
				Usage: "Scratch artifact repository",
			},
			&cli.StringSliceFlag{
				Name:  "scope",
				Usage: "Dependency scope to install (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "param",
				Usage: "Substitution parameter key=value (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "define",
				Aliases: []string{"D"},
				Usage:   "Build define key=value (repeatable)",
			},
			&cli.StringFlag{
				Name:  "executable",
				Usage: "Build command",
			},
			&cli.StringSliceFlag{
				Name:  "option",
				Usage: "Build option, replaces the configured options (repeatable)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Build log file name inside each staged sample",
			},
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Run ID (generated if empty)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn, error",
				EnvVars: []string{"CRUCIBLE_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress result output",
			},
			FormatFlag,
			NoColorFlag,
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitHarnessError)
	}
	if err := applyOverrides(c, cfg); err != nil {
		return cli.Exit(err.Error(), exitHarnessError)
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(err.Error(), exitHarnessError)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitHarnessError)
	}

	runID := c.String("run-id")
	if runID == "" {
		runID = uuid.NewString()
	}
	level, err := log.ParseLevel(c.String("log-level"))
	if err != nil {
		return cli.Exit(err.Error(), exitHarnessError)
	}
	logger := log.NewLogger(log.RunContext{RunID: runID, Project: cfg.Project.ID(), Level: level})
	defer func() { _ = logger.Sync() }()

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	hc := harnessConfig(cfg)
	hc.RunID = runID
	hc.Logger = logger
	if cfg.Archive.Enabled() {
		arch, err := archive.Open(ctx, cfg.Archive.ToArchive())
		if err != nil {
			logger.Sugar().Warnf("%s log archive unavailable, continuing without it: %v", cfg.Archive.Backend, err)
		} else {
			hc.Archive = arch
		}
	}

	orchestrator, err := harness.New(hc)
	if err != nil {
		return cli.Exit(err.Error(), exitHarnessError)
	}

	result, _ := orchestrator.Execute(ctx)
	publishEvent(ctx, cfg.Adapter, result, logger)

	if c.Bool("quiet") {
		if result.Error != "" {
			return cli.Exit(result.Error, exitCodeFor(result.Outcome))
		}
		return cli.Exit("", exitCodeFor(result.Outcome))
	}
	if err := r.RenderRun(result); err != nil {
		return cli.Exit(err.Error(), exitHarnessError)
	}
	return cli.Exit("", exitCodeFor(result.Outcome))
}

// applyOverrides copies explicitly set flags over the manifest values.
func applyOverrides(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("root") {
		cfg.Root = c.String("root")
	}
	if c.IsSet("workspace") {
		cfg.Workspace = c.String("workspace")
	}
	if c.IsSet("repository") {
		cfg.Repository = c.String("repository")
	}
	if c.IsSet("scope") {
		cfg.Scopes = c.StringSlice("scope")
	}
	if c.IsSet("executable") {
		cfg.Build.Executable = c.String("executable")
	}
	if c.IsSet("option") {
		cfg.Build.Options = c.StringSlice("option")
	}
	if c.IsSet("log-file") {
		cfg.Build.LogFile = c.String("log-file")
	}

	params, err := parseKeyValues("param", c.StringSlice("param"))
	if err != nil {
		return err
	}
	cfg.Parameters = mergeInto(cfg.Parameters, params)

	defines, err := parseKeyValues("define", c.StringSlice("define"))
	if err != nil {
		return err
	}
	cfg.Build.Defines = mergeInto(cfg.Build.Defines, defines)
	return nil
}

// harnessConfig maps a validated manifest onto the orchestrator config.
func harnessConfig(cfg *config.Config) *harness.Config {
	return &harness.Config{
		Project:    &cfg.Project,
		Root:       cfg.Root,
		Workspace:  cfg.Workspace,
		Repository: cfg.Repository,
		Scopes:     cfg.Scopes,
		Parameters: cfg.Parameters,
		Executable: cfg.Build.Executable,
		Options:    cfg.Build.Options,
		Defines:    cfg.Build.Defines,
		LogFile:    cfg.Build.LogFile,
	}
}

// newAdapter builds the configured adapter, or nil if none is configured.
func newAdapter(ac config.AdapterConfig) (adapter.Adapter, error) {
	switch ac.Type {
	case "":
		return nil, nil
	case "webhook":
		retries := webhook.DefaultRetries
		if ac.Retries != nil {
			retries = *ac.Retries
		}
		return webhook.New(webhook.Config{
			URL:     ac.URL,
			Headers: ac.Headers,
			Secret:  ac.Secret,
			Timeout: ac.Timeout.Duration,
			Retries: retries,
		})
	case "redis":
		retries := redis.DefaultRetries
		if ac.Retries != nil {
			retries = *ac.Retries
		}
		return redis.New(redis.Config{
			URL:       ac.URL,
			Channel:   ac.Channel,
			KeyPrefix: ac.KeyPrefix,
			KeyTTL:    ac.KeyTTL.Duration,
			Timeout:   ac.Timeout.Duration,
			Retries:   retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q", ac.Type)
	}
}

// publishEvent sends the run_completed event. Failures are logged only;
// an interrupted run still publishes.
func publishEvent(ctx context.Context, ac config.AdapterConfig, result *harness.RunResult, logger *log.Logger) {
	a, err := newAdapter(ac)
	if err != nil {
		logger.Sugar().Warnf("%s adapter unavailable: %v", ac.Type, err)
		return
	}
	if a == nil {
		return
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Sugar().Warnf("%s adapter close failed: %v", ac.Type, err)
		}
	}()

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := adapter.NewRunCompletedEvent(result, time.Now())
	if err := a.Publish(pctx, event); err != nil {
		logger.Sugar().Warnf("%s: run_completed publish failed: %v", ac.Type, err)
		return
	}
	logger.Sugar().Infof("%s: run_completed published (outcome %s)", ac.Type, event.Outcome)
}

// exitCodeFor maps a run outcome to the process exit code.
func exitCodeFor(outcome types.OutcomeStatus) int {
	switch outcome {
	case types.OutcomeSuccess:
		return exitSuccess
	case types.OutcomeBuildFailure:
		return exitBuildFailure
	case types.OutcomeInterrupted:
		return exitInterrupted
	default:
		return exitHarnessError
	}
}
