package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/sitecheck/internal/config"
	"github.com/harrison/sitecheck/internal/logger"
	"github.com/harrison/sitecheck/internal/models"
	"github.com/harrison/sitecheck/internal/repository"
	"github.com/harrison/sitecheck/internal/workspace"
)

// env is what every data command needs: merged configuration, an open
// store and a logger writing to the command's stderr.
type env struct {
	cfg   *config.Config
	store *repository.Store
	log   *logger.ConsoleLogger
}

// loadConfig reads the config file named by --config, or .sitecheck/config.yaml,
// then applies any persistent flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var logLevel, dbPath *string
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		logLevel = &v
	}
	if flags.Changed("db") {
		v, _ := flags.GetString("db")
		dbPath = &v
	}
	var historyLimit *int
	if flags.Lookup("limit") != nil && flags.Changed("limit") {
		v, _ := flags.GetInt("limit")
		historyLimit = &v
	}
	var listenAddr *string
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		v, _ := flags.GetString("addr")
		listenAddr = &v
	}
	cfg.MergeWithFlags(logLevel, dbPath, historyLimit, listenAddr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openEnv loads configuration and opens the store. Callers must Close it.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	store, err := repository.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &env{
		cfg:   cfg,
		store: store,
		log:   logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel),
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// workspace builds a workspace bound to propertyID and scenario and waits
// for every store to load.
func (e *env) workspace(ctx context.Context, propertyID string, scenario models.Scenario) *workspace.Workspace {
	ws := workspace.New(e.store, workspace.Options{
		HistoryLimit: e.cfg.HistoryLimit,
		Thresholds:   &e.cfg.Feasibility,
		Attention:    &e.cfg.Attention,
		Log:          e.log,
	})
	// scenario first so the property load fetches the right history once
	ws.SelectScenario(ctx, scenario)
	ws.SelectProperty(ctx, propertyID)

	capture, err := e.store.FetchCapture(ctx, propertyID)
	switch {
	case err == nil:
		if err := ws.SetCapture(capture); err != nil {
			e.log.LogWarn(err.Error())
		}
	case !errors.Is(err, repository.ErrNotFound):
		e.log.LogWarn(fmt.Sprintf("load capture for %s: %v", propertyID, err))
	}
	return ws
}

// scenarioFlag parses --scenario. Empty selects "all"; anything else must be
// a known scenario.
func scenarioFlag(cmd *cobra.Command) (models.Scenario, error) {
	raw, _ := cmd.Flags().GetString("scenario")
	if raw == "" {
		return models.ScenarioAll, nil
	}
	s, ok := models.ParseScenario(raw)
	if !ok {
		return "", fmt.Errorf("unknown scenario %q (known: %s)", raw, knownScenarios())
	}
	return s, nil
}

func knownScenarios() string {
	out := string(models.ScenarioAll)
	for _, s := range models.Scenarios {
		out += ", " + string(s)
	}
	return out
}
