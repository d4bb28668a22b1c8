package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"playsync/internal/catalog"
	"playsync/internal/config"
	"playsync/internal/logging"
	"playsync/internal/reconcile"
	"playsync/internal/urlnorm"
)

type globalFlags struct {
	config  string
	catalog string
	verbose int
	write   bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if override := strings.TrimSpace(c.flags.catalog); override != "" {
			cfg.Catalog.Path = override
			if err := cfg.Normalize(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

// session is the per-command state shared by every scenario: the run id,
// the run logger and, when opened, the catalog.
type session struct {
	cfg    *config.Config
	runID  string
	logger *slog.Logger
	store  *catalog.Store

	closeLog func() error
}

func (c *commandContext) openSession(cmd *cobra.Command, withCatalog bool, readOnly bool) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	logger, closeLog, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr(), c.flags.verbose, runID)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, runID: runID, logger: logger, closeLog: closeLog}
	if !withCatalog {
		return s, nil
	}

	// Dry runs open the catalog writable too and roll back.
	store, err := catalog.Open(cmd.Context(), cfg.Catalog.Path, catalog.Options{ReadOnly: readOnly})
	if err != nil {
		s.close()
		return nil, err
	}
	s.store = store
	logger.Debug("catalog opened",
		logging.String("path", cfg.Catalog.Path),
		logging.Bool("read_only", readOnly),
		logging.String(logging.FieldRunID, runID),
	)
	return s, nil
}

func (s *session) close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Debug("close catalog failed", logging.Error(err))
		}
	}
	if s.closeLog != nil {
		_ = s.closeLog()
	}
}

func (c *commandContext) newRunner(s *session, rules []urlnorm.Rule) (*reconcile.Runner, error) {
	opts, err := reconcile.OptionsFromConfig(s.cfg, c.flags.write, rules)
	if err != nil {
		return nil, fmt.Errorf("matching options: %w", err)
	}
	opts.RunID = s.runID
	return reconcile.NewRunner(s.store, opts, s.logger), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
