package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bnshell/internal/binding"
	"bnshell/internal/config"
	"bnshell/internal/engine/remote"
	"bnshell/internal/logging"
	"bnshell/internal/repository/sqlite"
	"bnshell/internal/shell"
)

// app holds what setup prepared for the running command.
var app struct {
	cfg     *config.Config
	cfgPath string
	logFile io.Closer
}

func setup(cmd *cobra.Command, _ []string) error {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if rootFlags.configPath != "" {
		cfg, path, err = config.LoadFromPath(rootFlags.configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg); err != nil {
		return err
	}
	app.cfg, app.cfgPath = cfg, path

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if cfg.Log.File != "" {
		w := logging.FileWriter(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
		logging.Init(level, cfg.Log.Format, w)
		app.logFile = w
	} else {
		logging.Init(level, cfg.Log.Format, cmd.ErrOrStderr())
	}
	if path != "" {
		logging.New("config").Debug("config loaded", "path", path)
	}
	return nil
}

// closeInto closes c and adds its error to *err, so a deferred close cannot
// lose a shutdown failure.
func closeInto(err *error, c io.Closer) {
	if cerr := c.Close(); cerr != nil {
		*err = errors.Join(*err, fmt.Errorf("shutdown: %w", cerr))
	}
}

func teardown(*cobra.Command, []string) error {
	if app.logFile != nil {
		return app.logFile.Close()
	}
	return nil
}

// applyOverrides applies the persistent flags on top of the loaded config.
func applyOverrides(cfg *config.Config) error {
	if rootFlags.endpoint != "" {
		cfg.Engine.Endpoint = rootFlags.endpoint
	}
	if rootFlags.logLevel != "" {
		cfg.Log.Level = rootFlags.logLevel
	}
	if rootFlags.policy != "" {
		cfg.Policy = rootFlags.policy
	}
	if rootFlags.noJournal {
		cfg.Journal.Disabled = true
	}
	return cfg.Validate()
}

// tunnelConfig resolves the SSH settings, reading secrets from the environment.
func tunnelConfig(s *config.SSHConfig) remote.TunnelConfig {
	tc := remote.TunnelConfig{
		Host:           s.Host,
		Port:           s.Port,
		User:           s.User,
		KeyFile:        expandHome(s.KeyFile),
		KnownHostsFile: expandHome(s.KnownHostsFile),
		Timeout:        s.Timeout.Duration(),
	}
	if s.PassphraseEnv != "" {
		tc.Passphrase = os.Getenv(s.PassphraseEnv)
	}
	if s.PasswordEnv != "" {
		tc.Password = os.Getenv(s.PasswordEnv)
	}
	return tc
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}

// dialEngine connects to the configured engine context.
func dialEngine(ctx context.Context) (*remote.Client, error) {
	e := app.cfg.Engine
	opts := remote.Options{
		Endpoint:     e.Endpoint,
		Timeout:      e.Timeout.Duration(),
		RegistryHost: e.RegistryHost,
		RegistryPort: e.RegistryPort,
		Logger:       logging.New("engine.remote"),
	}
	if e.SSH != nil {
		tc := tunnelConfig(e.SSH)
		opts.Tunnel = &tc
	}
	return remote.Dial(ctx, opts)
}

func openJournal() (*sqlite.Journal, error) {
	if app.cfg.Journal.Disabled {
		return nil, fmt.Errorf("the journal is disabled")
	}
	return sqlite.New(app.cfg.Journal.Path, logging.New("journal"))
}

// openSession dials the engine and starts a session that owns the connection and,
// unless disabled, the journal.
func openSession(ctx context.Context) (*shell.Session, error) {
	policy, err := binding.ParsePolicy(app.cfg.Policy)
	if err != nil {
		return nil, err
	}

	client, err := dialEngine(ctx)
	if err != nil {
		return nil, err
	}

	opts := []shell.Option{
		shell.WithPolicy(policy),
		shell.WithSearchPath(app.cfg.ExpandSearchPath()...),
		shell.WithLogger(logging.New("shell")),
	}
	var journal *sqlite.Journal
	if !app.cfg.Journal.Disabled {
		journal, err = openJournal()
		if err != nil {
			client.Close()
			return nil, err
		}
		opts = append(opts, shell.WithJournal(journal))
	}

	s, err := shell.NewSession(ctx, client, opts...)
	if err != nil {
		client.Close()
		if journal != nil {
			journal.Close()
		}
		return nil, err
	}
	return s, nil
}

// splitHostPort parses "host", "host:port" or ":port". Missing parts are zero.
func splitHostPort(s string) (string, int, error) {
	if s == "" {
		return "", 0, nil
	}
	if !strings.Contains(s, ":") {
		return s, 0, nil
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in %q", s)
	}
	return host, port, nil
}

func policyNames() []string {
	names := make([]string, 0, 3)
	for _, p := range binding.Policies() {
		names = append(names, p.String())
	}
	return names
}
