// Package main provides the CLI entrypoint for gradebook.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/gradebook/internal/config"
	"github.com/verte-zerg/gradebook/internal/csvcodec"
	"github.com/verte-zerg/gradebook/internal/ledger"
	"github.com/verte-zerg/gradebook/internal/model"
	"github.com/verte-zerg/gradebook/internal/session"
	"github.com/verte-zerg/gradebook/internal/store"
	"github.com/verte-zerg/gradebook/internal/tui"
)

const (
	defaultRegular      = 0.1
	defaultMidterm      = 0.2
	defaultFinal        = 0.7
	defaultHistoryLimit = 50
	defaultColumnWidth  = 8
	defaultLogLevel     = "warn"
)

var (
	logLevel      string
	weightRegular float64
	weightMidterm float64
	weightFinal   float64
)

// settings is the merged result of flags and the config file.
type settings struct {
	weights        model.Weights
	historyEnabled bool
	historyLimit   int
	columnWidth    int
	logger         *log.Logger
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gradebook [FILE]",
		Short:         "Student grade ledger",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runEditorCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.Float64Var(&weightRegular, "regular", defaultRegular, "weight of the Regular score (0-1)")
	flags.Float64Var(&weightMidterm, "midterm", defaultMidterm, "weight of the Midterm score (0-1)")
	flags.Float64Var(&weightFinal, "final", defaultFinal, "weight of the Final score (0-1)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newTotalsCmd())
	rootCmd.AddCommand(newSortCmd())
	rootCmd.AddCommand(newPrintCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newRestoreCmd())
	rootCmd.AddCommand(newSampleCmd())

	return rootCmd
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	logger, err := newLogger(logLevel)
	if err != nil {
		return settings{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyFloatConfig(cmd, "regular", &weightRegular, fileCfg.Weights.Regular)
	applyFloatConfig(cmd, "midterm", &weightMidterm, fileCfg.Weights.Midterm)
	applyFloatConfig(cmd, "final", &weightFinal, fileCfg.Weights.Final)

	weights, err := ledger.FromFloat(weightRegular, weightMidterm, weightFinal)
	if err == nil {
		err = ledger.Validate(weights)
	}
	if err != nil {
		return settings{}, fmt.Errorf("invalid weights: %w", err)
	}

	s := settings{
		weights:        weights,
		historyEnabled: true,
		historyLimit:   defaultHistoryLimit,
		columnWidth:    defaultColumnWidth,
		logger:         logger,
	}
	if fileCfg.History.Enabled != nil {
		s.historyEnabled = *fileCfg.History.Enabled
	}
	if fileCfg.History.Limit != nil {
		if *fileCfg.History.Limit < 0 {
			return settings{}, fmt.Errorf("history.limit must be >= 0")
		}
		s.historyLimit = *fileCfg.History.Limit
	}
	if fileCfg.Display.ColumnWidth != nil {
		if *fileCfg.Display.ColumnWidth <= 0 {
			return settings{}, fmt.Errorf("display.column-width must be > 0")
		}
		s.columnWidth = *fileCfg.Display.ColumnWidth
	}
	return s, nil
}

func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "gradebook",
		Level:  lvl,
	}), nil
}

// openSession builds a ledger and session from settings. The returned close
// function releases the journal, if one was opened.
func openSession(s settings) (*session.Session, func()) {
	l := ledger.New()
	if err := l.Policy().Update(s.weights); err != nil {
		// Already validated by loadSettings.
		s.logger.Error("failed to apply weights", "err", err)
	}

	var journal session.Journal
	closeFn := func() {}
	if s.historyEnabled {
		st, err := store.Open(config.DefaultDBPath())
		if err != nil {
			s.logger.Warn("save history disabled", "err", err)
		} else {
			journal = st
			closeFn = func() {
				if cerr := st.Close(); cerr != nil {
					s.logger.Warn("failed to close db", "err", cerr)
				}
			}
		}
	}
	sess := session.New(l, session.Options{
		Journal:      journal,
		HistoryLimit: s.historyLimit,
		Logger:       s.logger,
	})
	return sess, closeFn
}

func runEditorCmd(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	sess, closeFn := openSession(s)
	defer closeFn()

	if len(args) == 1 {
		if _, err := sess.Dispatch(withContext(cmd), session.Command{Intent: session.IntentOpen, Path: args[0]}); err != nil {
			return describeLoadError(err)
		}
	}

	// Log lines would corrupt the alternate screen; replay them on exit.
	var deferred bytes.Buffer
	s.logger.SetOutput(&deferred)
	m := tui.NewModel(sess, tui.Options{MinColumnWidth: s.columnWidth})
	program := tea.NewProgram(m, tea.WithAltScreen())
	_, runErr := program.Run()
	s.logger.SetOutput(os.Stderr)
	if deferred.Len() > 0 {
		logErrf(cmd, "%s", deferred.String())
	}
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	if sess.Dirty() {
		s.logger.Warn("exited with unsaved changes", "path", sess.Path())
	}
	return nil
}

// describeLoadError adds the expected layout to roster format errors.
func describeLoadError(err error) error {
	var ferr *csvcodec.FormatError
	if errors.As(err, &ferr) {
		return fmt.Errorf("%w\n%s", err, ferr.Hint())
	}
	return err
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# gradebook configuration
# Uncomment a value to enable it. CLI flags override config values.

[weights]
# regular = %.1f          # Weight of the Regular score (0-1)
# midterm = %.1f          # Weight of the Midterm score (0-1)
# final = %.1f            # Weight of the Final score (0-1); the three must sum to 1

[history]
# enabled = true         # Journal every save to the local database
# limit = %d             # Saves kept per file (0 keeps everything)

[display]
# column-width = %d       # Narrowest roster column in the editor
`,
		defaultRegular,
		defaultMidterm,
		defaultFinal,
		defaultHistoryLimit,
		defaultColumnWidth,
	)
}

func withContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
