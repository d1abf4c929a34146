package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/gradebook/internal/config"
	"github.com/verte-zerg/gradebook/internal/csvcodec"
	"github.com/verte-zerg/gradebook/internal/model"
	"github.com/verte-zerg/gradebook/internal/report"
	"github.com/verte-zerg/gradebook/internal/sample"
	"github.com/verte-zerg/gradebook/internal/session"
	"github.com/verte-zerg/gradebook/internal/store"
)

const (
	defaultSampleRows = 10
	defaultSampleMin  = 50
	defaultReportTop  = 3
)

var (
	totalsOut string

	sortBy   string
	sortDesc bool
	sortOut  string

	reportFormat string
	reportTop    int

	historyPath string
	historyLast int

	restoreOut string

	sampleRows  int
	sampleMin   int
	sampleOut   string
	sampleNames string
)

func newTotalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totals FILE",
		Short: "Recompute the Total column",
		Args:  cobra.ExactArgs(1),
		RunE:  runTotalsCmd,
	}
	cmd.Flags().StringVarP(&totalsOut, "output", "o", "", "write the roster to this file instead of stdout")
	return cmd
}

func runTotalsCmd(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	sess, closeFn := openSession(s)
	defer closeFn()

	ctx := withContext(cmd)
	if _, err := sess.Dispatch(ctx, session.Command{Intent: session.IntentOpen, Path: args[0]}); err != nil {
		return describeLoadError(err)
	}
	res, err := sess.Dispatch(ctx, session.Command{Intent: session.IntentTotals})
	if err != nil {
		return err
	}
	for _, h := range res.Lenient {
		rec, err := sess.Ledger().Get(h)
		if err != nil {
			continue
		}
		s.logger.Warn("unparsable score counted as 0", "id", rec.ID, "name", rec.Name)
	}
	return emitRoster(cmd, sess, totalsOut)
}

func newSortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sort FILE",
		Short: "Sort a roster by one column",
		Args:  cobra.ExactArgs(1),
		RunE:  runSortCmd,
	}
	cmd.Flags().StringVar(&sortBy, "by", "", "column to sort by (ID, Name, Regular, Midterm, Final, Total)")
	cmd.Flags().BoolVar(&sortDesc, "desc", false, "sort descending")
	cmd.Flags().StringVarP(&sortOut, "output", "o", "", "write the roster to this file instead of stdout")
	return cmd
}

func runSortCmd(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(sortBy) == "" {
		return fmt.Errorf("--by is required")
	}
	col, err := model.ParseColumn(sortBy)
	if err != nil {
		return fmt.Errorf("invalid --by value: %w", err)
	}
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	sess, closeFn := openSession(s)
	defer closeFn()

	if _, err := sess.Dispatch(withContext(cmd), session.Command{Intent: session.IntentOpen, Path: args[0]}); err != nil {
		return describeLoadError(err)
	}
	if err := sess.Ledger().SortBy(col, sortDesc); err != nil {
		return err
	}
	return emitRoster(cmd, sess, sortOut)
}

// emitRoster saves through the session when out is set, otherwise writes CSV
// to stdout.
func emitRoster(cmd *cobra.Command, sess *session.Session, out string) error {
	if out == "" {
		return csvcodec.EncodeWriter(cmd.OutOrStdout(), sess.Ledger().Records())
	}
	res, err := sess.Dispatch(withContext(cmd), session.Command{Intent: session.IntentSaveAs, Path: out})
	if err != nil {
		return err
	}
	logErrln(cmd, res.Message)
	return nil
}

func newPrintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print FILE",
		Short: "Print a roster as an aligned table",
		Args:  cobra.ExactArgs(1),
		RunE:  runPrintCmd,
	}
}

func runPrintCmd(cmd *cobra.Command, args []string) error {
	records, err := csvcodec.ReadFile(args[0])
	if err != nil {
		return describeLoadError(err)
	}
	return report.RenderRoster(cmd.OutOrStdout(), records, terminalWidth(cmd.OutOrStdout()))
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report FILE",
		Short: "Summarize a roster",
		Args:  cobra.ExactArgs(1),
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVar(&reportFormat, "format", "text", "output format (text, yaml)")
	cmd.Flags().IntVar(&reportTop, "top", defaultReportTop, "list the N highest and lowest totals (0 disables)")
	return cmd
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(strings.TrimSpace(reportFormat))
	if format != "text" && format != "yaml" {
		return fmt.Errorf("unknown --format %q (use text or yaml)", reportFormat)
	}
	if reportTop < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	records, err := csvcodec.ReadFile(args[0])
	if err != nil {
		return describeLoadError(err)
	}
	summary := report.BuildSummary(records, s.weights, reportTop)
	if format == "yaml" {
		return report.WriteYAML(cmd.OutOrStdout(), summary)
	}
	return report.RenderSummary(cmd.OutOrStdout(), summary)
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled saves",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyPath, "path", "", "only saves of this file")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to the last N saves")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	filter := model.HistoryFilter{Last: historyLast}
	if historyPath != "" {
		abs, err := absPath(historyPath)
		if err != nil {
			return err
		}
		filter.Path = abs
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(cmd, st)

	saves, err := st.ListSaves(withContext(cmd), filter)
	if err != nil {
		return err
	}
	return report.RenderHistory(cmd.OutOrStdout(), saves, terminalWidth(cmd.OutOrStdout()))
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore ID",
		Short: "Write a journaled save back out as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runRestoreCmd,
	}
	cmd.Flags().StringVarP(&restoreOut, "output", "o", "", "write the roster to this file instead of stdout")
	return cmd
}

func runRestoreCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid save id %q", args[0])
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(cmd, st)

	summary, records, err := st.LoadSave(withContext(cmd), id)
	if err != nil {
		return err
	}
	if restoreOut == "" {
		return csvcodec.EncodeWriter(cmd.OutOrStdout(), records)
	}
	if err := csvcodec.WriteFile(restoreOut, records); err != nil {
		return err
	}
	logErrf(cmd, "Restored save %d of %s (%d rows) to %s\n", summary.SaveID, summary.Path, summary.Rows, restoreOut)
	return nil
}

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a random roster",
		Args:  cobra.NoArgs,
		RunE:  runSampleCmd,
	}
	cmd.Flags().IntVar(&sampleRows, "rows", defaultSampleRows, "number of students")
	cmd.Flags().IntVar(&sampleMin, "min", defaultSampleMin, "lowest generated score (0-100)")
	cmd.Flags().StringVarP(&sampleOut, "output", "o", "", "write the roster to this file instead of stdout")
	cmd.Flags().StringVar(&sampleNames, "names", "", "file with one student name per line")
	return cmd
}

func runSampleCmd(cmd *cobra.Command, _ []string) error {
	if sampleRows <= 0 {
		return fmt.Errorf("--rows must be > 0")
	}
	if sampleMin < 0 || sampleMin > 100 {
		return fmt.Errorf("--min must be between 0 and 100")
	}
	gen := sample.New()
	if sampleNames != "" {
		names, err := sample.LoadNames(sampleNames)
		if err != nil {
			return err
		}
		gen.WithNames(names)
	}
	records := gen.Generate(sampleRows, sampleMin)
	if sampleOut == "" {
		return csvcodec.EncodeWriter(cmd.OutOrStdout(), records)
	}
	if err := csvcodec.WriteFile(sampleOut, records); err != nil {
		return err
	}
	logErrf(cmd, "Wrote %d rows to %s\n", len(records), sampleOut)
	return nil
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

func closeStore(cmd *cobra.Command, st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf(cmd, "failed to close db: %v\n", cerr)
	}
}

// terminalWidth returns the width of w when it is a terminal, otherwise 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func logErrf(cmd *cobra.Command, format string, args ...any) {
	if _, err := fmt.Fprintf(cmd.ErrOrStderr(), format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(cmd *cobra.Command, args ...any) {
	if _, err := fmt.Fprintln(cmd.ErrOrStderr(), args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
