package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/regressionfit/internal/fit"
	"github.com/cwbudde/regressionfit/internal/store"
)

var (
	runsDataDir   string
	keepLast      int
	olderThanDays int
	forceClean    bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage persisted runs",
	Long: `Manage runs saved by "compare --data-dir": list them, show one in detail,
delete one, or clean old runs by age or count.`,
}

var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored runs",
	Long:  `Display all runs with optimizer, timestamp, iterations, log-likelihood and disk size.`,
	RunE:  runListRuns,
}

var showRunCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

var deleteRunCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteRun,
}

var cleanRunsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old runs",
	Long: `Delete old runs based on retention policy.
You can keep only the N most recent runs or delete runs older than N days.`,
	RunE: runCleanRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.AddCommand(listRunsCmd)
	runsCmd.AddCommand(showRunCmd)
	runsCmd.AddCommand(deleteRunCmd)
	runsCmd.AddCommand(cleanRunsCmd)

	runsCmd.PersistentFlags().StringVar(&runsDataDir, "data-dir", "./data", "Base directory for run storage")

	cleanRunsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the last N runs (0 = keep all)")
	cleanRunsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete runs older than N days (0 = no age limit)")
	cleanRunsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func openRunStore() (*store.FSStore, error) {
	runStore, err := store.NewFSStore(runsDataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create run store: %w", err)
	}
	return runStore, nil
}

func runListRuns(cmd *cobra.Command, args []string) error {
	runStore, err := openRunStore()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}

	slices.SortFunc(infos, func(a, b store.RunInfo) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tEXPERIMENT\tOPTIMIZER\tTIMESTAMP\tITERATIONS\tLOG-LIKELIHOOD\tSIZE")
	fmt.Fprintln(w, "------\t----------\t---------\t---------\t----------\t--------------\t----")

	for _, info := range infos {
		size, err := getDirSize(runStore.RunDir(info.RunID))
		sizeStr := "unknown"
		if err == nil {
			sizeStr = formatBytes(size)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4f\t%s\n",
			shortID(info.RunID),
			shortID(info.ExperimentID),
			info.Optimizer,
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Iterations,
			info.LogLikelihood,
			sizeStr,
		)
	}

	w.Flush()

	fmt.Fprintf(out, "\nTotal runs: %d\n", len(infos))
	return nil
}

func runShowRun(cmd *cobra.Command, args []string) error {
	runStore, err := openRunStore()
	if err != nil {
		return err
	}
	runID, err := resolveRunID(runStore, args[0])
	if err != nil {
		return err
	}

	record, err := runStore.LoadRun(runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Run\t%s\n", record.RunID)
	fmt.Fprintf(w, "Experiment\t%s\n", record.ExperimentID)
	fmt.Fprintf(w, "Optimizer\t%s (%s)\n", record.Optimizer, record.Sense)
	fmt.Fprintf(w, "Timestamp\t%s\n", record.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "Seed\t%d\n", record.Seed)
	fmt.Fprintf(w, "Iterations\t%d\n", record.Iterations)
	fmt.Fprintf(w, "Evaluations\t%d (%d degenerate)\n", record.Evaluations, record.Degenerate)
	fmt.Fprintf(w, "Stabilized\t%t\n", record.Stabilized)
	fmt.Fprintf(w, "Elapsed\t%.3fs\n", record.ElapsedSec)
	fmt.Fprintf(w, "Value\t%.6f\n", record.Value)
	fmt.Fprintf(w, "Log-likelihood\t%.6f\n", record.LogLikelihood)
	w.Flush()

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAMETER\tESTIMATE\tTRUE")
	fmt.Fprintln(w, "---------\t--------\t----")
	for i, v := range record.Best {
		name := fmt.Sprintf("p%d", i)
		if i < len(fit.ParamNames) {
			name = fit.ParamNames[i]
		}
		truth := "-"
		if i < len(record.Truth) {
			truth = fmt.Sprintf("%.4f", record.Truth[i])
		}
		fmt.Fprintf(w, "%s\t%.4f\t%s\n", name, v, truth)
	}
	w.Flush()

	return showTrace(out, runID)
}

func showTrace(out io.Writer, runID string) error {
	reader, err := store.NewTraceReader(runsDataDir, runID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	first, last := entries[0], entries[len(entries)-1]
	fmt.Fprintf(out, "\nTrace: %d entries, step %d value %.4f -> step %d value %.4f\n",
		len(entries), first.Iteration, first.Value, last.Iteration, last.Value)
	return nil
}

func runDeleteRun(cmd *cobra.Command, args []string) error {
	runStore, err := openRunStore()
	if err != nil {
		return err
	}
	runID, err := resolveRunID(runStore, args[0])
	if err != nil {
		return err
	}
	if err := runStore.DeleteRun(runID); err != nil {
		return err
	}
	slog.Info("Deleted run", "run_id", runID)
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", runID)
	return nil
}

func runCleanRuns(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	runStore, err := openRunStore()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	infos, err := runStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No runs to clean.")
		return nil
	}

	toDelete := selectRunsForDeletion(infos, keepLast, olderThanDays, time.Now())

	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No runs match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d run(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (%s, %s)\n",
			shortID(info.RunID),
			info.Optimizer,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	// Ask for confirmation unless --force is set
	if !forceClean {
		fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		if err := runStore.DeleteRun(info.RunID); err != nil {
			slog.Error("Failed to delete run", "run_id", info.RunID, "error", err)
			failed++
		} else {
			slog.Info("Deleted run", "run_id", info.RunID)
			deleted++
		}
	}

	fmt.Fprintf(out, "\nDeleted %d run(s), %d failed.\n", deleted, failed)
	return nil
}

// resolveRunID accepts a full run ID or a unique prefix of one, as printed
// by runs list.
func resolveRunID(runStore *store.FSStore, id string) (string, error) {
	id = strings.TrimSuffix(id, "...")
	if id == "" {
		return "", fmt.Errorf("run id cannot be empty")
	}
	if _, err := os.Stat(runStore.RunDir(id)); err == nil {
		return id, nil
	}

	infos, err := runStore.ListRuns()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, info := range infos {
		if strings.HasPrefix(info.RunID, id) {
			matches = append(matches, info.RunID)
		}
	}
	switch len(matches) {
	case 0:
		return "", &store.NotFoundError{RunID: id}
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run id prefix %q is ambiguous (%d matches)", id, len(matches))
	}
}

// selectRunsForDeletion determines which runs should be deleted based on
// retention policy. Runs older than olderThanDays go, and beyond that only
// the keepLast most recent runs are kept.
func selectRunsForDeletion(infos []store.RunInfo, keepLast int, olderThanDays int, now time.Time) []store.RunInfo {
	var toDelete []store.RunInfo
	selected := make(map[string]bool)

	if olderThanDays > 0 {
		cutoff := now.AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, info)
				selected[info.RunID] = true
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := slices.Clone(infos)
		slices.SortStableFunc(sorted, func(a, b store.RunInfo) int {
			return a.Timestamp.Compare(b.Timestamp)
		})

		for _, info := range sorted[:len(sorted)-keepLast] {
			if !selected[info.RunID] {
				toDelete = append(toDelete, info)
				selected[info.RunID] = true
			}
		}
	}

	return toDelete
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
