package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lance13c/auditor/internal/database"
	"github.com/lance13c/auditor/internal/report"
	"github.com/lance13c/auditor/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded audit runs",
	Long: `List recent audit runs from the history database, or show the UX issues
and test cases of a single run.

Examples:
  auditor history              # the 10 most recent runs
  auditor history --stats      # totals across all runs
  auditor history 12 --json    # one run, machine readable`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var (
	historyLimit int
	historyJSON  bool
	historyStats bool
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to list")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print JSON")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "print totals across all runs")
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := database.New(projectPath(auditorConfig.Database.Path))
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	switch {
	case historyStats:
		stats, err := db.Statistics()
		if err != nil {
			return err
		}
		return printStats(out, stats)
	case len(args) == 1:
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		return showRun(out, db, id)
	}

	runs, err := db.RecentRuns(historyLimit)
	if err != nil {
		return err
	}
	if historyJSON {
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No audits recorded yet. Run 'auditor audit' first.")
		return nil
	}
	printRuns(out, runs)
	return nil
}

func printRuns(out io.Writer, runs []database.AuditRun) {
	styles := ui.NewStyles()
	header := lipgloss.NewStyle().Bold(true)
	fmt.Fprintln(out, header.Render(fmt.Sprintf("%-5s %-20s %-36s %8s %7s %6s %6s", "ID", "COMPLETED", "START URL", "SCREENS", "ISSUES", "TESTS", "QA%")))
	for _, r := range runs {
		line := fmt.Sprintf("%-5d %-20s %-36s %8d %7d %6d %5.0f%%",
			r.ID, r.CompletedAt.Local().Format("2006-01-02 15:04:05"), truncate(r.StartURL, 36),
			r.ScreensExplored, r.TotalIssues, r.TestCases, r.QAProgress)
		if r.CriticalIssues > 0 {
			line += " " + styles.Critical.Render(fmt.Sprintf("%d critical", r.CriticalIssues))
		}
		fmt.Fprintln(out, line)
	}
}

func showRun(out io.Writer, db *database.DB, id int64) error {
	run, err := db.GetRun(id)
	if err != nil {
		return err
	}
	issues, err := db.GetIssues(id)
	if err != nil {
		return err
	}
	cases, err := db.GetTestCases(id)
	if err != nil {
		return err
	}

	if historyJSON {
		return writeJSON(out, map[string]interface{}{
			"run":        run,
			"ux_issues":  issues,
			"test_cases": cases,
		})
	}

	fmt.Fprintf(out, "Run %d  %s\n", run.ID, run.SessionID)
	fmt.Fprintf(out, "  %s as %s via %s, %s\n", run.StartURL, orDash(run.Role), run.Backend, run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(out, "  %d screens, %d interactions, %.0f%% coverage\n\n", run.ScreensExplored, run.TotalInteractions, run.CoveragePercentage)

	fmt.Fprintf(out, "UX issues (%d):\n", len(issues))
	for _, is := range issues {
		fmt.Fprintf(out, "  [%s] %s %s (%s)\n", is.Severity, is.IssueID, is.Title, is.Location)
	}
	fmt.Fprintf(out, "\nTest cases (%d):\n", len(cases))
	for _, tc := range cases {
		auto := ""
		if tc.AutomationFeasible {
			auto = " automatable"
		}
		fmt.Fprintf(out, "  %s [%s/%s%s] %s\n", tc.CaseID, tc.Priority, tc.TestType, auto, tc.Description)
	}
	for _, format := range report.AllFormats {
		if path, ok := run.ReportPaths[string(format)]; ok {
			fmt.Fprintf(out, "\n%s report: %s", format, path)
		}
	}
	fmt.Fprintln(out)
	return nil
}

func printStats(out io.Writer, stats map[string]interface{}) error {
	if historyJSON {
		return writeJSON(out, stats)
	}
	for _, key := range []string{"total_runs", "total_screens", "total_issues", "critical_issues", "total_test_cases", "automation_ready"} {
		fmt.Fprintf(out, "%-18s %v\n", key, stats[key])
	}
	if last, ok := stats["last_run"].(time.Time); ok {
		fmt.Fprintf(out, "%-18s %s\n", "last_run", last.Local().Format(time.RFC3339))
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
