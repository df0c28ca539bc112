package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lance13c/auditor/internal/browser"
	"github.com/lance13c/auditor/internal/exploration"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Explore the application and print the exploration report",
	Long: `Run only the exploration stage and print the exploration report as JSON:
screens visited, interactions executed, anomalies and quick UX observations.
Nothing is analyzed, generated or recorded.`,
	RunE: runExplore,
}

var (
	exploreOpts auditFlags
	exploreOut  string
)

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreCmd.Flags().StringVar(&exploreOpts.url, "url", "", "start URL (default from config)")
	exploreCmd.Flags().StringVar(&exploreOpts.backend, "backend", "", "browser backend: chrome, devtools, simulated or command")
	exploreCmd.Flags().IntVar(&exploreOpts.maxDepth, "max-depth", 0, "navigation hops from the start page")
	exploreCmd.Flags().IntVar(&exploreOpts.maxScreens, "max-screens", 0, "stop after this many screens")
	exploreCmd.Flags().StringVar(&exploreOut, "out", "", "write the report to a file instead of stdout")
}

func runExplore(cmd *cobra.Command, args []string) error {
	cfg, err := exploreOpts.apply(auditorConfig)
	if err != nil {
		return err
	}
	target := exploreOpts.url
	if target == "" {
		target = cfg.StartURL()
	}

	backend, closeBackend, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	engine := exploration.NewEngine(browser.NewClient(backend), exploration.Options{
		StartURL:                 target,
		MaxDepth:                 cfg.Exploration.MaxDepth,
		MaxInteractionsPerScreen: cfg.Exploration.MaxInteractionsPerScreen,
		MaxScreens:               cfg.Exploration.MaxScreens,
		ProbeValue:               cfg.Exploration.ProbeValue,
		AllowExternal:            cfg.Exploration.AllowExternal,
	})
	session, runErr := engine.ExecuteExploration(cmd.Context())
	if session == nil {
		return runErr
	}

	data, err := json.MarshalIndent(exploration.GenerateReport(session), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode exploration report: %w", err)
	}

	if exploreOut != "" {
		if err := os.WriteFile(exploreOut, data, 0644); err != nil {
			return fmt.Errorf("failed to write exploration report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Explored %d screens, report written to %s\n", len(session.ScreensVisited), exploreOut)
		return runErr
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return runErr
}
