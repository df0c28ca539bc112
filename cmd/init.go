package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lance13c/auditor/internal/browser"
	"github.com/lance13c/auditor/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize auditor in the current project",
	Long: `Write .auditor/config.yaml with defaults for the target application.

With --sample-site a simulated site map is written next to it and the
simulated backend is selected, so 'auditor audit' works without a browser.`,
	RunE: runInit,
}

var (
	initForce      bool
	initBaseURL    string
	initStartPath  string
	initBackend    string
	initSampleSite bool
)

const sampleSiteFile = "site.yaml"

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config")
	initCmd.Flags().StringVar(&initBaseURL, "base-url", "http://localhost:3000", "base URL of the application")
	initCmd.Flags().StringVar(&initStartPath, "start-path", "", "path the exploration starts from")
	initCmd.Flags().StringVar(&initBackend, "backend", config.BackendChrome, "browser backend: chrome, devtools, simulated or command")
	initCmd.Flags().BoolVar(&initSampleSite, "sample-site", false, "write a simulated site map and use the simulated backend")
}

func printBanner() {
	blueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#4A9EFF")).Bold(true)
	fmt.Println()
	fmt.Println(blueStyle.Render("  auditor · exploratory QA"))
	fmt.Println("  ═══════════════════════════")
	fmt.Println()
}

func runInit(cmd *cobra.Command, args []string) error {
	printBanner()

	loader := config.NewLoader(projectDir)
	configPath := loader.InitPath()
	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Printf("⚠️  %s already exists. Use --force to overwrite.\n", configPath)
		return nil
	}

	cfg := config.DefaultConfig()
	cfg.Target.BaseURL = initBaseURL
	cfg.Target.StartPath = initStartPath
	cfg.Browser.Backend = initBackend

	if initSampleSite {
		sitePath := filepath.Join(filepath.Dir(configPath), sampleSiteFile)
		if err := writeSampleSite(sitePath, cfg.Target.BaseURL); err != nil {
			return err
		}
		cfg.Browser.Backend = config.BackendSimulated
		cfg.Browser.SiteFile = filepath.Join(config.ConfigDirName, sampleSiteFile)
		fmt.Printf("🗺️  Wrote sample site map to %s\n", sitePath)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := loader.Save(cfg, configPath); err != nil {
		return err
	}

	fmt.Printf("✅ Wrote %s\n", configPath)
	fmt.Printf("   Target:  %s\n", cfg.StartURL())
	fmt.Printf("   Backend: %s\n", cfg.Browser.Backend)
	fmt.Println()
	fmt.Println("Next: run 'auditor audit'")
	return nil
}

func writeSampleSite(path, base string) error {
	data, err := yaml.Marshal(browser.DefaultSite(base))
	if err != nil {
		return fmt.Errorf("failed to encode site map: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
