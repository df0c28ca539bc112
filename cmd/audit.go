package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lance13c/auditor/internal/audit"
	"github.com/lance13c/auditor/internal/browser"
	"github.com/lance13c/auditor/internal/config"
	"github.com/lance13c/auditor/internal/database"
	"github.com/lance13c/auditor/internal/exploration"
	"github.com/lance13c/auditor/internal/logging"
	"github.com/lance13c/auditor/internal/report"
	"github.com/lance13c/auditor/internal/ui"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Explore the application and produce QA reports",
	Long: `Run the full pipeline: explore the application from the start URL, analyze
every captured screen for UX problems, generate test cases and write the
JSON, Markdown and HTML reports.

Examples:
  auditor audit                                  # audit the configured start URL
  auditor audit --url http://localhost:3000/login
  auditor audit --backend simulated --no-save    # dry run against the site map
  auditor audit --routes --role MANAGER          # one audit per route the role may open`,
	RunE: runAudit,
}

type auditFlags struct {
	url        string
	role       string
	backend    string
	output     string
	formats    []string
	playwright string
	maxDepth   int
	maxScreens int
	routes     bool
	tui        bool
	noSave     bool
}

var auditOpts auditFlags

func init() {
	rootCmd.AddCommand(auditCmd)
	addAuditFlags(auditCmd, &auditOpts)
	auditCmd.Flags().BoolVar(&auditOpts.routes, "routes", false, "audit every configured route the role may open")
	auditCmd.Flags().BoolVar(&auditOpts.tui, "tui", true, "show live progress when attached to a terminal")
}

func addAuditFlags(cmd *cobra.Command, f *auditFlags) {
	cmd.Flags().StringVar(&f.url, "url", "", "start URL (default from config)")
	cmd.Flags().StringVar(&f.role, "role", "", "user role the audit runs as")
	cmd.Flags().StringVar(&f.backend, "backend", "", "browser backend: chrome, devtools, simulated or command")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "report directory (default from config)")
	cmd.Flags().StringSliceVar(&f.formats, "format", nil, "report formats: json, markdown, html")
	cmd.Flags().StringVar(&f.playwright, "playwright", "", "directory for the generated Playwright spec")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "navigation hops from the start page")
	cmd.Flags().IntVar(&f.maxScreens, "max-screens", 0, "stop after this many screens")
	cmd.Flags().BoolVar(&f.noSave, "no-save", false, "do not record the run in the history database")
}

// apply copies explicitly set flags over a copy of cfg.
func (f auditFlags) apply(cfg *config.Config) (*config.Config, error) {
	c := *cfg
	if f.backend != "" {
		c.Browser.Backend = f.backend
	}
	if f.output != "" {
		c.Output.Dir = f.output
	}
	if len(f.formats) > 0 {
		c.Output.Formats = f.formats
	}
	if f.playwright != "" {
		c.Output.PlaywrightDir = f.playwright
	}
	if f.maxDepth > 0 {
		c.Exploration.MaxDepth = f.maxDepth
	}
	if f.maxScreens > 0 {
		c.Exploration.MaxScreens = f.maxScreens
	}
	if f.noSave {
		c.Database.Enabled = false
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// targets lists the start URLs to audit.
func (f auditFlags) targets(cfg *config.Config) ([]string, error) {
	if f.url != "" {
		return []string{f.url}, nil
	}
	if !f.routes {
		return []string{cfg.StartURL()}, nil
	}
	routes := cfg.RoutesForRole(f.role)
	if len(routes) == 0 {
		return nil, fmt.Errorf("no routes configured for role %q", f.role)
	}
	urls := make([]string, 0, len(routes))
	for _, r := range routes {
		urls = append(urls, cfg.URLFor(r.Path))
	}
	return urls, nil
}

// pipelineOptions turns config into pipeline options. The returned close
// function releases the history database.
func pipelineOptions(cfg *config.Config, role string) (audit.Options, func(), error) {
	opts := audit.Options{
		Exploration: exploration.Options{
			MaxDepth:                 cfg.Exploration.MaxDepth,
			MaxInteractionsPerScreen: cfg.Exploration.MaxInteractionsPerScreen,
			MaxScreens:               cfg.Exploration.MaxScreens,
			ProbeValue:               cfg.Exploration.ProbeValue,
			AllowExternal:            cfg.Exploration.AllowExternal,
		},
		Role:          role,
		Backend:       cfg.Browser.Backend,
		OutputDir:     projectPath(cfg.Output.Dir),
		PlaywrightDir: projectPath(cfg.Output.PlaywrightDir),
	}
	for _, name := range cfg.Output.Formats {
		f, err := report.ParseFormat(name)
		if err != nil {
			return opts, func() {}, err
		}
		opts.Formats = append(opts.Formats, f)
	}

	if !cfg.Database.Enabled {
		return opts, func() {}, nil
	}
	db, err := database.New(projectPath(cfg.Database.Path))
	if err != nil {
		return opts, func() {}, fmt.Errorf("failed to open history database: %w", err)
	}
	opts.DB = db
	return opts, func() { db.Close() }, nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := auditOpts.apply(auditorConfig)
	if err != nil {
		return err
	}
	targets, err := auditOpts.targets(cfg)
	if err != nil {
		return err
	}
	useTUI := auditOpts.tui && ui.IsTerminal(os.Stdout)
	return auditTargets(cmd.Context(), cmd.OutOrStdout(), cfg, auditOpts.role, targets, useTUI)
}

// auditTargets runs one pipeline per target through a shared backend and
// prints a summary for each.
func auditTargets(ctx context.Context, out io.Writer, cfg *config.Config, role string, targets []string, useTUI bool) error {
	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	opts, closeDB, err := pipelineOptions(cfg, role)
	if err != nil {
		return err
	}
	defer closeDB()

	client := browser.NewClient(backend)
	styles := ui.NewStyles()

	for _, target := range targets {
		var res *audit.Result
		if useTUI {
			res, err = ui.RunWithProgress(ctx, target, func(ctx context.Context, onEvent func(exploration.Event)) (*audit.Result, error) {
				o := opts
				o.Exploration.OnEvent = onEvent
				return audit.NewPipeline(client, o).Run(ctx, target)
			})
		} else {
			fmt.Fprintf(out, "🔍 Auditing %s (%s backend)...\n", target, cfg.Browser.Backend)
			res, err = audit.NewPipeline(client, opts).Run(ctx, target)
		}

		if res != nil {
			fmt.Fprintln(out, ui.RenderSummary(styles, res))
			fmt.Fprintln(out, ui.RenderFixes(styles, res))
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(out, "⚠️  Audit interrupted, partial results were saved")
			}
			logging.Error("audit of %s failed: %v", target, err)
			return err
		}
	}
	return nil
}
