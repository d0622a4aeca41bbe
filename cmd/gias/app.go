package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/fwojciec/gias"
	"github.com/fwojciec/gias/analysis"
	"github.com/fwojciec/gias/bubbletea"
	"github.com/fwojciec/gias/gin"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

// ErrApplyFailed is returned when git rejects a patch.
var ErrApplyFailed = errors.New("patch does not apply")

// RunLoader reads the analysis run history.
type RunLoader interface {
	Load() ([]gias.RunRecord, error)
}

// Server serves the HTTP API until ctx is cancelled.
type Server interface {
	ListenAndServe(ctx context.Context, addr string) error
}

// Browser runs the interactive patch browser.
type Browser interface {
	Run() error
}

// App holds the collaborators behind every command. Collaborators that need
// network credentials are built on first use through the New* functions.
type App struct {
	Out        io.Writer
	Repository gias.Repository
	Addr       string

	Patches gias.PatchStore
	Parser  gias.DiffParser
	Applier gias.PatchApplier
	Runs    RunLoader
	Render  bubbletea.RenderOptions

	NewAnalyzer func(ctx context.Context, autoPatch bool) (gin.Analyzer, error)
	NewIndexer  func(ctx context.Context) (gin.Indexer, error)
	NewServer   func(ctx context.Context) (Server, error)
	NewBrowser  func(theme string) (Browser, error)

	closers []func() error
}

// Close releases resources acquired while wiring.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// SetupFunc populates an App from the configuration file at path.
type SetupFunc func(a *App, configPath string) error

// NewRootCmd builds the command tree. setup runs before every command and may be nil
// when the App is already populated.
func NewRootCmd(a *App, setup SetupFunc) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "gias",
		Short: "GitHub issue analysis assistant",
		Long: `gias answers questions about GitHub issues using the repository's own source code,
turns the model's proposed fixes into unified diff patches and keeps a browsable
history of every patch it wrote.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if setup == nil {
				return nil
			}
			return setup(a, configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	root.SetOut(a.Out)

	root.AddCommand(
		a.serveCmd(),
		a.analyzeCmd(),
		a.askCmd(),
		a.indexCmd(),
		a.patchesCmd(),
		a.browseCmd(),
		a.runsCmd(),
	)
	return root
}

func (a *App) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := a.NewServer(cmd.Context())
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.Addr
			}
			fmt.Fprintf(a.Out, "Listening on %s\n", addr)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to the configured address)")
	return cmd
}

func (a *App) analyzeCmd() *cobra.Command {
	var (
		query   string
		noPatch bool
	)
	cmd := &cobra.Command{
		Use:   "analyze OWNER/REPO ISSUE",
		Short: "Analyze an issue and generate a patch for it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := gias.ParseRepository(args[0])
			if err != nil {
				return err
			}
			issueID, err := strconv.Atoi(args[1])
			if err != nil || issueID <= 0 {
				return fmt.Errorf("invalid issue number %q", args[1])
			}
			analyzer, err := a.NewAnalyzer(cmd.Context(), !noPatch)
			if err != nil {
				return err
			}
			result, err := analyzer.AnalyzeIssue(cmd.Context(), analysis.AnalyzeRequest{
				Repository: repo,
				IssueID:    issueID,
				Query:      query,
			})
			if err != nil {
				return err
			}

			color.New(color.Bold).Fprintf(a.Out, "%s#%d: %s\n\n", repo, result.Issue.Number, result.Issue.Title)
			fmt.Fprintln(a.Out, result.Analysis)
			a.printSources(result.Sources)
			if !noPatch {
				a.printOutcome(result.Patch)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "custom question replacing the default patch request")
	cmd.Flags().BoolVar(&noPatch, "no-patch", false, "skip patch generation")
	return cmd
}

func (a *App) askCmd() *cobra.Command {
	var repoName string
	cmd := &cobra.Command{
		Use:   "ask QUERY",
		Short: "Ask a question about a repository",
		Long:  `Ask a free-form question. Mentioning an issue as "#N" also generates a patch for it.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := a.Repository
			if repoName != "" {
				var err error
				if repo, err = gias.ParseRepository(repoName); err != nil {
					return err
				}
			}
			analyzer, err := a.NewAnalyzer(cmd.Context(), true)
			if err != nil {
				return err
			}
			result, err := analyzer.Ask(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, result.Answer)
			a.printSources(result.Sources)
			if result.Patch.Status != gias.StatusNotGenerated {
				a.printOutcome(result.Patch)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&repoName, "repo", "r", "", "repository as OWNER/REPO (defaults to the configured repository)")
	return cmd
}

func (a *App) indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index OWNER/REPO",
		Short: "Build the retrieval index of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := gias.ParseRepository(args[0])
			if err != nil {
				return err
			}
			indexer, err := a.NewIndexer(cmd.Context())
			if err != nil {
				return err
			}
			start := time.Now()
			n, err := indexer.Build(cmd.Context(), repo)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(a.Out, "Indexed %d documents from %s", n, repo)
			fmt.Fprintf(a.Out, " in %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func (a *App) patchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patches",
		Short: "Inspect and apply generated patches",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List generated patches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listings, err := a.Patches.List()
			if err != nil {
				return err
			}
			if len(listings) == 0 {
				fmt.Fprintln(a.Out, "No patches yet")
				return nil
			}
			tbl := a.newTable("NAME", "SIZE", "CREATED", "ISSUE")
			for _, l := range listings {
				issue := ""
				if l.Metadata != nil && l.Metadata.IssueID != 0 {
					issue = fmt.Sprintf("%s#%d %s", l.Metadata.Repository, l.Metadata.IssueID, l.Metadata.IssueTitle)
				}
				tbl.AddRow(l.Name, l.Size, l.Created.Format(time.DateTime), issue)
			}
			tbl.Print()
			return nil
		},
	}

	var raw bool
	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Show a patch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.Patches.Read(args[0])
			if err != nil {
				return err
			}
			if raw {
				fmt.Fprint(a.Out, text)
				return nil
			}
			diff, err := a.Parser.Parse(text)
			if err != nil {
				return err
			}
			fmt.Fprint(a.Out, bubbletea.RenderDiff(diff, a.Render))
			return nil
		},
	}
	show.Flags().BoolVar(&raw, "raw", false, "print the patch file verbatim")

	var check bool
	apply := &cobra.Command{
		Use:   "apply NAME DIR",
		Short: "Apply a patch to a working tree with git apply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			listing, err := a.Patches.Get(args[0])
			if err != nil {
				return err
			}
			if !a.Applier.Apply(cmd.Context(), listing.Path, args[1], check) {
				return fmt.Errorf("%w: %s", ErrApplyFailed, args[0])
			}
			if check {
				color.New(color.FgGreen).Fprintf(a.Out, "%s applies cleanly to %s\n", args[0], args[1])
			} else {
				color.New(color.FgGreen).Fprintf(a.Out, "Applied %s to %s\n", args[0], args[1])
			}
			return nil
		},
	}
	apply.Flags().BoolVar(&check, "check", false, "only check that the patch applies")

	cmd.AddCommand(list, show, apply)
	return cmd
}

func (a *App) browseCmd() *cobra.Command {
	var theme string
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the patch history interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			browser, err := a.NewBrowser(theme)
			if err != nil {
				return err
			}
			return browser.Run()
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "dark", "color theme: dark or light")
	return cmd
}

func (a *App) runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent analysis runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.Runs.Load()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(a.Out, "No runs yet")
				return nil
			}
			slices.Reverse(records)
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			tbl := a.newTable("TIME", "REPOSITORY", "ISSUE", "STATUS", "PATCH", "DURATION")
			for _, r := range records {
				issue := ""
				if r.IssueID != 0 {
					issue = "#" + strconv.Itoa(r.IssueID)
				}
				duration := (time.Duration(r.DurationMS) * time.Millisecond).String()
				tbl.AddRow(r.Timestamp.Format(time.DateTime), r.Repository, issue, r.Status, r.PatchFile, duration)
			}
			tbl.Print()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to show (0 for all)")
	return cmd
}

func (a *App) newTable(columns ...any) table.Table {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	firstColumnFmt := color.New(color.FgYellow).SprintfFunc()
	return table.New(columns...).
		WithWriter(a.Out).
		WithHeaderFormatter(headerFmt).
		WithFirstColumnFormatter(firstColumnFmt)
}

func (a *App) printSources(sources []string) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(a.Out, "\nSources:")
	for _, s := range sources {
		fmt.Fprintf(a.Out, "  - %s\n", s)
	}
}

func (a *App) printOutcome(o gias.PatchOutcome) {
	c := color.New(color.Faint)
	switch o.Status {
	case gias.StatusSuccess:
		c = color.New(color.FgGreen)
	case gias.StatusWarning:
		c = color.New(color.FgYellow)
	case gias.StatusFailed:
		c = color.New(color.FgRed)
	}
	fmt.Fprint(a.Out, "\nPatch: ")
	c.Fprint(a.Out, o.Status)
	fmt.Fprintf(a.Out, " %s\n", o.Message)
	if o.PatchFile != "" {
		fmt.Fprintf(a.Out, "  file: %s\n", o.PatchFile)
	}
	if len(o.FilesChanged) > 0 {
		fmt.Fprintf(a.Out, "  changes: %d files\n", len(o.FilesChanged))
	}
}
