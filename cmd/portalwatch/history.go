package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nao1215/portalwatch/internal/config"
	"github.com/nao1215/portalwatch/internal/database"
	"github.com/nao1215/portalwatch/internal/model"
	"github.com/nao1215/portalwatch/internal/report"
)

// defaultHistoryLimit is how many runs --list shows.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command reads runs stored by "portalwatch run".
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [profile]",
		Short: "Show stored runs and what changed between them",
		Long: `History reads the runs stored by "portalwatch run".

A profile is "username@host", as shown by --profiles.

Examples:
  # List all profiles with stored runs
  portalwatch history --profiles

  # List the latest runs of every profile
  portalwatch history --list

  # List the latest runs of one profile
  portalwatch history --list alice@net.tv.cn

  # Show one stored run as markdown
  portalwatch history --id 3f0c... --format markdown

  # Show entries that are new since the previous successful run
  portalwatch history --diff alice@net.tv.cn

  # Remove runs older than 90 days
  portalwatch history --prune 2160h`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("profiles", "L", false, "List profiles with stored runs")
	cmd.Flags().BoolP("list", "l", false, "List stored runs")
	cmd.Flags().String("id", "", "Show the run with this ID")
	cmd.Flags().BoolP("diff", "d", false,
		"Show entries of the latest successful run that the previous one did not have")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs listed")
	cmd.Flags().StringP("format", "f", formatText, "Format of --id: text, markdown, json or table")
	cmd.Flags().BoolP("json", "j", false, "Print --list, --profiles and --diff as JSON")
	cmd.Flags().String("dir", "", "History directory (default: XDG data directory)")
	cmd.Flags().Duration("prune", 0, "Remove runs that started longer ago than this (e.g. 720h)")

	return cmd
}

// historyOptions are the flags of the history command.
type historyOptions struct {
	profiles bool
	list     bool
	id       string
	diff     bool
	limit    int
	format   string
	json     bool
	dir      string
	prune    time.Duration
}

func parseHistoryOptions(cmd *cobra.Command) (historyOptions, error) {
	var o historyOptions
	var err error
	f := cmd.Flags()

	if o.profiles, err = f.GetBool("profiles"); err != nil {
		return o, err
	}
	if o.list, err = f.GetBool("list"); err != nil {
		return o, err
	}
	if o.id, err = f.GetString("id"); err != nil {
		return o, err
	}
	if o.diff, err = f.GetBool("diff"); err != nil {
		return o, err
	}
	if o.limit, err = f.GetInt("limit"); err != nil {
		return o, err
	}
	if o.format, err = f.GetString("format"); err != nil {
		return o, err
	}
	if o.json, err = f.GetBool("json"); err != nil {
		return o, err
	}
	if o.dir, err = f.GetString("dir"); err != nil {
		return o, err
	}
	if o.dir == "" {
		o.dir = config.XDGDataDir()
	}
	if o.prune, err = f.GetDuration("prune"); err != nil {
		return o, err
	}
	if o.prune < 0 {
		return o, errors.New("invalid --prune: must be positive")
	}
	return o, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryOptions(cmd)
	if err != nil {
		return err
	}

	var profile string
	if len(args) > 0 {
		profile = args[0]
	}

	// Validate arguments before opening database
	// This prevents database lock issues when validation fails
	if opts.diff && profile == "" {
		return errors.New("--diff needs a profile (use --profiles to see available profiles)")
	}
	if !opts.profiles && !opts.list && opts.id == "" && !opts.diff && opts.prune == 0 {
		opts.list = true
	}

	db, err := database.Open(opts.dir, database.Options{CreateIfNotExists: false})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errors.New("no run history yet (use 'portalwatch run' first)")
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case opts.prune > 0:
		return pruneRuns(ctx, db, out, time.Now().Add(-opts.prune))
	case opts.profiles:
		return listProfiles(ctx, db, out, opts.json)
	case opts.id != "":
		return showRun(ctx, db, out, opts.id, opts.format)
	case opts.diff:
		return showDiff(ctx, db, out, profile, opts.json)
	default:
		return listRuns(ctx, db, out, profile, opts.limit, opts.json)
	}
}

// pruneRuns removes runs that started before cutoff.
func pruneRuns(ctx context.Context, db *database.History, out io.Writer, cutoff time.Time) error {
	n, err := db.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %d runs started before %s.\n", n, cutoff.Local().Format(report.TimeLayout))
	return nil
}

// listProfiles prints every profile with stored runs.
func listProfiles(ctx context.Context, db *database.History, out io.Writer, asJSON bool) error {
	profiles, err := db.ListProfiles(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, profiles)
	}
	if len(profiles) == 0 {
		fmt.Fprintln(out, "No runs stored.")
		return nil
	}
	for _, p := range profiles {
		fmt.Fprintln(out, p)
	}
	return nil
}

// listRuns prints run metadata as a table.
func listRuns(ctx context.Context, db *database.History, out io.Writer, profile string, limit int, asJSON bool) error {
	runs, err := db.ListRuns(ctx, profile, limit)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs stored.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Profile", "Started", "Result", "违规节目", "管理动态"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.Profile,
			r.StartedAt.Local().Format(report.TimeLayout),
			runOutcome(r),
			r.IllegalPrograms,
			r.Announcements,
		})
	}
	t.Render()
	return nil
}

// runOutcome summarizes a run for the listing.
func runOutcome(r database.RunMetadata) string {
	if r.Success {
		return "ok"
	}
	msg := r.Error
	if len(msg) > 40 {
		msg = msg[:37] + "..."
	}
	return "failed at " + r.FailedStep + ": " + msg
}

// showRun renders one stored run with a report writer.
func showRun(ctx context.Context, db *database.History, out io.Writer, id, format string) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("no run with ID %q", id)
	}
	w, err := newReportWriter(format, out)
	if err != nil {
		return err
	}
	_, err = w.Write(run)
	return err
}

// diffResult is the JSON form of --diff.
type diffResult struct {
	Profile  string          `json:"profile"`
	Previous string          `json:"previous,omitempty"`
	Current  string          `json:"current"`
	New      model.ResultDiff `json:"new"`
}

// showDiff prints the entries of the latest successful run that the one
// before it did not have.
func showDiff(ctx context.Context, db *database.History, out io.Writer, profile string, asJSON bool) error {
	runs, err := db.LatestRuns(ctx, profile, 2, true)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no successful run stored for %s", profile)
	}

	res := diffResult{Profile: profile, Current: runs[0].ID}
	var prev *model.WorkflowResult
	if len(runs) > 1 {
		res.Previous = runs[1].ID
		prev = runs[1].Result
	}
	res.New = model.Diff(prev, runs[0].Result)

	if asJSON {
		return writeJSON(out, res)
	}

	if res.Previous == "" {
		fmt.Fprintf(out, "Only one successful run for %s; every entry is new.\n\n", profile)
	} else {
		fmt.Fprintf(out, "New since run %s:\n\n", res.Previous)
	}
	if res.New.Empty() {
		fmt.Fprintln(out, "No new entries.")
		return nil
	}
	writeDiffSection(out, "违规节目", res.New.IllegalPrograms)
	writeDiffSection(out, "管理动态", res.New.Announcements)
	return nil
}

func writeDiffSection(out io.Writer, heading string, lines [][]string) {
	fmt.Fprintf(out, "%s (%d)\n", heading, len(lines))
	for _, line := range lines {
		fmt.Fprintf(out, "  + %s\n", strings.Join(line, " "))
	}
	fmt.Fprintln(out)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
