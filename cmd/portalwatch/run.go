package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/portalwatch/internal/captcha"
	"github.com/nao1215/portalwatch/internal/config"
	"github.com/nao1215/portalwatch/internal/database"
	"github.com/nao1215/portalwatch/internal/model"
	"github.com/nao1215/portalwatch/internal/notify"
	"github.com/nao1215/portalwatch/internal/pipeline"
	"github.com/nao1215/portalwatch/internal/portal"
	"github.com/nao1215/portalwatch/internal/report"
	"github.com/nao1215/portalwatch/internal/transport"
)

// stepConfig names the failure of a run that never reached the portal.
const stepConfig = "config"

// Report formats accepted by --format.
const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatJSON     = "json"
	formatTable    = "table"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [config...]",
		Short: "Log in, read both content pages and send the report",
		Long: `Run performs the whole portal workflow for each configuration file:

  homepage -> login form -> credentials (and captcha) -> redirect ->
  landing page -> top frame -> 违规节目 -> 管理动态

The report is printed, mailed to mail.receiver and stored in the run
history. A failed run sends a failure report naming the step that failed
and makes the command exit non-zero.

Without arguments the configuration is looked up as ./portalwatch.yaml,
./.portalwatch.yaml, then $XDG_CONFIG_HOME/portalwatch/config.yaml.

Examples:
  # Run the default profile
  portalwatch run

  # Run two accounts, two at a time, and print tables
  portalwatch run --parallel 2 --format table office.yaml branch.json5

  # Dry run: print only
  portalwatch run --no-notify --no-history`,
		Args: cobra.ArbitraryArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().StringP("format", "f", formatText,
		"Report format: text, markdown, json or table")
	cmd.Flags().StringP("output", "o", "",
		"Also write the report to this file (creates directories if needed)")
	cmd.Flags().Bool("no-notify", false, "Do not mail the report")
	cmd.Flags().Bool("no-history", false, "Do not store the run in the history database")
	cmd.Flags().IntP("parallel", "p", 1, "Number of profiles run at once")

	return cmd
}

// runOptions are the flags of the run command.
type runOptions struct {
	format    string
	output    string
	noNotify  bool
	noHistory bool
	parallel  int
}

// runner executes profiles and routes their reports.
type runner struct {
	opts   runOptions
	logger *slog.Logger

	// writer renders reports; mu serializes it across parallel runs.
	writer report.Writer
	mu     sync.Mutex

	now func() time.Time

	// newNotifier builds the notifier of a profile.
	newNotifier func(cfg *config.Config, logger *slog.Logger) (notify.Notifier, error)
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseRunOptions(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	paths := args
	if len(paths) == 0 {
		path := config.FindConfigFile("")
		if path == "" {
			return fmt.Errorf("%w (run \"portalwatch init\" to create one)", config.ErrConfigNotFound)
		}
		paths = []string{path}
	}

	var file io.Writer
	if opts.output != "" {
		f, err := createOutputFile(opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		file = f
	}

	writer, err := newRunWriter(opts.format, cmd.OutOrStdout(), file)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner{
		opts:        opts,
		logger:      logger,
		writer:      writer,
		now:         time.Now,
		newNotifier: newNotifier,
	}
	return r.runAll(ctx, paths)
}

func parseRunOptions(cmd *cobra.Command) (runOptions, error) {
	var opts runOptions
	var err error

	if opts.format, err = cmd.Flags().GetString("format"); err != nil {
		return opts, err
	}
	if opts.output, err = cmd.Flags().GetString("output"); err != nil {
		return opts, err
	}
	if opts.noNotify, err = cmd.Flags().GetBool("no-notify"); err != nil {
		return opts, err
	}
	if opts.noHistory, err = cmd.Flags().GetBool("no-history"); err != nil {
		return opts, err
	}
	if opts.parallel, err = cmd.Flags().GetInt("parallel"); err != nil {
		return opts, err
	}
	if opts.parallel <= 0 {
		return opts, errors.New("invalid --parallel: must be positive")
	}
	if _, err := newReportWriter(opts.format, io.Discard); err != nil {
		return opts, err
	}
	return opts, nil
}

// newRunWriter prints reports to stdout and, when file is not nil, writes
// the same format to file as well.
func newRunWriter(format string, stdout, file io.Writer) (report.Writer, error) {
	w, err := newReportWriter(format, stdout)
	if err != nil || file == nil {
		return w, err
	}
	fw, err := newReportWriter(format, file)
	if err != nil {
		return nil, err
	}
	return report.NewMultiWriter(w, fw), nil
}

// newReportWriter returns the writer for a --format value.
func newReportWriter(format string, w io.Writer) (report.Writer, error) {
	switch format {
	case formatText:
		return report.NewTextWriter(w), nil
	case formatMarkdown:
		return report.NewMarkdownWriter(w), nil
	case formatJSON:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion())), nil
	case formatTable:
		return report.NewTableWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown format %q: use text, markdown, json or table", format)
	}
}

// createOutputFile creates the report file and its parent directories.
// Reports may contain account names, so the file is only readable by the owner.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-chosen output path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// runAll runs every profile and fails when any run failed.
func (r *runner) runAll(ctx context.Context, paths []string) error {
	bp := pipeline.NewBatchProcessor(r.runProfile,
		pipeline.WithConcurrency(r.opts.parallel),
		pipeline.WithBatchLogger(r.logger),
	)

	reports, err := bp.ProcessBatch(ctx, paths)
	if err != nil {
		return err
	}

	failed := 0
	for _, rep := range reports {
		if rep == nil || !rep.Success {
			failed++
		}
	}
	if failed > 0 {
		if len(reports) == 1 {
			rep := reports[0]
			return fmt.Errorf("run failed at step %s: %s", rep.FailedStep, rep.Error)
		}
		return fmt.Errorf("%d of %d runs failed", failed, len(reports))
	}
	return nil
}

// runProfile loads one configuration and performs the workflow with it.
// The outcome is always reported, stored and notified.
func (r *runner) runProfile(ctx context.Context, path string) *model.RunReport {
	cfg, err := config.Load(path)
	if err != nil {
		rep := model.NewRunReport(path, r.now())
		rep.Fail(stepConfig, fmt.Errorf("%s: %w", path, err), r.now())
		r.emit(rep)
		return rep
	}
	if err := cfg.Validate(); err != nil {
		rep := model.NewRunReport(path, r.now())
		rep.Fail(stepConfig, fmt.Errorf("%s: %w", path, err), r.now())
		r.emit(rep)
		if cfg.MailEnabled() && cfg.ValidateMail() == nil {
			r.notify(ctx, cfg, rep, r.logger.With("profile", path))
		}
		return rep
	}

	logger := r.logger.With("profile", cfg.Profile())
	rep := model.NewRunReport(cfg.Profile(), r.now())

	wf, err := buildWorkflow(cfg, logger)
	if err != nil {
		rep.Fail(stepConfig, err, r.now())
	} else {
		nav, err := wf.Navigate(ctx)
		rep.CaptchaAttempts = nav.CaptchaAttempts
		if err != nil {
			rep.Fail(portal.FailedStep(err), err, r.now())
		} else {
			result := nav.Result
			rep.Succeed(&result, r.now())
		}
	}

	r.emit(rep)
	r.notify(ctx, cfg, rep, logger)
	r.record(ctx, cfg, rep, logger)
	return rep
}

// buildWorkflow wires a session, the captcha loop and the workflow for cfg.
func buildWorkflow(cfg *config.Config, logger *slog.Logger) (*portal.Workflow, error) {
	origin, err := cfg.OriginURL()
	if err != nil {
		return nil, err
	}

	session, err := transport.NewSession(origin,
		transport.WithUserAgent(cfg.UserAgent),
		transport.WithTimeout(cfg.HTTP.Timeout.Std()),
		transport.WithRequestDelay(cfg.HTTP.RequestDelay.Std()),
		transport.WithProxy(cfg.HTTP.SocksProxy),
		transport.WithCharset(cfg.HTTP.Charset),
		transport.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	opts := []portal.Option{
		portal.WithVariant(model.Variant(cfg.Portal.Variant)),
		portal.WithCaptchaRequired(cfg.Captcha.Enabled),
		portal.WithLogger(logger),
	}
	if cfg.Captcha.OCRCommand != "" {
		recognizer, err := captcha.NewCommandRecognizer(cfg.Captcha.OCRCommand, cfg.Captcha.Timeout.Std())
		if err != nil {
			return nil, err
		}
		loop := captcha.NewLoop(recognizer,
			captcha.WithMaxAttempts(cfg.Captcha.MaxAttempts),
			captcha.WithLogger(logger),
			captcha.WithAttemptHook(logCaptchaAttempt(logger)),
		)
		opts = append(opts, portal.WithCaptchaLoop(loop))
		logger.Debug("captcha recognizer ready", "command", cfg.Captcha.OCRCommand, "max_attempts", loop.MaxAttempts())
	}

	wf := portal.New(origin, cfg.Credentials(), session, opts...)
	logger.Debug("workflow ready", "origin", origin.String(), "steps", strings.Join(wf.Steps(), ","))
	return wf, nil
}

// logCaptchaAttempt returns an attempt hook that logs how each attempt ended.
func logCaptchaAttempt(logger *slog.Logger) func(captcha.Attempt) {
	return func(a captcha.Attempt) {
		logger.Info("captcha attempt",
			"attempt", a.Number,
			"outcome", a.Outcome.String(),
			"image_bytes", len(a.Image),
			"recognized", a.Text != "",
		)
	}
}

// emit writes the report with the selected writer.
func (r *runner) emit(rep *model.RunReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.writer.Write(rep); err != nil {
		r.logger.Error("report failed", "profile", rep.Profile, "error", err)
	}
}

// notify sends the mail report. Failures are only logged.
func (r *runner) notify(ctx context.Context, cfg *config.Config, rep *model.RunReport, logger *slog.Logger) {
	if r.opts.noNotify {
		return
	}
	n, err := r.newNotifier(cfg, logger)
	if err != nil {
		logger.Error("notifier unavailable", "error", err)
		return
	}
	title, body := report.FormatRun(rep)
	if err := n.Send(context.WithoutCancel(ctx), title, body); err != nil {
		logger.Error("failed to send report", "error", err)
	}
}

// record stores the run in the history database. Failures are only logged.
func (r *runner) record(ctx context.Context, cfg *config.Config, rep *model.RunReport, logger *slog.Logger) {
	if r.opts.noHistory || cfg.History.Disabled {
		return
	}
	db, err := database.Open(cfg.History.Dir, database.DefaultOptions())
	if err != nil {
		logger.Error("failed to open history", "dir", cfg.History.Dir, "error", err)
		return
	}
	defer db.Close()

	if err := db.SaveRun(context.WithoutCancel(ctx), rep); err != nil {
		logger.Error("failed to save run", "error", err)
		return
	}
	logger.Debug("run saved", "id", rep.ID, "db", db.Path())
}

// newNotifier mails when a receiver is configured and logs otherwise.
func newNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, error) {
	if !cfg.MailEnabled() {
		return notify.NewLogNotifier(logger), nil
	}
	n, err := notify.NewMailNotifier(cfg.MailConfig(), notify.WithMailLogger(logger))
	if err != nil {
		return nil, err
	}
	logger.Debug("mail notifier ready", "server", n.Server().Addr())
	return n, nil
}
