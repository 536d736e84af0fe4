package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/shubh1021/AgriTrace/internal/blob"
	"github.com/shubh1021/AgriTrace/internal/config"
	"github.com/shubh1021/AgriTrace/internal/core"
	"github.com/shubh1021/AgriTrace/internal/identity"
	"github.com/shubh1021/AgriTrace/internal/logging"
)

// app is the per-invocation wiring of config, logging, storage, archive and
// the registry service.
type app struct {
	opts      *RootOptions
	out       *OutputFormatter
	cfg       config.Config
	log       *logging.Logger
	svc       *core.Service
	directory identity.Directory
	registry  *prometheus.Registry
	expvar    *core.ExpvarMetricsRecorder
	closeDB   io.Closer
}

// metricsFanout forwards every observation to each recorder.
type metricsFanout []core.MetricsRecorder

func (m metricsFanout) Observe(ctx context.Context, operation string, success bool, d time.Duration) {
	for _, r := range m {
		r.Observe(ctx, operation, success, d)
	}
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func openApp(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*app, error) {
	out := newFormatter(opts, cmd)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	var logger *logging.Logger
	switch strings.ToLower(cfg.Log.Output) {
	case "", "stderr":
		logger = logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
	default:
		logger = logging.New(cfg.Log)
	}

	store, closeDB, err := core.OpenPersistentStore(cfg.StorageConfig(), core.NewDefaultRulesEngine())
	if err != nil {
		_ = logger.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open batch store", err)
	}
	archive, err := blob.Open(ctx, cfg.BlobConfig())
	if err != nil {
		_ = closeDB.Close()
		_ = logger.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open provenance archive", err)
	}

	a := &app{
		opts:      opts,
		out:       out,
		cfg:       cfg,
		log:       logger,
		directory: identity.Default(),
		registry:  prometheus.NewRegistry(),
		expvar:    core.NewExpvarMetricsRecorder(""),
		closeDB:   closeDB,
	}
	svcOpts := []core.Option{
		core.WithLogger(logger.With("storage", cfg.Storage.Driver)),
		core.WithMetricsRecorder(metricsFanout{core.NewPrometheusMetricsRecorder(a.registry), a.expvar}),
		core.WithDirectory(a.directory),
		core.WithBaseURL(cfg.BaseURL),
		core.WithArchive(archive),
	}
	if opts.Trace {
		svcOpts = append(svcOpts, core.WithTracer(core.NewJSONTracer(cmd.ErrOrStderr())))
	}
	a.svc = core.NewService(store, svcOpts...)
	logger.Debug("registry opened", "storage", cfg.Storage.Driver, "archive", archive.Driver())
	return a, nil
}

// Close flushes metrics and releases the store and log file.
func (a *app) Close() error {
	var errs []error
	if a.opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(a.opts.MetricsFile, a.registry); err != nil {
			errs = append(errs, err)
		}
	}
	if a.opts.Verbose {
		if raw, err := json.Marshal(a.expvar.Snapshot()); err == nil {
			a.out.VerboseLog("operation stats: %s", raw)
		}
	}
	if err := a.closeDB.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.log.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// withApp opens the application, runs fn and closes it. Errors returned by
// fn that were not reported yet are reported through the formatter.
func withApp(opts *RootOptions, cmd *cobra.Command, fn func(context.Context, *app) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, opts, cmd)
	if err != nil {
		return newFormatter(opts, cmd).Fail(err)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = a.out.Fail(WrapExitError(ExitCommandError, "failed to close", cerr))
		}
	}()
	ctx = logging.WithLogger(ctx, a.log)
	if err := fn(ctx, a); err != nil {
		if IsReported(err) {
			return err
		}
		return a.out.Fail(err)
	}
	return nil
}

// reportViolations surfaces non-blocking rule findings.
func (a *app) reportViolations(res core.Result) {
	for _, v := range res.Violations {
		a.out.Warn("%s (%s): %s", v.Rule, v.Severity, v.Message)
	}
}

func (a *app) actorName(id string) string {
	if actor, ok := a.directory.FindByID(id); ok {
		return actor.DisplayName
	}
	return id
}
