package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rwhender/BayesicFitting"
	"github.com/rwhender/BayesicFitting/internal/config"
	"github.com/rwhender/BayesicFitting/internal/dataio"
	"github.com/rwhender/BayesicFitting/internal/presentation"
	"github.com/rwhender/BayesicFitting/pkg/domain"
	"github.com/rwhender/BayesicFitting/pkg/errdis"
	"github.com/rwhender/BayesicFitting/pkg/model"
	"github.com/rwhender/BayesicFitting/pkg/observability"
	"github.com/rwhender/BayesicFitting/pkg/prior"
	"github.com/rwhender/BayesicFitting/pkg/problem"
)

// SampleOptions are the command line inputs of a sample run. Zero values
// leave the configuration file untouched.
type SampleOptions struct {
	ConfigPath string

	DataPath    string
	Ensemble    int
	Seed        uint64
	Threads     int
	Resume      bool
	RunID       string
	Format      string
	MetricsAddr string
	Quiet       bool
}

func (o SampleOptions) apply(cfg *config.Run) {
	if o.DataPath != "" {
		cfg.Data.Path = o.DataPath
	}
	if o.Ensemble > 0 {
		cfg.Sampler.Ensemble = o.Ensemble
	}
	if o.Seed != 0 {
		cfg.Sampler.Seed = o.Seed
	}
	if o.Threads > 0 {
		cfg.Sampler.Threads = o.Threads
	}
	if o.Resume {
		cfg.Checkpoint.Resume = true
	}
	if o.RunID != "" {
		cfg.Checkpoint.RunID = o.RunID
	}
	if o.Format != "" {
		cfg.Output.Format = o.Format
	}
	if o.MetricsAddr != "" {
		cfg.Output.MetricsAddr = o.MetricsAddr
	}
}

// RunSample loads the configured problem, samples it and writes the report
// to stdout. Progress goes to stderr unless Quiet.
func RunSample(ctx context.Context, opts SampleOptions, stdout, stderr io.Writer, logger *slog.Logger) error {
	cfg := config.Defaults()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return err
		}
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	p, err := buildProblem(cfg)
	if err != nil {
		return err
	}
	dist, err := errdis.New(cfg.Distribution.Name, errdis.Data{X: p.XData(), Y: p.YData(), Weights: p.Weights()}, cfg.Distribution.Options())
	if err != nil {
		return err
	}

	cp, err := buildStore(cfg.Checkpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := cp.close(); err != nil {
			logger.Warn("failed to close checkpoint store", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}

	s := cfg.Sampler
	sopts := []bayesicfitting.Option{
		bayesicfitting.WithDistribution(dist),
		bayesicfitting.WithEnsemble(s.Ensemble),
		bayesicfitting.WithDiscard(s.Discard),
		bayesicfitting.WithSeed(s.Seed),
		bayesicfitting.WithRate(s.Rate),
		bayesicfitting.WithMaxSize(s.MaxSize),
		bayesicfitting.WithMinimumIterations(s.MinimumIterations),
		bayesicfitting.WithEnd(s.End),
		bayesicfitting.WithThreads(s.Threads),
		bayesicfitting.WithMaxTrials(s.MaxTrials),
		bayesicfitting.WithKeep(s.Keep),
		bayesicfitting.WithProgressEvery(s.ProgressEvery),
		bayesicfitting.WithLogger(logger),
		bayesicfitting.WithLifecycleHooks(metrics.Hooks()),
	}
	if len(s.Engines) > 0 {
		sopts = append(sopts, bayesicfitting.WithEngines(s.Engines...))
	}
	runID := cfg.Checkpoint.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	tracker := NewTracker(runID)
	sopts = append(sopts,
		bayesicfitting.WithRunID(runID),
		bayesicfitting.WithLifecycleHooks(tracker.Hooks()),
		bayesicfitting.WithResume(cfg.Checkpoint.Resume))
	if cp.store != nil {
		sopts = append(sopts, bayesicfitting.WithCheckpointStore(cp.store, cfg.Checkpoint.Every))
	}
	if cp.locker != nil {
		sopts = append(sopts, bayesicfitting.WithRunLock(cp.locker, cfg.Checkpoint.LeaseTTL))
	}
	if !opts.Quiet {
		sopts = append(sopts, bayesicfitting.WithLifecycleHooks(presentation.Progress(stderr, s.ProgressEvery)))
	}

	sampler, err := bayesicfitting.New(p, sopts...)
	if err != nil {
		return err
	}

	if cfg.Output.MetricsAddr != "" {
		stop, err := serve(cfg.Output.MetricsAddr, NewRouter(tracker, reg, logger), logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	res, err := sampler.Sample(ctx)
	if err != nil {
		return err
	}
	return writeReport(stdout, cfg.Output.Format, sampler, res)
}

func buildProblem(cfg config.Run) (problem.Problem, error) {
	ds, err := dataio.Load(cfg.Data.Path, dataio.Columns{
		X:      cfg.Data.XColumn,
		Y:      cfg.Data.YColumn,
		Weight: cfg.Data.WeightColumn,
		Header: cfg.Data.Header,
		Comma:  firstRune(cfg.Data.Comma),
	})
	if err != nil {
		return nil, err
	}

	m, err := model.New(cfg.Model.Name, cfg.Model.Args...)
	if err != nil {
		return nil, err
	}
	if len(cfg.Model.Priors) > 0 {
		priors := make([]prior.Prior, 0, len(cfg.Model.Priors))
		for i, pc := range cfg.Model.Priors {
			pr, err := pc.Build()
			if err != nil {
				return nil, fmt.Errorf("prior %d: %w", i, err)
			}
			priors = append(priors, pr)
		}
		m.SetPriors(priors...)
	}

	var popts []problem.Option
	if ds.Weights != nil {
		popts = append(popts, problem.WithWeights(ds.Weights))
	}
	return problem.New(cfg.Problem, m, ds.X, ds.Y, popts...)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func writeReport(w io.Writer, format string, sampler *bayesicfitting.Sampler, res *bayesicfitting.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Summary)
	case "text":
		return sampler.Report(w)
	}
	out, err := presentation.NewRenderer(w)(presentation.Markdown(res.Summary))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// serve starts the status server on addr. The returned function shuts it
// down.
func serve(addr string, h http.Handler, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: metrics listener: %v", domain.ErrInvalidConfig, err)
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server failed", "error", err)
		}
	}()
	logger.Info("serving status", "addr", ln.Addr().String())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
