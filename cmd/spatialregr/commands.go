package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"spatialregr/infra/observe/log/staticLog"
	"spatialregr/ml/dataset"
	"spatialregr/ml/regression"
	"spatialregr/spatial/weights"
)

// logFile holds the log output opened by the root command. cobra skips
// post-run hooks when a command fails, so the caller closes it after Execute.
type logFile struct {
	c io.Closer
}

func (l *logFile) Close() error {
	if l.c == nil {
		return nil
	}
	c := l.c
	l.c = nil
	return c.Close()
}

func newRootCmd(logs *logFile) *cobra.Command {
	var logOpt staticLog.Options
	cmd := &cobra.Command{
		Use:           "spatialregr",
		Short:         "Fit OLS, weighted and geographically weighted regressions on geolocated records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := staticLog.Init(logOpt)
			if err != nil {
				return fmt.Errorf("init log: %w", err)
			}
			logs.c = c
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&logOpt.Level, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&logOpt.Format, "log-format", "text", "log format: text or json")
	pf.StringVar(&logOpt.File, "log-file", "", "write logs to this file, rotated by size")
	pf.IntVar(&logOpt.MaxSizeMB, "log-max-size", 50, "log file size in MB before rotation")
	pf.IntVar(&logOpt.MaxBackups, "log-max-backups", 3, "rotated log files to keep")

	cmd.AddCommand(fitCmd())
	return cmd
}

type fitFlags struct {
	records    string
	target     string
	predictors []string
	method     string
	config     string
	score      string
	local      bool
	compact    bool

	kernel    string
	distance  string
	bandwidth float64
	adaptive  bool
	lenient   bool
	robust    bool
	weightVar string
}

func fitCmd() *cobra.Command {
	var f fitFlags
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a model and print a JSON report",
		Long: `Fit a model on a JSON array of records (or {"records": [...]}) and print
coefficients, fit statistics, diagnostics and a quality assessment as JSON.
Flags override values read from --config.`,
		Example: `spatialregr fit --records sales.json --target price --predictors sqft,age --method gwr
spatialregr fit --records sales.json --target price --predictors sqft --config regression.yaml --score new.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd.Context(), cmd.OutOrStdout(), cmd.Flags(), f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.records, "records", "", "JSON file with the records to fit")
	fl.StringVar(&f.target, "target", "", "target field")
	fl.StringSliceVar(&f.predictors, "predictors", nil, "comma separated predictor fields")
	fl.StringVar(&f.method, "method", "ols", "estimator: ols, weighted or gwr")
	fl.StringVar(&f.config, "config", "", "YAML config file")
	fl.StringVar(&f.score, "score", "", "JSON file with records to predict after fitting")
	fl.BoolVar(&f.local, "local", false, "include GWR local coefficients in the report")
	fl.BoolVar(&f.compact, "compact", false, "print compact JSON")

	fl.StringVar(&f.kernel, "kernel", "", "kernel: gaussian, bisquare, tricube, exponential")
	fl.StringVar(&f.distance, "distance", "", "distance metric: euclidean, manhattan, haversine")
	fl.Float64Var(&f.bandwidth, "bandwidth", 0, "bandwidth, a fraction of n when adaptive")
	fl.BoolVar(&f.adaptive, "adaptive", true, "adaptive bandwidth")
	fl.BoolVar(&f.lenient, "lenient", false, "fill missing or non-numeric values with 0")
	fl.BoolVar(&f.robust, "robust", false, "heteroscedasticity-robust standard errors")
	fl.StringVar(&f.weightVar, "weight-variable", "", "record field holding WLS weights")

	_ = cmd.MarkFlagRequired("records")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("predictors")
	return cmd
}

// buildConfig layers changed flags over the config file, or the defaults.
func buildConfig(fl *pflag.FlagSet, f fitFlags) (*regression.Config, error) {
	cfg := regression.DefaultConfig()
	if f.config != "" {
		c, err := regression.LoadConfig(f.config)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", f.config, err)
		}
		cfg = c
	}
	if fl.Changed("kernel") {
		if cfg.Kernel = weights.GetKernel(f.kernel); cfg.Kernel == weights.KERNEL_ERROR {
			return nil, fmt.Errorf("unknown kernel %q", f.kernel)
		}
	}
	if fl.Changed("distance") {
		if cfg.Metric = weights.GetMetric(f.distance); cfg.Metric == weights.DISTANCE_ERROR {
			return nil, fmt.Errorf("unknown distance metric %q", f.distance)
		}
	}
	if fl.Changed("bandwidth") {
		cfg.Bandwidth = f.bandwidth
	}
	if fl.Changed("adaptive") {
		cfg.Adaptive = f.adaptive
	}
	if fl.Changed("lenient") {
		cfg.Lenient = f.lenient
	}
	if fl.Changed("robust") {
		cfg.RobustSE = f.robust
	}
	if fl.Changed("weight-variable") {
		cfg.WeightVariable = f.weightVar
	}
	return cfg, cfg.Validate()
}

func runFit(ctx context.Context, out io.Writer, fl *pflag.FlagSet, f fitFlags) error {
	cfg, err := buildConfig(fl, f)
	if err != nil {
		return err
	}
	records, err := dataset.ReadJSONRecordsFile(f.records)
	if err != nil {
		return err
	}

	var fit func([]dataset.Record, string, []string, *regression.Config) (regression.Model, error)
	switch strings.ToLower(strings.TrimSpace(f.method)) {
	case "ols":
		fit = regression.FitOLS
	case "weighted", "wls":
		fit = regression.FitWeighted
	case "gwr":
		fit = regression.FitGWR
	default:
		return fmt.Errorf("unknown method %q", f.method)
	}

	staticLog.Log.Infof("fitting %s on %d records: %s ~ %s", f.method, len(records), f.target, strings.Join(f.predictors, " + "))
	model, err := inBackground(ctx, func() (regression.Model, error) {
		return fit(records, f.target, f.predictors, cfg)
	})
	if err != nil {
		return err
	}

	rep := newReport(&model, f.local)
	if f.score != "" {
		scoreRecords, err := dataset.ReadJSONRecordsFile(f.score)
		if err != nil {
			return err
		}
		pred, err := regression.Predict(&model, scoreRecords, cfg)
		if err != nil {
			return fmt.Errorf("predict %s: %w", f.score, err)
		}
		rep.Predictions = floatsOf(pred)
	}
	return writeReport(out, rep, f.compact)
}

// inBackground runs fit on its own goroutine so an interrupt returns
// promptly; the estimator itself is not interruptible.
func inBackground(ctx context.Context, fit func() (regression.Model, error)) (regression.Model, error) {
	type result struct {
		model regression.Model
		err   error
	}
	done := make(chan result, 1)
	go func() {
		m, err := fit()
		done <- result{m, err}
	}()
	select {
	case <-ctx.Done():
		return regression.Model{}, ctx.Err()
	case r := <-done:
		return r.model, r.err
	}
}
