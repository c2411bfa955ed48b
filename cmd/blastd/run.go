package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blastkit/blastd/internal/config"
	"github.com/blastkit/blastd/internal/engine"
	"github.com/blastkit/blastd/internal/output"
	"github.com/blastkit/blastd/internal/threshold"
	"github.com/blastkit/blastd/internal/tracing"
)

type runFlags struct {
	file           string
	target         string
	method         string
	total          int
	workers        int
	headers        []string
	body           string
	tokens         []string
	authScheme     string
	timeout        float64
	includeResults bool
	jsonOutput     bool
	thresholds     []string
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one load-generation run and print the report",
		Long:  "Fires a batch of requests at a target and prints the latency summary.\nThe run is described either by a YAML/JSON spec file (-f) or by flags.",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := buildRunSpec(flags)
			if err != nil {
				return err
			}
			return executeRun(cmd, *spec, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "run spec file (YAML or JSON); other spec flags override it")
	cmd.Flags().StringVar(&flags.target, "target", "", "target URL")
	cmd.Flags().StringVar(&flags.method, "method", "", "HTTP method (default GET)")
	cmd.Flags().IntVar(&flags.total, "total", 0, "total number of requests (default 100)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "maximum concurrent workers (default 10)")
	cmd.Flags().StringArrayVar(&flags.headers, "header", nil, "request header as key=value (repeatable)")
	cmd.Flags().StringVar(&flags.body, "body", "", "request body; parsed as JSON when valid, sent verbatim otherwise")
	cmd.Flags().StringArrayVar(&flags.tokens, "token", nil, "auth token rotated across requests (repeatable)")
	cmd.Flags().StringVar(&flags.authScheme, "auth-scheme", "", "auth scheme for tokens: bearer or basic")
	cmd.Flags().Float64Var(&flags.timeout, "timeout", 0, "per-request timeout in seconds (default 30)")
	cmd.Flags().BoolVar(&flags.includeResults, "include-results", false, "include per-request outcomes in the report")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "print the report as JSON")
	cmd.Flags().StringArrayVar(&flags.thresholds, "threshold", nil, "pass/fail assertion, e.g. 'req_duration:p95 < 500' (repeatable)")

	return cmd
}

// buildRunSpec merges the optional spec file with flag overrides. Flags always
// win over file values.
func buildRunSpec(flags *runFlags) (*config.RunSpec, error) {
	spec := &config.RunSpec{}
	if flags.file != "" {
		loaded, err := config.LoadRunSpecFile(flags.file)
		if err != nil {
			return nil, err
		}
		spec = loaded
	}

	if flags.target != "" {
		spec.URL = flags.target
	}
	if flags.method != "" {
		spec.Method = flags.method
	}
	if flags.total > 0 {
		spec.TotalRequests = flags.total
	}
	if flags.workers > 0 {
		spec.MaxWorkers = flags.workers
	}
	if flags.timeout > 0 {
		spec.Timeout = flags.timeout
	}
	if len(flags.tokens) > 0 {
		spec.Tokens = flags.tokens
	}
	if flags.authScheme != "" {
		spec.AuthScheme = flags.authScheme
	}
	if flags.includeResults {
		spec.IncludeResults = true
	}

	if len(flags.headers) > 0 {
		headers, err := config.ParseHeaders(flags.headers)
		if err != nil {
			return nil, err
		}
		if spec.Headers == nil {
			spec.Headers = map[string]string{}
		}
		for key, value := range headers {
			spec.Headers[key] = value
		}
	}

	if flags.body != "" {
		spec.Body = parseBodyFlag(flags.body)
	}

	spec.ApplyDefaults()
	return spec, nil
}

// parseBodyFlag keeps JSON bodies structured so they serialize as the caller
// wrote them instead of as a quoted string.
func parseBodyFlag(raw string) interface{} {
	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return parsed
	}
	return raw
}

func executeRun(cmd *cobra.Command, spec config.RunSpec, flags *runFlags) error {
	thresholds, err := threshold.ParseMultiple(flags.thresholds)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	// CLI runs keep stderr quiet; the printed report is the output.
	logger := newLogger(false).Level(zerolog.WarnLevel)

	provider, err := tracing.Init(ctx, tracing.FromEnv())
	if err != nil {
		return err
	}
	defer provider.Shutdown(ctx)

	engineOpts := []engine.Option{}
	if provider.Enabled() {
		engineOpts = append(engineOpts, engine.WithTracer(provider.Tracer()))
	}
	if !flags.jsonOutput {
		engineOpts = append(engineOpts, engine.WithProgressWriter(os.Stdout))
	}

	result, err := engine.New(logger, engineOpts...).Run(ctx, spec)
	if err != nil {
		return err
	}

	if flags.jsonOutput {
		if err := output.PrintJSONReport(os.Stdout, result); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, result)
	}

	if len(thresholds) > 0 {
		results := threshold.Evaluate(thresholds, result.Summary)
		fmt.Fprintln(os.Stdout, "\nThresholds:")
		for _, r := range results {
			fmt.Fprintf(os.Stdout, "  %s\n", r.Message)
		}
		if !threshold.AllPassed(results) {
			return fmt.Errorf("one or more thresholds failed")
		}
	}

	if result.Summary.FailedCount > 0 {
		return fmt.Errorf("%d requests failed", result.Summary.FailedCount)
	}
	return nil
}
