package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/licverify/licverify/internal/batch"
	"github.com/licverify/licverify/internal/input"
	"github.com/licverify/licverify/internal/model"
	"github.com/licverify/licverify/internal/registry"
	"github.com/licverify/licverify/internal/report"
	"github.com/licverify/licverify/internal/textenc"
	"github.com/licverify/licverify/internal/verify"
)

var (
	outputPath   string
	failuresPath string
	endpoint     string
	certFile     string
	keyFile      string
	caFile       string
	minDelayMS   int
	maxDelayMS   int
	rpmCap       int
	initialDelay time.Duration
	delayCeiling time.Duration
	cacheEnabled bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <input>",
	Short: "Verify every record of an input file against the registry",
	Long: `Runs the full batch:
- Auto-detect the input file's encoding and delimiter
- Load and sanitize the verification requests
- Verify them one at a time over the SOAP endpoint, with courtesy
  pacing and adaptive backoff
- Stream the normalized report, flushed after every request

Example:
  licverify run drivers.csv -o report.csv
  licverify run drivers.csv --endpoint https://registry.example/ws --cert client.pem --key client.key
  licverify run drivers.csv --failures failures.jsonl --min-delay-ms 1000 --max-delay-ms 3000`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&outputPath, "output", "o", "report.csv", "report file path")
	runCmd.Flags().StringVar(&failuresPath, "failures", "", "failure log file (JSON lines), in addition to stderr diagnostics")

	runCmd.Flags().StringVar(&endpoint, "endpoint", "", "registry SOAP endpoint URL")
	runCmd.Flags().StringVar(&certFile, "cert", "", "client certificate PEM file")
	runCmd.Flags().StringVar(&keyFile, "key", "", "client certificate key PEM file")
	runCmd.Flags().StringVar(&caFile, "ca", "", "CA bundle PEM file (optional)")

	runCmd.Flags().IntVar(&minDelayMS, "min-delay-ms", 500, "courtesy delay lower bound between requests")
	runCmd.Flags().IntVar(&maxDelayMS, "max-delay-ms", 1500, "courtesy delay upper bound between requests")
	runCmd.Flags().IntVar(&rpmCap, "rpm", 0, "hard cap on requests per minute (0 = off)")
	runCmd.Flags().DurationVar(&initialDelay, "backoff-initial", 30*time.Second, "first backoff delay after a throttling response")
	runCmd.Flags().DurationVar(&delayCeiling, "backoff-ceiling", 60*time.Minute, "delay beyond which the run aborts instead of waiting")
	runCmd.Flags().BoolVar(&cacheEnabled, "cache", false, "cache registry responses for duplicate rows within this run")
}

func runRun(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	cfg := buildConfig(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Licverify Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", inputPath)
	fmt.Fprintf(os.Stderr, "  Report file:  %s\n", cfg.Output.Path)
	fmt.Fprintf(os.Stderr, "  Endpoint:     %s\n", cfg.Registry.Endpoint)
	fmt.Fprintf(os.Stderr, "  Pacing:       %d-%d ms between requests\n", cfg.Pacing.MinDelayMS, cfg.Pacing.MaxDelayMS)
	fmt.Fprintf(os.Stderr, "  Backoff:      %v initial, %v ceiling\n", cfg.Backoff.InitialDelay, cfg.Backoff.DelayCeiling)
	fmt.Fprintf(os.Stderr, "\n")

	failures, closeFailures, err := failureLogger(cfg.Output.FailuresPath)
	if err != nil {
		return &batch.StatusError{Severity: batch.SeverityOutput, Message: err.Error()}
	}
	defer closeFailures()

	// Detect the input shape before anything touches the network.
	format, err := textenc.DetectFormat(inputPath)
	if err != nil {
		log.WithError(err).Error("cannot read input file")
		writeEmptyReport(cfg.Output.Path)
		return &batch.StatusError{Severity: batch.SeverityNoInput, Message: err.Error()}
	}
	fmt.Fprintf(os.Stderr, "⚙️  Detected format: %s, delimiter %q\n", format.Encoding, format.Delimiter)

	requests, err := input.NewLoader(log).Load(inputPath, format)
	if err != nil {
		log.WithError(err).Error("cannot load input file")
		writeEmptyReport(cfg.Output.Path)
		return &batch.StatusError{Severity: batch.SeverityNoInput, Message: err.Error()}
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d requests\n", len(requests))

	soapClient, err := registry.NewClient(cfg.Registry)
	if err != nil {
		var credErr *registry.CredentialError
		if errors.As(err, &credErr) {
			return &batch.StatusError{Severity: batch.SeverityNoInput, Message: err.Error()}
		}
		return err
	}
	client := verify.New(soapClient, cfg, log)
	defer func() {
		if cerr := client.Close(); cerr != nil {
			log.WithError(cerr).Warn("registry client did not close cleanly")
		}
	}()

	writer, err := report.Create(cfg.Output.Path)
	if err != nil {
		return &batch.StatusError{Severity: batch.SeverityOutput, Message: err.Error()}
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil {
			log.WithError(cerr).Warn("report did not close cleanly")
		}
	}()

	fmt.Fprintf(os.Stderr, "⚙️  Verifying %d requests sequentially...\n\n", len(requests))
	orchestrator := batch.New(client, writer, cfg.Pacing, log, failures)
	outcome, runErr := orchestrator.Run(ctx, requests)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Requests:  %d\n", len(requests))
	fmt.Fprintf(os.Stderr, "  Verified:  %d\n", outcome.Processed)
	fmt.Fprintf(os.Stderr, "  Failed:    %d\n", outcome.Failed)
	fmt.Fprintf(os.Stderr, "  Rows:      %d\n", outcome.RowsWritten)
	fmt.Fprintf(os.Stderr, "  Status:    %s\n", outcome.Severity)
	fmt.Fprintf(os.Stderr, "\n")

	if runErr != nil && outcome.Severity == batch.SeverityOK {
		// Cancellation and similar: no classified severity, plain error.
		return runErr
	}
	if outcome.Severity != batch.SeverityOK {
		return &batch.StatusError{Severity: outcome.Severity, Message: "run finished with " + outcome.Severity.String()}
	}
	return nil
}

// buildConfig merges defaults, config file and flags, flags winning.
func buildConfig(cmd *cobra.Command) *model.Config {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		log.WithError(err).Warn("ignoring malformed configuration")
		cfg = model.DefaultConfig()
	}

	flagged := func(name string) bool { return cmd.Flags().Changed(name) }
	if flagged("output") || cfg.Output.Path == "" {
		cfg.Output.Path = outputPath
	}
	if flagged("failures") {
		cfg.Output.FailuresPath = failuresPath
	}
	if flagged("endpoint") {
		cfg.Registry.Endpoint = endpoint
	}
	if flagged("cert") {
		cfg.Registry.CertFile = certFile
	}
	if flagged("key") {
		cfg.Registry.KeyFile = keyFile
	}
	if flagged("ca") {
		cfg.Registry.CAFile = caFile
	}
	if flagged("min-delay-ms") {
		cfg.Pacing.MinDelayMS = minDelayMS
	}
	if flagged("max-delay-ms") {
		cfg.Pacing.MaxDelayMS = maxDelayMS
	}
	if flagged("rpm") {
		cfg.Pacing.RequestsPerMinute = rpmCap
	}
	if flagged("backoff-initial") {
		cfg.Backoff.InitialDelay = initialDelay
	}
	if flagged("backoff-ceiling") {
		cfg.Backoff.DelayCeiling = delayCeiling
	}
	if flagged("cache") {
		cfg.Cache.Enabled = cacheEnabled
	}
	cfg.Output.Verbose = verbose
	return cfg
}

// failureLogger builds the structured failure sink: the shared logger by
// default, plus a JSON-lines file when configured.
func failureLogger(path string) (*logrus.Logger, func(), error) {
	if path == "" {
		return log, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open failure log: %w", err)
	}
	failures := logrus.New()
	failures.SetOutput(f)
	failures.SetFormatter(&logrus.JSONFormatter{})
	return failures, func() { _ = f.Close() }, nil
}

// writeEmptyReport produces the header-only artifact promised even when
// the input is unusable. Best effort: the input error dominates.
func writeEmptyReport(path string) {
	w, err := report.Create(path)
	if err != nil {
		log.WithError(err).Warn("cannot write empty report")
		return
	}
	if err := w.Close(); err != nil {
		log.WithError(err).Warn("cannot close empty report")
	}
}
