package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/protobuf/proto"

	"github.com/terrpan/vmrunner/internal/actions"
	"github.com/terrpan/vmrunner/internal/buildinfo"
	"github.com/terrpan/vmrunner/internal/config"
	"github.com/terrpan/vmrunner/internal/engine/gcp"
	vmotel "github.com/terrpan/vmrunner/internal/otel"
)

const serviceName = "vmrunner"

// outputLabel is the step output declared in action.yml.
const outputLabel = "label"

var (
	cfgPath      string
	inputFlags   map[string]string
	logging      config.LoggingConfig
	otelCfg      vmotel.Config
	printRequest bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		actions.NewWriter(os.Stdout).Error(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vmrunner",
	Short: "Prepare an ephemeral cloud VM runner for a GitHub Actions workflow",
	Long: `vmrunner reads the action inputs, validates them for the selected
mode (start or stop) and publishes the step outputs.

Inputs come from the INPUT_* environment set by the Actions runner, with
optional overrides from a YAML file (--config) and --input flags. The
repository is taken from GITHUB_REPOSITORY.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()
		return run(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", serviceName, buildinfo.String())
	},
}

func init() {
	f := rootCmd.Flags()

	f.StringVar(&cfgPath, "config", "", "Path to a YAML file of action inputs (optional)")
	f.StringToStringVar(&inputFlags, "input", nil, "Input override as name=value (repeatable)")
	f.BoolVar(&printRequest, "print-request", false, "Print the rendered compute request as JSON")

	f.StringVar(&logging.Level, "log-level", "info", "Log level (debug, info, warn, error)")
	f.StringVar(&logging.Format, "log-format", "text", "Log format (text, json)")

	f.BoolVar(&otelCfg.Enabled, "otel-enabled", false, "Export traces and metrics over OTLP/HTTP")
	f.StringVar(&otelCfg.Endpoint, "otel-endpoint", "", "OTLP HTTP endpoint (default: OTEL_EXPORTER_OTLP_ENDPOINT)")
	f.BoolVar(&otelCfg.Insecure, "otel-insecure", false, "Use plain HTTP for OTLP export")
	f.BoolVar(&otelCfg.StdOut, "otel-stdout", false, "Write traces and metrics to stderr")

	rootCmd.AddCommand(versionCmd)
}

// inputSource layers --input flags over the environment over the file.
func inputSource() (config.InputSource, error) {
	chain := config.ChainSource{config.MapSource(inputFlags), config.EnvSource{}}
	if cfgPath != "" {
		file, err := config.LoadFile(cfgPath)
		if err != nil {
			return nil, err
		}
		chain = append(chain, file)
	}
	return chain, nil
}

func run(ctx context.Context, stdout, stderr io.Writer) error {
	logger := logging.NewLogger(stderr)
	gha := actions.NewWriter(stdout)

	otelCfg.Writer = stderr
	shutdown, err := vmotel.SetupOTelSDK(ctx, serviceName, otelCfg)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		if sErr := shutdown(context.WithoutCancel(ctx)); sErr != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", sErr.Error()))
		}
	}()

	cfg, err := loadConfig(ctx, gha, logger)
	if err != nil {
		return err
	}

	in := cfg.Input()
	gha.Mask(in.GithubToken)

	var req proto.Message
	switch in.Mode {
	case config.ModeStart:
		label := in.Label
		if label == "" {
			label = config.GenerateUniqueLabel()
		}
		name := gcp.InstanceName(label)
		if err := gha.SetOutput(outputLabel, label); err != nil {
			return err
		}
		logger.Info("runner prepared",
			slog.String("label", label),
			slog.String("instance", name),
			slog.String("repository", cfg.Repo().String()),
		)
		req = gcp.InsertRequest(cfg.WithLabel(label), name)
	case config.ModeStop:
		logger.Info("runner teardown prepared",
			slog.String("label", in.Label),
			slog.String("instance", in.InstanceID),
		)
		req = gcp.DeleteRequest(cfg)
	}

	if printRequest {
		out, err := gcp.Marshal(req)
		if err != nil {
			return fmt.Errorf("rendering request: %w", err)
		}
		fmt.Fprintln(stdout, string(out))
	}
	return nil
}

// loadConfig reads and validates the inputs inside a log group, recording
// a span and a load counter.
func loadConfig(ctx context.Context, gha *actions.Writer, logger *slog.Logger) (*config.Config, error) {
	_, span := otel.Tracer("vmrunner/config").Start(ctx, "vmrunner.config.load")
	defer span.End()

	loads, mErr := otel.Meter("vmrunner/config").Int64Counter(
		"vmrunner.config.loads",
		metric.WithDescription("Number of input loads by mode and outcome"),
		metric.WithUnit("1"),
	)
	if mErr != nil {
		logger.Warn("failed to create loads counter", slog.String("error", mErr.Error()))
	}

	var cfg *config.Config
	err := gha.Group("Parsing Action Inputs", func() error {
		src, err := inputSource()
		if err != nil {
			return fmt.Errorf("loading inputs: %w", err)
		}

		repo, err := config.ParseRepo(os.Getenv(config.EnvGithubRepository))
		if err != nil {
			return err
		}

		cfg, err = config.New(src, repo)
		if err != nil {
			return err
		}
		logger.Info("inputs loaded", slog.Any("inputs", cfg.Input()))
		return nil
	})

	outcome := "ok"
	mode := ""
	if err != nil {
		outcome = outcomeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		mode = cfg.Input().Mode
		span.SetAttributes(
			attribute.String("runner.mode", mode),
			attribute.String("github.repository", cfg.Repo().String()),
		)
	}
	if loads != nil {
		loads.Add(ctx, 1, metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("outcome", outcome),
		))
	}

	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// outcomeOf classifies a load error for the loads counter.
func outcomeOf(err error) string {
	var (
		missing   *config.MissingInputError
		malformed *config.MalformedValueError
		invalid   *config.ConfigError
	)
	switch {
	case errors.As(err, &missing):
		return "missing_input"
	case errors.As(err, &malformed):
		return "malformed_value"
	case errors.As(err, &invalid):
		return "config_error"
	default:
		return "error"
	}
}
