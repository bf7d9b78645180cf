package cli

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/sentiment-probe/internal/config"
	"github.com/noah-isme/sentiment-probe/internal/observability"
	"github.com/noah-isme/sentiment-probe/pkg/scoring"
)

type options struct {
	baseURL string
	timeout time.Duration
	format  string
	verbose bool
}

// runtime bundles the pieces every command needs. Each invocation gets its own recorder.
type runtime struct {
	cfg      config.Config
	recorder *observability.Recorder
	client   *scoring.Client
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewRootCmd builds the sentimentctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "sentimentctl",
		Short:        "Probe an external sentiment scoring service from the terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "url", "", "base URL of the scoring service (defaults to SENTIMENT_SCORING_BASE_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "per-call timeout (defaults to SENTIMENT_SCORING_TIMEOUT)")
	root.PersistentFlags().StringVar(&opts.format, "format", formatTable, "output format (table, markdown, json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every upstream call to stderr")

	root.AddCommand(newScoreCmd(opts))
	root.AddCommand(newBatchCmd(opts))
	return root
}

func (o *options) build(cmd *cobra.Command) (*runtime, error) {
	if !validFormat(o.format) {
		return nil, fmt.Errorf("unknown format %q (want table, markdown or json)", o.format)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		cfg.ScoringBaseURL = o.baseURL
	}
	if o.timeout > 0 {
		cfg.ScoringTimeout = o.timeout
	}

	logger := zerolog.Nop()
	if o.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
	}

	recorder := observability.NewIsolatedRecorder()
	client, err := scoring.New(scoring.Config{
		Timeout:  cfg.ScoringTimeout,
		Recorder: recorder,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:      cfg,
		recorder: recorder,
		client:   client,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}, nil
}
