package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sentiment-probe/internal/dto"
	"github.com/noah-isme/sentiment-probe/internal/service"
)

func newScoreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "score [text]",
		Short: "Score a single text and print its label",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.build(cmd)
			if err != nil {
				return err
			}

			svc := service.NewScoreService(rt.client, rt.validate, rt.cfg.ScoringBaseURL, rt.logger)
			result, err := svc.Score(cmd.Context(), dto.ScoreRequest{Text: strings.Join(args, " ")})
			if err != nil {
				return err
			}

			return writeScore(cmd.OutOrStdout(), opts.format, result, rt.recorder.Snapshot())
		},
	}
}
