package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sentiment-probe/internal/dto"
	"github.com/noah-isme/sentiment-probe/internal/service"
)

func newBatchCmd(opts *options) *cobra.Command {
	var datasetPath string
	var workers int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate a labeled dataset and print accuracy, confusion and latency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.build(cmd)
			if err != nil {
				return err
			}

			dataset, err := loadDataset(datasetPath)
			if err != nil {
				return err
			}

			if workers <= 0 {
				workers = rt.cfg.BatchWorkers
			}
			svc := service.NewBatchService(rt.client, nil, rt.validate, service.BatchConfig{
				DefaultServiceURL: rt.cfg.ScoringBaseURL,
				Workers:           workers,
			}, rt.logger)

			summary, err := svc.Run(cmd.Context(), dto.BatchRequest{Dataset: dataset})
			if err != nil {
				return err
			}

			return writeBatch(cmd.OutOrStdout(), opts.format, summary, rt.recorder.Snapshot())
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "JSON file of [text, gold_label] pairs (defaults to the built-in dataset)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent calls (defaults to SENTIMENT_BATCH_WORKERS)")
	return cmd
}

func loadDataset(path string) (json.RawMessage, error) {
	if path == "" {
		return json.Marshal(service.NewDatasetService().Default().Items)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return raw, nil
}
