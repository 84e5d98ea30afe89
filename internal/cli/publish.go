package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medallia/speech-api-reference-implementation/internal/config"
	"github.com/medallia/speech-api-reference-implementation/internal/executor"
	"github.com/medallia/speech-api-reference-implementation/internal/publish"
)

// newPublishCmd creates the publish command
func newPublishCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish call metadata to the Speech API",
		Long: `Publish call metadata records from a CSV or JSON data file to the Speech API.

Records are sent in batches by parallel workers. Each batch is posted with an
OAuth2 client credentials token. Rejected records are listed after the run;
they do not make the command fail.`,
		Example: `  # Publish a CSV file in batches of 500 with 8 workers
  speech publish -d calls.csv -b 500 -p 8 \
    --token-url https://auth.example.com/oauth/token \
    --api-gateway https://gateway.example.com/speech/v1/ingest \
    --client-id my-client --client-secret my-secret

  # Credentials can come from the environment instead
  SPEECH_PUBLISH_CLIENT_SECRET=my-secret speech publish -d calls.json ...

  # Give up after 2 hours and print the report as JSON
  speech publish -d calls.csv -t 2h -o json ...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), cmd, a)
		},
	}

	flags := cmd.Flags()
	flags.StringP("data-file", "d", "", "CSV or JSON file with the call metadata (required)")
	flags.IntP("batch-size", "b", config.DefaultBatchSize, "number of records per request")
	flags.String("token-url", "", "OAuth2 token endpoint")
	flags.String("api-gateway", "", "Speech API ingestion URL")
	flags.String("client-id", "", "OAuth2 client id")
	flags.String("client-secret", "", "OAuth2 client secret")

	bindKey(flags, "data-file", "publish.data-file")
	bindKey(flags, "batch-size", "publish.batch-size")
	bindKey(flags, "token-url", "publish.token-url")
	bindKey(flags, "api-gateway", "publish.api-gateway")
	bindKey(flags, "client-id", "publish.client-id")
	bindKey(flags, "client-secret", "publish.client-secret")

	return cmd
}

func runPublish(ctx context.Context, cmd *cobra.Command, a *app) error {
	cfg := a.cfg.Publish
	if err := cfg.Validate(); err != nil {
		return err
	}

	dataFile, err := config.ExpandPath(cfg.DataFile)
	if err != nil {
		return err
	}

	src, format, err := publish.OpenSource(dataFile)
	if err != nil {
		return err
	}

	total := src.EstimatedTotal()
	batches := (total + int64(cfg.BatchSize) - 1) / int64(cfg.BatchSize)
	a.logger.Debug("opened data file", "file", dataFile, "format", format, "records", total)
	fmt.Fprintf(cmd.OutOrStdout(), "Data file has %d record(s), splitting into %d batch(es)\n\n", total, batches)

	registry := publish.NewClientRegistry(publish.DefaultRegistrySize, a.retryConfig(), a.logger)
	client := registry.Client(ctx, publish.Options{
		TokenURL:     cfg.TokenURL,
		APIGateway:   cfg.APIGateway,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})

	exec := executor.New[publish.Record](a.executorConfig(cfg.BatchSize), a.logger)
	report := exec.Run(ctx, src, publish.NewOperation(client, a.logger), a.progressBar(cmd, "Publishing"))

	return a.printReport(cmd, report)
}
