package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medallia/speech-api-reference-implementation/internal/config"
	"github.com/medallia/speech-api-reference-implementation/internal/executor"
	"github.com/medallia/speech-api-reference-implementation/internal/output"
	"github.com/medallia/speech-api-reference-implementation/internal/transfer"
)

// transferBatchSize is one file per task so a slow download never holds up others
const transferBatchSize = 1

// newTransferCmd creates the transfer command
func newTransferCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer media files to the media file transfer bucket",
		Long: `Transfer media files from a local folder or an SFTP server to the media file
transfer (MMFT) bucket.

Files are selected by matching their base name against a glob pattern. The
listing is not recursive. Names of transferred files can be written to a file
for later use, e.g. to build the metadata for the publish command.`,
		Example: `  # Upload all wav files from a local folder
  speech transfer --local-folder ./calls -g '*.wav' \
    --mmft-endpoint https://mmft.example.com --mmft-bucket media \
    --mmft-access-key KEY --mmft-secret-key SECRET

  # Copy from SFTP with 8 connections and keep the list of uploaded names
  speech transfer --sftp-host sftp.example.com --sftp-username me \
    --sftp-password secret --sftp-folder /outgoing -p 8 \
    --filenames uploaded.txt ...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd.Context(), cmd, a)
		},
	}

	flags := cmd.Flags()
	flags.String("local-folder", "", "local folder to read files from")
	flags.String("sftp-host", "", "SFTP server to read files from")
	flags.Int("sftp-port", config.DefaultSFTPPort, "SFTP server port")
	flags.String("sftp-username", "", "SFTP user")
	flags.String("sftp-password", "", "SFTP password")
	flags.String("sftp-folder", "/", "SFTP folder to read files from")
	flags.String("mmft-endpoint", "", "MMFT S3 endpoint URL")
	flags.String("mmft-access-key", "", "MMFT access key")
	flags.String("mmft-secret-key", "", "MMFT secret key")
	flags.String("mmft-bucket", "", "MMFT bucket")
	flags.String("mmft-folder", "/", "folder inside the MMFT bucket")
	flags.String("mmft-region", config.DefaultRegion, "region used to sign MMFT requests")
	flags.StringP("glob", "g", config.DefaultGlob, "glob pattern the file names must match")
	flags.String("filenames", "", "file to write the transferred file names to")

	bindKey(flags, "local-folder", "transfer.local-folder")
	bindKey(flags, "sftp-host", "transfer.sftp.host")
	bindKey(flags, "sftp-port", "transfer.sftp.port")
	bindKey(flags, "sftp-username", "transfer.sftp.username")
	bindKey(flags, "sftp-password", "transfer.sftp.password")
	bindKey(flags, "sftp-folder", "transfer.sftp.folder")
	bindKey(flags, "mmft-endpoint", "transfer.mmft.endpoint")
	bindKey(flags, "mmft-access-key", "transfer.mmft.access-key")
	bindKey(flags, "mmft-secret-key", "transfer.mmft.secret-key")
	bindKey(flags, "mmft-bucket", "transfer.mmft.bucket")
	bindKey(flags, "mmft-folder", "transfer.mmft.folder")
	bindKey(flags, "mmft-region", "transfer.mmft.region")
	bindKey(flags, "glob", "transfer.glob")
	bindKey(flags, "filenames", "transfer.filenames")

	return cmd
}

func runTransfer(ctx context.Context, cmd *cobra.Command, a *app) error {
	cfg := a.cfg.Transfer
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := transfer.ValidatePattern(cfg.Glob); err != nil {
		return err
	}

	fetcher, err := a.newFetcher(cfg)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Getting a list of filenames from the source")
	all, err := fetcher.List(ctx)
	if err != nil {
		return err
	}
	files, err := transfer.Filter(all, cfg.Glob)
	if err != nil {
		return err
	}
	a.logger.Debug("listed source files", "listed", len(all), "matched", len(files), "glob", cfg.Glob)
	fmt.Fprintf(out, "Found %d file(s) to process\n\n", len(files))

	uploader, err := transfer.NewUploader(ctx, transfer.MMFTOptions{
		Endpoint:    cfg.MMFT.Endpoint,
		AccessKey:   cfg.MMFT.AccessKey,
		SecretKey:   cfg.MMFT.SecretKey,
		Bucket:      cfg.MMFT.Bucket,
		Folder:      cfg.MMFT.Folder,
		Region:      cfg.MMFT.Region,
		MaxAttempts: a.cfg.Retry.MaxAttempts,
	}, a.logger)
	if err != nil {
		return err
	}

	names, err := a.openFilenameLog(cfg.Filenames)
	if err != nil {
		return err
	}
	defer names.Close()

	exec := executor.New[transfer.File](a.executorConfig(transferBatchSize), a.logger)
	op := transfer.NewOperation(fetcher, uploader, names, a.logger)
	report := exec.Run(ctx, transfer.NewFileSource(files), op, a.progressBar(cmd, "Transferring"))

	a.logger.Debug("recorded transferred file names", "count", names.Count())
	return a.printReport(cmd, report)
}

// newFetcher picks the local or SFTP source; Validate ensures exactly one is set
func (a *app) newFetcher(cfg config.TransferConfig) (transfer.Fetcher, error) {
	if cfg.LocalFolder != "" {
		folder, err := config.ExpandPath(cfg.LocalFolder)
		if err != nil {
			return nil, err
		}
		return transfer.NewLocalFetcher(folder), nil
	}

	return transfer.NewSFTPFetcher(transfer.SFTPOptions{
		Host:     cfg.SFTP.Host,
		Port:     cfg.SFTP.Port,
		Username: cfg.SFTP.Username,
		Password: cfg.SFTP.Password,
		Folder:   cfg.SFTP.Folder,
	}, a.cfg.Parallel, a.logger), nil
}

func (a *app) openFilenameLog(path string) (*output.FilenameLog, error) {
	if path == "" {
		return output.OpenFilenameLog("")
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	return output.OpenFilenameLog(expanded)
}
