package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/use-agent/pastpapers/config"
	"github.com/use-agent/pastpapers/downloader"
)

type downloadOptions struct {
	list   string
	out    string
	report string
}

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	opts := &downloadOptions{}

	cmd := &cobra.Command{
		Use:   "download [URL...]",
		Short: "Download the PDF behind each paper page",
		Long: `Visit each paper page in order, find its download link and save the PDF.

URLs come from the arguments, else from --list (a YAML file with a "urls"
list, or one URL per line), else from the built-in list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.list, "list", "l", "", "File of paper page URLs (.yaml or one per line)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output directory (default from PASTPAPERS_OUTPUT_DIR)")
	cmd.Flags().StringVar(&opts.report, "report", "", "Write the run summary as JSON to this file")

	return cmd
}

// resolveURLs picks the input list: arguments, then --list, then defaults.
func resolveURLs(args []string, list string) ([]string, error) {
	if len(args) > 0 {
		urls := config.NormalizeURLs(args)
		if len(urls) == 0 {
			return nil, config.ErrEmptyList
		}
		return urls, nil
	}
	if list != "" {
		return config.LoadURLList(list)
	}
	return config.NormalizeURLs(config.DefaultURLs), nil
}

func runDownload(cmd *cobra.Command, args []string, opts *downloadOptions) error {
	cfg := loadConfig(cmd)
	if opts.out != "" {
		cfg.Download.OutputDir = opts.out
	}
	logCloser := initLogger(cfg.Log)
	defer logCloser.Close()

	urls, err := resolveURLs(args, opts.list)
	if err != nil {
		return err
	}

	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("download starting", "urls", len(urls), "dir", cfg.Download.OutputDir)
	summary, err := svc.Run(ctx, urls)
	if err != nil {
		return err
	}

	if opts.report != "" {
		if err := writeReport(opts.report, summary); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\nAll done! Check folder: %s\n", downloader.String(summary), cfg.Download.OutputDir)
	return nil
}

func writeReport(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
