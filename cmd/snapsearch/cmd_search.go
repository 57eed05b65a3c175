package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"snapsearch/internal/di"
	"snapsearch/internal/domain/entity"
	"snapsearch/internal/infrastructure/env"
	"snapsearch/internal/infrastructure/httpapi"
	"snapsearch/internal/infrastructure/imagedata"

	"github.com/spf13/cobra"
)

var (
	searchImage string
	searchURL   string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one visual search and print the result envelope as JSON",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchImage, "image", "i", "", "path to the image file")
	searchCmd.Flags().StringVar(&searchURL, "url", "", "target page (defaults to TARGET_URL)")
	_ = searchCmd.MarkFlagRequired("image")
}

func runSearch(cmd *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(searchImage)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	mime, err := imagedata.Sniff(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", searchImage, err)
	}

	settings := env.LoadSettings(env.NewEnvService())
	container, err := di.NewContainer(di.Config{Settings: settings})
	if err != nil {
		return err
	}
	defer container.Close()

	target := searchURL
	if target == "" {
		target = settings.TargetURL
	}
	req, err := entity.NewUploadRequest(entity.UploadParams{
		TargetURL: target,
		Image:     raw,
		MIMEType:  mime,
		Deadline:  settings.TotalTimeout,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := container.Searcher.Search(ctx, req)
	_, body := httpapi.ResponseFor(res)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		return err
	}
	if !res.OK() {
		return res.Err
	}
	return nil
}
