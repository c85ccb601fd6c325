package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/archivist/internal/bootstrap"
	"github.com/JakeFAU/archivist/internal/dom"
	"github.com/JakeFAU/archivist/internal/hash/sha256"
	"github.com/JakeFAU/archivist/internal/metrics"
	"github.com/JakeFAU/archivist/internal/storage"
)

// ErrPipelineFailed is returned when the rendered page carries the error panel.
var ErrPipelineFailed = errors.New("archive pipeline failed")

type renderOptions struct {
	page string
	url  string
	out  string
}

// newRenderCmd creates the 'render' subcommand.
func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Runs the archive pipeline against a page and stores the result",
		Long: `Loads an HTML page, runs the archive pipeline as if the page were served at
--url, and writes the resulting HTML to the configured blob store. The command
exits non-zero when the pipeline had to show the error panel.`,
		Example: `  archivist render --page public/archive/index.html --url "https://example.org/archive/?q=atraxa&p=2"
  cat index.html | archivist render --page - --url https://example.org/archive/ --out archive/p2.html`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.page, "page", "", "HTML page to render, or - for stdin")
	cmd.Flags().StringVar(&opts.url, "url", "", "URL the page is served at; supplies q, kind, p and the endpoint origin")
	cmd.Flags().StringVar(&opts.out, "out", "", "object path to write (defaults to sink.object)")
	_ = cmd.MarkFlagRequired("page")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()
	cfg := appInstance.GetConfig()

	page, err := readPage(cmd.InOrStdin(), opts.page)
	if err != nil {
		return err
	}
	doc, err := dom.Parse(bytes.NewReader(page), opts.url)
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}

	res, err := appInstance.NewBootstrap().Run(cmd.Context(), doc)
	switch {
	case errors.Is(err, bootstrap.ErrAlreadyRan):
		logger.Info("Page already processed, storing it unchanged.")
	case err != nil:
		return fmt.Errorf("run pipeline: %w", err)
	}

	rendered, err := doc.HTML()
	if err != nil {
		return err
	}
	object := strings.TrimSpace(opts.out)
	if object == "" {
		object = cfg.Sink.Object
	}
	uri, err := appInstance.GetStorage().PutObject(cmd.Context(), object, storage.ContentTypeHTML, strings.NewReader(rendered))
	if err != nil {
		return fmt.Errorf("store page: %w", err)
	}
	logger.Info("Page stored",
		zap.String("uri", uri),
		zap.String("run_id", res.RunID),
		zap.String("outcome", res.Outcome.String()),
		zap.String("sha256", sha256.New().Short([]byte(rendered))),
	)

	if path := cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logger.Warn("Failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}

	if res.Err != nil {
		return fmt.Errorf("%w: %w", ErrPipelineFailed, res.Err)
	}
	return nil
}

func readPage(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read page from stdin: %w", err)
		}
		return data, nil
	}
	// #nosec G304 -- the page path is an explicit CLI argument.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return data, nil
}
