package ops

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hpungsan/vacay/internal/backend"
	"github.com/hpungsan/vacay/internal/errors"
	"github.com/hpungsan/vacay/internal/history"
)

// Opener opens a file with the platform viewer.
type Opener func(path string) error

// OpenFile opens path with open, xdg-open or cmd /C start depending on the platform.
// It does not wait for the viewer to exit.
func OpenFile(path string) error {
	cmd := openerCommand(path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// ExportPDFInput contains parameters for the ExportPDF operation.
type ExportPDFInput struct {
	OutputPath string // optional, backend chooses when empty
	Open       bool
}

// ExportPDFOutput contains the result of the ExportPDF operation.
type ExportPDFOutput struct {
	Success bool   `json:"success"`
	PDFPath string `json:"pdf_path"`
	Opened  bool   `json:"opened"`
	Warning string `json:"warning,omitempty"`
}

// ExportPDF renders the current itinerary to PDF through the backend.
// A nil opener disables opening regardless of input.Open.
func ExportPDF(ctx context.Context, b Backend, store *history.Store, opener Opener, logger *slog.Logger, input ExportPDFInput) (*ExportPDFOutput, error) {
	if logger == nil {
		logger = slog.Default()
	}

	current := store.Current()
	if current == nil || strings.TrimSpace(current.Markdown) == "" {
		return nil, errors.NewInvalidRequest("No itinerary to export")
	}

	res, err := b.GeneratePDF(ctx, backend.PDFRequest{
		Markdown:   current.Markdown,
		OutputPath: input.OutputPath,
	})
	if err != nil {
		return nil, err
	}

	out := &ExportPDFOutput{Success: res.Success, PDFPath: res.PDFPath}
	if !res.Success || res.PDFPath == "" {
		return out, nil
	}
	logger.Info("pdf exported", "path", res.PDFPath)

	if input.Open && opener != nil {
		if err := opener(res.PDFPath); err != nil {
			logger.Warn("could not open pdf", "path", res.PDFPath, "error", err)
			out.Warning = "PDF saved but could not be opened: " + err.Error()
		} else {
			out.Opened = true
		}
	}
	return out, nil
}
