// Package render turns composed HTML into PDF files with headless Chrome.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/claude/pulsereport/internal/config"
)

const mmPerInch = 25.4

// Renderer writes the HTML next to the requested PDF before printing, so a
// failed print still leaves an inspectable artifact on disk.
type Renderer struct {
	timeout time.Duration
	grace   time.Duration
	logger  *slog.Logger
}

func New(cfg config.RenderConfig, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{timeout: cfg.Timeout(), grace: cfg.Grace(), logger: logger}
}

// WriteHTML persists the composed document and returns its path. The HTML
// sits beside the PDF target with the extension swapped.
func (r *Renderer) WriteHTML(pdfPath, html string) (string, error) {
	htmlPath := htmlSibling(pdfPath)
	if err := os.MkdirAll(filepath.Dir(htmlPath), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("write html: %w", err)
	}
	return htmlPath, nil
}

// RenderPDF prints an already-written HTML file to pdfPath. On failure the
// HTML file is left in place and its path is carried in the error.
func (r *Renderer) RenderPDF(ctx context.Context, htmlPath, pdfPath string) error {
	absHTML, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("resolve html path: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+absHTML),
		// Give Chart.js and web fonts a moment to settle before printing.
		chromedp.Sleep(r.grace),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(210 / mmPerInch).
				WithPaperHeight(297 / mmPerInch).
				WithMarginTop(8 / mmPerInch).
				WithMarginBottom(8 / mmPerInch).
				WithMarginLeft(8 / mmPerInch).
				WithMarginRight(8 / mmPerInch).
				WithDisplayHeaderFooter(false).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("print pdf (html preserved at %s): %w", htmlPath, err)
	}

	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return fmt.Errorf("write pdf (html preserved at %s): %w", htmlPath, err)
	}
	r.logger.Info("rendered pdf", "path", pdfPath, "bytes", len(pdf))
	return nil
}

// Render writes the HTML and prints it in one step.
func (r *Renderer) Render(ctx context.Context, pdfPath, html string) error {
	htmlPath, err := r.WriteHTML(pdfPath, html)
	if err != nil {
		return err
	}
	return r.RenderPDF(ctx, htmlPath, pdfPath)
}

func htmlSibling(pdfPath string) string {
	ext := filepath.Ext(pdfPath)
	return pdfPath[:len(pdfPath)-len(ext)] + ".html"
}
