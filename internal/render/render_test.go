package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/pulsereport/internal/config"
)

func TestHTMLSibling(t *testing.T) {
	cases := map[string]string{
		"out/2025-11-19_report.pdf":       "out/2025-11-19_report.html",
		"2025-11-weekly-report.pdf":       "2025-11-weekly-report.html",
		"/abs/2025-11-monthly-report.pdf": "/abs/2025-11-monthly-report.html",
	}
	for in, want := range cases {
		if got := htmlSibling(in); got != want {
			t.Errorf("htmlSibling(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteHTMLCreatesSibling(t *testing.T) {
	dir := t.TempDir()
	r := New(config.RenderConfig{}, nil)

	pdfPath := filepath.Join(dir, "nested", "2025-11-19_report.pdf")
	htmlPath, err := r.WriteHTML(pdfPath, "<html><body>ok</body></html>")
	if err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	if !strings.HasSuffix(htmlPath, "2025-11-19_report.html") {
		t.Errorf("unexpected html path %q", htmlPath)
	}
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "<html><body>ok</body></html>" {
		t.Errorf("html content mismatch: %q", data)
	}
}
