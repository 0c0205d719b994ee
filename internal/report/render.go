package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"salesdash/internal/analytics"
)

//go:embed templates/*.html
var templatesFS embed.FS

func newTemplate() (*template.Template, error) {
	funcs := template.FuncMap{
		"currency": analytics.FormatCurrency,
		"count":    analytics.FormatCount,
		"percent":  analytics.FormatPercent,
	}
	return template.New("report.html").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}

// Render writes the report HTML to w.
func Render(w io.Writer, data *Data) error {
	t, err := newTemplate()
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}
	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// Save renders the report into dir under a timestamped name and returns the
// written path. The directory is created if needed.
func Save(dir string, data *Data) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	name := fmt.Sprintf("sales_report_%s.html", data.GeneratedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := Render(f, data); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
