package render

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"

	"sysmap/internal/report"
)

//go:embed template.html
var reportTemplate string

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

type templateData struct {
	RootPath     string
	ScanID       string
	ScanDate     string
	TotalSize    string
	TotalFiles   int
	Inaccessible int

	CategoriesJSON template.JS
	TopDirsJSON    template.JS
	TreeJSON       template.JS
	GraphJSON      template.JS
}

// Render produces the complete HTML document for one report.
func Render(rep *report.Report) ([]byte, error) {
	categories, err := json.Marshal(rep.Categories)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal category data: %w", err)
	}
	topDirs, err := json.Marshal(rep.TopDirs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal top directories: %w", err)
	}
	tree, err := json.Marshal(rep.Treemap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal treemap data: %w", err)
	}
	graph, err := json.Marshal(rep.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph data: %w", err)
	}

	data := templateData{
		RootPath:     rep.Summary.RootPath,
		ScanID:       rep.Summary.ScanID,
		ScanDate:     rep.Summary.GeneratedAt.Format("2006-01-02 15:04"),
		TotalSize:    report.FormatBytes(rep.Summary.TotalSize),
		TotalFiles:   rep.Summary.TotalFiles,
		Inaccessible: rep.Summary.Inaccessible,

		CategoriesJSON: template.JS(categories),
		TopDirsJSON:    template.JS(topDirs),
		TreeJSON:       template.JS(tree),
		GraphJSON:      template.JS(graph),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders the report and writes it to path.
func Write(rep *report.Report, path string) error {
	html, err := Render(rep)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, html, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
