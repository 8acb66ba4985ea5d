// Package report renders run results to the console and persists them as
// JSON files for later inspection.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
)

// PrintRanked renders ranked results as a console table.
func PrintRanked(ranked []scout.RankedListing) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("TOP %d VIRAL PRODUCTS", len(ranked)))
	t.AppendHeader(table.Row{"#", "Name", "Price", "Source", "Category", "Score", "Reason"})
	for i, p := range ranked {
		t.AppendRow(table.Row{
			i + 1,
			scout.TruncateName(p.Name, 70),
			p.Price,
			p.Source,
			p.Category,
			fmt.Sprintf("%d/100", p.Score),
			p.Reason,
		})
	}
	t.Render()
}

// PrintListings renders raw scrape results (no scores) as a console table.
func PrintListings(listings []scout.Listing) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%d SCRAPED PRODUCTS", len(listings)))
	t.AppendHeader(table.Row{"#", "Name", "Price", "Source", "Category"})
	for i, p := range listings {
		t.AppendRow(table.Row{
			i + 1,
			scout.TruncateName(p.Name, 70),
			p.Price,
			p.Source,
			p.Category,
		})
	}
	t.Render()
}

// Writer persists run output beneath a single directory.
type Writer struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewWriter creates the output directory if needed and returns a Writer.
func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Writer{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}, nil
}

// SaveRanked writes ranked results to a timestamped JSON file and returns its
// path.
func (w *Writer) SaveRanked(ranked []scout.RankedListing) (string, error) {
	name := fmt.Sprintf("products_%s.json", w.now().Format("2006-01-02_1504"))
	return w.save(name, ranked)
}

// SaveRaw writes the full unranked scrape to scrape_raw.json.
func (w *Writer) SaveRaw(listings []scout.Listing) (string, error) {
	return w.save("scrape_raw.json", listings)
}

func (w *Writer) save(name string, payload any) (string, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	w.logger.Info("results saved", zap.String("path", path))
	return path, nil
}
