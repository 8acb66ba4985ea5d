package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Morningbriefrezi/New-Products-Bot/internal/scout"
)

func TestWriterSaveRanked(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, zap.NewNop())
	require.NoError(t, err)
	w.now = func() time.Time { return time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC) }

	ranked := []scout.RankedListing{{
		Listing: scout.Listing{Name: "Lamp", Price: "$7.99", Link: "https://l", Source: scout.SourceAlibaba, Category: "lamps"},
		Score:   92,
		Reason:  "bright",
	}}

	path, err := w.SaveRanked(ranked)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "products_2026-08-28_1430.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var back []scout.RankedListing
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, ranked, back)
}

func TestWriterSaveRaw(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, zap.NewNop())
	require.NoError(t, err)

	path, err := w.SaveRaw([]scout.Listing{{Name: "X", Link: "https://x"}})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "scrape_raw.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"link": "https://x"`)
}

func TestWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	_, err := NewWriter(dir, zap.NewNop())
	require.NoError(t, err)
	require.DirExists(t, dir)

	_, err = NewWriter("", zap.NewNop())
	require.Error(t, err)
}
