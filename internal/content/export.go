package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ExportForGitHub writes the days, recordings and stats as JSON files into dir,
// creating it when needed. Each file is replaced atomically.
func (c *Client) ExportForGitHub(ctx context.Context, dir string) error {
	days, recs, err := c.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	stats := ComputeStats(days, recs, c.now())

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", dir, err)
	}

	files := []struct {
		name  string
		value any
	}{
		{DaysDocument, days},
		{RecordingsDocument, recs},
		{StatsDocument, stats},
	}
	for _, f := range files {
		if err := writeJSONFile(filepath.Join(dir, f.name), f.value); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}

	c.logger.Info("content exported",
		slog.String("dir", dir),
		slog.Int("days", len(days)),
		slog.Int("recordings", len(recs)),
	)
	return nil
}

func writeJSONFile(path string, v any) error {
	data, err := marshalDocument(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
