// Package dataset encodes the fetched repository list as a CSV table so
// that a run's input to categorization can be inspected and reused.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"slices"
	"time"

	"repo-atlas/internal/models"
)

// columns is the fixed header row. Order matters: readers of the
// dataset rely on it.
var columns = []string{"name", "url", "created_at", "description"}

// Marshal encodes repos as CSV with a header row. A nil description is
// written as an empty field, and created_at is formatted as RFC 3339 in
// UTC. An empty repo list yields a header-only dataset.
func Marshal(repos []models.Repo) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("dataset: write header: %w", err)
	}
	for _, r := range repos {
		record := []string{
			r.Name,
			r.URL,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.DescriptionOrEmpty(),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("dataset: write row for %q: %w", r.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("dataset: flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a dataset produced by Marshal. An empty description
// field decodes back to a nil description.
func Unmarshal(data []byte) ([]models.Repo, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: parse: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("dataset: missing header row")
	}
	if !slices.Equal(records[0], columns) {
		return nil, fmt.Errorf("dataset: unexpected header %v", records[0])
	}

	repos := make([]models.Repo, 0, len(records)-1)
	for i, record := range records[1:] {
		created, err := time.Parse(time.RFC3339, record[2])
		if err != nil {
			return nil, fmt.Errorf("dataset: row %d: bad created_at %q: %w", i+1, record[2], err)
		}
		repo := models.Repo{
			Name:      record[0],
			URL:       record[1],
			CreatedAt: created,
		}
		if record[3] != "" {
			desc := record[3]
			repo.Description = &desc
		}
		repos = append(repos, repo)
	}
	return repos, nil
}
