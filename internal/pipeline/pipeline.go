// Package pipeline wires a full indexing run: fetch the user's public
// repositories, categorize them, and write the dataset and markdown
// index.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"repo-atlas/internal/config"
	"repo-atlas/internal/dataset"
	"repo-atlas/internal/gemini"
	"repo-atlas/internal/github"
	"repo-atlas/internal/markdown"
	"repo-atlas/internal/models"
)

func Run(ctx context.Context, cfg *config.Config) error {
	// Step 1: Fetch repositories from GitHub
	fmt.Printf("Fetching repositories for GitHub user: %s\n", cfg.GitHubUsername)
	gh, err := github.NewClient(ctx, cfg.GitHubPAT, cfg.GitHubAPIURL)
	if err != nil {
		return err
	}
	repos, err := gh.ListUserRepos(ctx, cfg.GitHubUsername)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d repositories for %s\n", len(repos), cfg.GitHubUsername)

	// Newest first
	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].CreatedAt.After(repos[j].CreatedAt)
	})

	// Step 2: Categorize with the language model
	var categorized []models.CategorizedRepo
	if len(repos) == 0 {
		fmt.Println("No repositories to categorize")
	} else {
		fmt.Printf("Categorizing %d repositories with %s...\n", len(repos), cfg.GeminiModel)
		llmClient := gemini.NewClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
		categorized, err = llmClient.Categorize(ctx, repos)
		if err != nil {
			return err
		}
		fmt.Printf("Categorized repositories into %d categories\n", len(markdown.Group(categorized)))
	}

	// Step 3: Stage both artifacts in memory. Nothing touches disk
	// until fetch and categorization have succeeded, so a failed run
	// leaves any previous outputs intact.
	csvData, err := dataset.Marshal(repos)
	if err != nil {
		return err
	}
	doc := markdown.Render(categorized, time.Now(), cfg.BadgeStyle)

	// Step 4: Commit the dataset and the index. Both files are staged
	// next to their targets before either rename, so an unwritable
	// destination fails the run with the previous outputs still in
	// place.
	datasetTmp, err := stageFile(cfg.DatasetPath, csvData)
	if err != nil {
		return fmt.Errorf("saving dataset: %w", err)
	}
	defer os.Remove(datasetTmp)

	indexTmp, err := stageFile(cfg.IndexPath, doc)
	if err != nil {
		return fmt.Errorf("saving markdown index: %w", err)
	}
	defer os.Remove(indexTmp)

	if err := os.Rename(datasetTmp, cfg.DatasetPath); err != nil {
		return fmt.Errorf("saving dataset: %w", err)
	}
	fmt.Printf("Saved %d repositories to %s\n", len(repos), cfg.DatasetPath)

	if err := os.Rename(indexTmp, cfg.IndexPath); err != nil {
		return fmt.Errorf("saving markdown index: %w", err)
	}
	fmt.Printf("Generated markdown index at %s\n", cfg.IndexPath)

	fmt.Println("Done!")
	return nil
}

// stageFile creates intermediate directories as needed and writes data
// to a temp file next to path, ready for the caller to rename into
// place. The temp file is cleaned up on failure.
func stageFile(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
