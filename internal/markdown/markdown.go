// Package markdown renders categorized repositories as a markdown
// index document.
package markdown

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"repo-atlas/internal/models"
)

// Badge styles for repository lines.
const (
	StyleLink   = "link"
	StyleShield = "shield"
)

const timeLayout = "2006-01-02 15:04:05"

// Render produces the markdown index for categorized. Output is
// deterministic for a fixed input: groups appear in first-appearance
// order with the fallback category pinned last, and repositories keep
// their input order within each group. Unknown styles render as links.
func Render(categorized []models.CategorizedRepo, generatedAt time.Time, style string) []byte {
	var b strings.Builder
	b.WriteString("# GitHub Repositories Index\n\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", generatedAt.Format(timeLayout))

	for _, group := range Group(categorized) {
		fmt.Fprintf(&b, "## %s\n\n", group.Name)
		for _, repo := range group.Repos {
			switch style {
			case StyleShield:
				fmt.Fprintf(&b, "[![%s](https://img.shields.io/badge/%s-repository-blue)](%s)\n\n",
					repo.Name, url.QueryEscape(repo.Name), repo.URL)
			default:
				fmt.Fprintf(&b, "- [%s](%s)\n", repo.Name, repo.URL)
			}
		}
		if style != StyleShield {
			b.WriteString("\n")
		}
	}
	return []byte(b.String())
}

// Group buckets categorized repos by category in first-appearance
// order, except the fallback category which always sorts last.
func Group(categorized []models.CategorizedRepo) []models.CategoryGroup {
	index := make(map[string]int)
	var groups []models.CategoryGroup
	for _, cr := range categorized {
		i, ok := index[cr.Category]
		if !ok {
			i = len(groups)
			index[cr.Category] = i
			groups = append(groups, models.CategoryGroup{Name: cr.Category})
		}
		groups[i].Repos = append(groups[i].Repos, cr)
	}

	for i, g := range groups {
		if g.Name == models.FallbackCategory && i != len(groups)-1 {
			fallback := g
			groups = append(groups[:i], groups[i+1:]...)
			groups = append(groups, fallback)
			break
		}
	}
	return groups
}
