// Package gemini categorizes repositories by asking a Gemini model,
// reached through its OpenAI-compatible endpoint, to group them.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"repo-atlas/internal/models"
)

type Client struct {
	client *openai.Client
	model  string
}

const requestTimeout = 2 * time.Minute

func NewClient(baseURL, apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		// The OpenAI-compatible endpoint expects bare model names, while
		// Gemini's native API spells them "models/gemini-2.0-flash".
		// Accept either form.
		model: strings.TrimPrefix(model, "models/"),
	}
}

const systemPrompt = `You are a technical analyst. Given a list of GitHub repositories, categorize them into logical groups based on their names, descriptions, and other attributes.

Each repository must belong to exactly one category. Create as many categories as needed to group repositories with significant commonalities, and give each category a short descriptive name.

Format your response as a JSON object with this structure:

{
  "categories": [
    {
      "name": "Category Name",
      "repositories": [
        { "name": "repo-name", "url": "repo-url" }
      ]
    }
  ]
}

Return ONLY valid JSON. No markdown, no code fences, no text before or after the JSON.`

// maxChunkSize caps how many repositories go into a single prompt so
// that large accounts stay under the model's context limit.
const maxChunkSize = 200

const maxParallelChunks = 3

// promptRepo is the per-repository payload embedded in the prompt.
type promptRepo struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	CreatedAt   string `json:"created_at"`
	Description string `json:"description"`
}

type responsePayload struct {
	Categories []categoryPayload `json:"categories"`
}

type categoryPayload struct {
	Name         string        `json:"name"`
	Repositories []repoPayload `json:"repositories"`
}

type repoPayload struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Categorize assigns every repo a category. The result has exactly one
// entry per input repo, in input order; repos the model skips fall back
// to models.FallbackCategory, and names the model invents are dropped.
func (c *Client) Categorize(ctx context.Context, repos []models.Repo) ([]models.CategorizedRepo, error) {
	if len(repos) == 0 {
		return nil, nil
	}

	numChunks := (len(repos) + maxChunkSize - 1) / maxChunkSize
	payloads := make([]*responsePayload, numChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChunks)
	for i := 0; i < numChunks; i++ {
		start := i * maxChunkSize
		end := start + maxChunkSize
		if end > len(repos) {
			end = len(repos)
		}
		g.Go(func() error {
			payload, err := c.categorizeChunk(gctx, repos[start:end])
			if err != nil {
				return fmt.Errorf("categorizing repos %d-%d: %w", start, end, err)
			}
			payloads[i] = payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var categories []categoryPayload
	for _, payload := range payloads {
		categories = append(categories, payload.Categories...)
	}
	return assignCategories(repos, categories), nil
}

func (c *Client) categorizeChunk(ctx context.Context, repos []models.Repo) (*responsePayload, error) {
	userMsg, err := buildUserMessage(repos)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
		// No ResponseFormat, since not all models support json_object
		// mode. The system prompt instructs the model to return pure
		// JSON, and parseResponse cleans up what comes back anyway.
		Temperature: 0.3,
	})
	if err != nil {
		return nil, &CategorizationError{Detail: "chat completion request", Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &CategorizationError{Detail: "no choices in model response"}
	}

	return parseResponse(resp.Choices[0].Message.Content)
}

func buildUserMessage(repos []models.Repo) (string, error) {
	payload := make([]promptRepo, 0, len(repos))
	for _, r := range repos {
		payload = append(payload, promptRepo{
			Name:        r.Name,
			URL:         r.URL,
			CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
			Description: r.DescriptionOrEmpty(),
		})
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling repository data: %w", err)
	}
	return "Here's the repository data:\n" + string(data), nil
}

// parseResponse decodes a completion into the categories payload,
// tolerating code fences, surrounding prose, and the JSON mistakes
// repairJSON knows how to fix.
func parseResponse(content string) (*responsePayload, error) {
	raw := extractJSONObject(stripCodeFences(content))
	if raw == "" {
		return nil, &CategorizationError{Detail: fmt.Sprintf("no JSON object in model response: %s", excerpt(content))}
	}

	var payload responsePayload
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		return &payload, nil
	}

	if repaired, ok := repairJSON(raw); ok {
		if err := json.Unmarshal([]byte(repaired), &payload); err == nil {
			return &payload, nil
		}
	}

	return nil, &CategorizationError{Detail: fmt.Sprintf("unparsable model response: %s", excerpt(content))}
}

// assignCategories maps model output back onto the input list. The
// input list is authoritative: every input repo gets exactly one
// category, in input order, and the first assignment for a name wins.
func assignCategories(repos []models.Repo, categories []categoryPayload) []models.CategorizedRepo {
	assigned := make(map[string]string, len(repos))
	for _, cat := range categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			name = models.FallbackCategory
		}
		for _, repo := range cat.Repositories {
			if _, ok := assigned[repo.Name]; ok {
				continue
			}
			assigned[repo.Name] = name
		}
	}

	out := make([]models.CategorizedRepo, 0, len(repos))
	for _, repo := range repos {
		category, ok := assigned[repo.Name]
		if !ok {
			category = models.FallbackCategory
		}
		out = append(out, models.CategorizedRepo{Repo: repo, Category: category})
	}
	return out
}

// stripCodeFences removes markdown code fences that some models wrap
// around JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence (```json or ```)
		if i := strings.Index(s, "\n"); i != -1 {
			s = s[i+1:]
		}
		// Remove closing fence
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// extractJSONObject returns the outermost {...} span of s, or "" when
// no object brackets are present. Models sometimes wrap the JSON in
// explanatory prose despite instructions.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}

const maxExcerptLen = 500

// excerpt truncates a model response for use in error messages. The cut
// backs up to a rune boundary so a multi-byte character is never split.
func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxExcerptLen {
		return s
	}
	cut := maxExcerptLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
