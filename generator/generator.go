// Package generator drafts LinkedIn posts and comment replies with a
// chat-completions model, falling back to static templates when the
// provider is unavailable.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"linkedin-news-bot/config"
	"linkedin-news-bot/news"
)

const (
	defaultBaseURL = "https://api.groq.com"

	postTemperature  = 0.75
	postMaxTokens    = 1200
	replyTemperature = 0.7
	replyMaxTokens   = 300

	minPostLen  = 300
	minReplyLen = 20

	// Extra completions allowed within one attempt when the model returns
	// content under minPostLen.
	maxShortRetries = 2
)

// ErrNoAPIKey marks the missing-credentials soft failure.
var ErrNoAPIKey = errors.New("llm api key not configured")

// Variation names accepted by GenerateVariation.
const (
	VariationWeekend   = "weekend"
	VariationTrending  = "trending"
	VariationTechnical = "technical"
	VariationBusiness  = "business"
)

type variation struct {
	instruction string
	temperature float64
}

var variations = map[string]variation{
	VariationWeekend: {
		instruction: "Create a more casual, reflective weekend post that encourages deeper discussion. Mention taking time to ponder this news during your weekend.",
		temperature: 0.8,
	},
	VariationTrending: {
		instruction: "Connect this news to a current trending topic in technology or business. Show how this fits into the bigger picture of what's happening right now.",
		temperature: 0.7,
	},
	VariationTechnical: {
		instruction: "Create a more technical, detailed post for an audience of AI researchers and engineers. Include one specific technical insight or question.",
		temperature: 0.6,
	},
	VariationBusiness: {
		instruction: "Focus on the business implications and potential ROI of this advancement. Include a business-related question or observation.",
		temperature: 0.7,
	},
}

// Generator produces post and reply text for articles.
type Generator struct {
	apiKey         string
	baseURL        string
	httpClient     *http.Client
	styles         map[string]config.Style
	styleNames     []string
	primaryModel   string
	secondaryModel string
	primaryWeight  float64
	maxAttempts    int

	// rng is shared between the posting path and the comment watcher
	// goroutine; mu serializes access.
	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithBaseURL overrides the completion endpoint base URL (for testing).
func WithBaseURL(url string) Option {
	return func(g *Generator) {
		g.baseURL = url
	}
}

// WithModels sets the post models and the weight of the primary one.
func WithModels(primary, secondary string, primaryWeight float64) Option {
	return func(g *Generator) {
		g.primaryModel = primary
		g.secondaryModel = secondary
		g.primaryWeight = primaryWeight
	}
}

// WithMaxAttempts sets how many provider attempts precede the fallback.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		g.maxAttempts = n
	}
}

// WithRand injects the pseudo-random source used for style, model, and
// template selection, so tests can force deterministic choices.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) {
		g.rng = rng
	}
}

// NewGenerator creates a generator. An empty apiKey is valid: every
// generation call then resolves to the static fallbacks.
func NewGenerator(apiKey string, styles map[string]config.Style, opts ...Option) *Generator {
	g := &Generator{
		apiKey:         apiKey,
		baseURL:        defaultBaseURL,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		styles:         styles,
		primaryModel:   "llama3-70b-8192",
		secondaryModel: "mixtral-8x7b-32768",
		primaryWeight:  0.8,
		maxAttempts:    3,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}

	// Stable iteration order so an injected seed picks styles
	// deterministically.
	g.styleNames = make([]string, 0, len(g.styles))
	for name := range g.styles {
		g.styleNames = append(g.styleNames, name)
	}
	sort.Strings(g.styleNames)

	return g
}

// GeneratePost drafts a post for the article. extraContent, when non-empty,
// is scraped article text added to the prompt. The returned text always
// contains the article link; it is never empty.
func (g *Generator) GeneratePost(ctx context.Context, article news.Article, extraContent string) string {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		content, err := g.generateOnce(ctx, article, extraContent)
		if err != nil {
			slog.Warn("post generation attempt failed", "attempt", attempt+1, "error", err)
			if errors.Is(err, ErrNoAPIKey) {
				break
			}
			continue
		}
		return ensureLink(content, article.Link)
	}
	return g.FallbackPost(article)
}

// GenerateVariation drafts a post in one of the named variation styles,
// defaulting to the weekend variation for unknown names.
func (g *Generator) GenerateVariation(ctx context.Context, article news.Article, variant string) string {
	v, ok := variations[variant]
	if !ok {
		v = variations[VariationWeekend]
	}

	prompt := buildVariationPrompt(article, v.instruction)
	content, err := g.complete(ctx, g.primaryModel, prompt, v.temperature, postMaxTokens)
	if err != nil {
		slog.Warn("variation generation failed", "variant", variant, "error", err)
		return g.FallbackPost(article)
	}
	return ensureLink(content, article.Link)
}

// GenerateReply drafts a short reply to a comment on a post about the given
// article. Never empty: provider failure yields a static reply.
func (g *Generator) GenerateReply(ctx context.Context, commentText, articleTitle string) string {
	prompt := buildReplyPrompt(commentText, articleTitle)

	for attempt := 0; attempt <= 1; attempt++ {
		content, err := g.complete(ctx, g.primaryModel, prompt, replyTemperature, replyMaxTokens)
		if err != nil {
			slog.Warn("reply generation failed", "error", err)
			break
		}
		if len(content) < minReplyLen {
			continue
		}
		return content
	}
	return g.fallbackReply()
}

func (g *Generator) generateOnce(ctx context.Context, article news.Article, extraContent string) (string, error) {
	style := g.pickStyle()
	model := g.pickModel()
	prompt := buildPostPrompt(article, style, extraContent)

	for short := 0; short <= maxShortRetries; short++ {
		content, err := g.complete(ctx, model, prompt, postTemperature, postMaxTokens)
		if err != nil {
			return "", err
		}
		if len(content) >= minPostLen {
			return content, nil
		}
		slog.Warn("generated content too short, retrying", "length", len(content))
	}
	return "", fmt.Errorf("content below %d chars after %d retries", minPostLen, maxShortRetries)
}

func (g *Generator) pickStyle() config.Style {
	g.mu.Lock()
	defer g.mu.Unlock()
	name := g.styleNames[g.rng.Intn(len(g.styleNames))]
	return g.styles[name]
}

func (g *Generator) pickModel() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rng.Float64() < g.primaryWeight {
		return g.primaryModel
	}
	return g.secondaryModel
}

// chat completion wire types

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *Generator) complete(ctx context.Context, model, prompt string, temperature float64, maxTokens int) (string, error) {
	if g.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/openai/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion API status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// ensureLink guarantees the article link appears verbatim in the post.
func ensureLink(content, link string) string {
	if link != "" && !strings.Contains(content, link) {
		content += "\n\nRead more: " + link
	}
	return content
}
