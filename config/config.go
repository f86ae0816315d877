package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Style describes one of the fixed post voices the generator can adopt.
type Style struct {
	Tone     string `yaml:"tone"`
	Approach string `yaml:"approach"`
	Unique   string `yaml:"unique"`
}

// NewsAPIConfig holds the NewsAPI query settings. The API key comes from the
// NEWSAPI_KEY environment variable, never from the file.
type NewsAPIConfig struct {
	URL      string `yaml:"url"`
	Query    string `yaml:"query"`
	Language string `yaml:"language"`
	SortBy   string `yaml:"sort_by"`
}

// Config holds all application configuration. It is built once at startup
// and passed into component constructors; nothing mutates it afterwards.
type Config struct {
	// News sources
	RSSFeeds []string      `yaml:"rss_feeds"`
	NewsAPI  NewsAPIConfig `yaml:"newsapi"`

	// Posting cadence
	PostsPerDay          int `yaml:"posts_per_day"`
	MinHoursBetweenPosts int `yaml:"min_hours_between_posts"`

	// Content generation
	Styles                map[string]Style `yaml:"styles"`
	QualityThreshold      int              `yaml:"quality_threshold"`
	MaxGenerationAttempts int              `yaml:"max_generation_attempts"`
	PrimaryModel          string           `yaml:"primary_model"`
	SecondaryModel        string           `yaml:"secondary_model"`
	PrimaryModelWeight    float64          `yaml:"primary_model_weight"`

	// Relevance ranking
	KeyTerms []string `yaml:"key_terms"`
	Entities []string `yaml:"entities"`

	// Comment watcher
	CommentCheckMins     int `yaml:"comment_check_mins"`
	CommentWatchHours    int `yaml:"comment_watch_hours"`
	CommentErrorBackoff  int `yaml:"comment_error_backoff"`
	CommentReplyDelaySec int `yaml:"comment_reply_delay_sec"`

	// Scheduler
	StatusIntervalMins int    `yaml:"status_interval_mins"`
	PostTime           string `yaml:"post_time"` // optional HH:MM; enables fixed-time mode

	// Persistence
	HistoryPath  string `yaml:"history_path"`
	CommentsPath string `yaml:"comments_path"`
	ArchivePath  string `yaml:"archive_path"`

	// HTTP
	FetchTimeoutSecs int `yaml:"fetch_timeout_secs"`

	LogLevel string `yaml:"log_level"`

	// Secrets, environment only.
	LinkedInClientID     string `yaml:"-"`
	LinkedInClientSecret string `yaml:"-"`
	LLMAPIKey            string `yaml:"-"`
	NewsAPIKey           string `yaml:"-"`
	DiscordWebhookURL    string `yaml:"-"`
}

var postTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Load reads configuration from a YAML file, applies defaults and
// environment overrides, then validates. A missing file is not an error:
// defaults plus environment carry a full working configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironment(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Path returns the config file path from the environment or the default.
func Path() string {
	if p := os.Getenv("NEWSBOT_CONFIG"); p != "" {
		return p
	}
	return "./config.yaml"
}

func applyDefaults(cfg *Config) {
	if len(cfg.RSSFeeds) == 0 {
		cfg.RSSFeeds = []string{
			"https://news.google.com/rss/search?q=artificial+intelligence+llm+when:7d",
			"https://venturebeat.com/category/ai/feed/",
			"https://www.artificialintelligence-news.com/feed/",
			"http://export.arxiv.org/rss/cs.AI",
		}
	}
	if cfg.NewsAPI.URL == "" {
		cfg.NewsAPI.URL = "https://newsapi.org/v2/everything"
	}
	if cfg.NewsAPI.Query == "" {
		cfg.NewsAPI.Query = "(artificial intelligence OR llm OR large language model) AND (breakthrough OR advancement OR new)"
	}
	if cfg.NewsAPI.Language == "" {
		cfg.NewsAPI.Language = "en"
	}
	if cfg.NewsAPI.SortBy == "" {
		cfg.NewsAPI.SortBy = "publishedAt"
	}
	if cfg.PostsPerDay == 0 {
		cfg.PostsPerDay = 1
	}
	if cfg.MinHoursBetweenPosts == 0 {
		cfg.MinHoursBetweenPosts = 20
	}
	if len(cfg.Styles) == 0 {
		cfg.Styles = DefaultStyles()
	}
	if cfg.QualityThreshold == 0 {
		cfg.QualityThreshold = 6
	}
	if cfg.MaxGenerationAttempts == 0 {
		cfg.MaxGenerationAttempts = 3
	}
	if cfg.PrimaryModel == "" {
		cfg.PrimaryModel = "llama3-70b-8192"
	}
	if cfg.SecondaryModel == "" {
		cfg.SecondaryModel = "mixtral-8x7b-32768"
	}
	if cfg.PrimaryModelWeight == 0 {
		cfg.PrimaryModelWeight = 0.8
	}
	if len(cfg.KeyTerms) == 0 {
		cfg.KeyTerms = []string{
			"breakthrough", "new model", "release", "advancement",
			"state-of-the-art", "sota", "performance", "improvement",
			"beats", "outperforms",
		}
	}
	if len(cfg.Entities) == 0 {
		cfg.Entities = []string{
			"openai", "anthropic", "claude", "gpt", "llama", "mistral",
			"google", "gemini", "ai21", "groq", "stability",
		}
	}
	if cfg.CommentCheckMins == 0 {
		cfg.CommentCheckMins = 30
	}
	if cfg.CommentWatchHours == 0 {
		cfg.CommentWatchHours = 24
	}
	if cfg.CommentErrorBackoff == 0 {
		cfg.CommentErrorBackoff = 3
	}
	if cfg.CommentReplyDelaySec == 0 {
		cfg.CommentReplyDelaySec = 2
	}
	if cfg.StatusIntervalMins == 0 {
		cfg.StatusIntervalMins = 30
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = "./posted_articles_history.json"
	}
	if cfg.CommentsPath == "" {
		cfg.CommentsPath = "./processed_comments.json"
	}
	if cfg.ArchivePath == "" {
		cfg.ArchivePath = "./newsbot.db"
	}
	if cfg.FetchTimeoutSecs == 0 {
		cfg.FetchTimeoutSecs = 30
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvironment(cfg *Config) {
	cfg.LinkedInClientID = os.Getenv("LINKEDIN_CLIENT_ID")
	cfg.LinkedInClientSecret = os.Getenv("LINKEDIN_CLIENT_SECRET")
	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	cfg.NewsAPIKey = os.Getenv("NEWSAPI_KEY")
	cfg.DiscordWebhookURL = os.Getenv("DISCORD_WEBHOOK_URL")

	if p := os.Getenv("NEWSBOT_HISTORY"); p != "" {
		cfg.HistoryPath = p
	}
	if p := os.Getenv("NEWSBOT_ARCHIVE"); p != "" {
		cfg.ArchivePath = p
	}
}

func validate(cfg *Config) error {
	if cfg.PostTime != "" && !postTimeRegex.MatchString(cfg.PostTime) {
		return fmt.Errorf("post_time must be in HH:MM format (00:00-23:59), got %q", cfg.PostTime)
	}
	if cfg.PrimaryModelWeight < 0 || cfg.PrimaryModelWeight > 1 {
		return fmt.Errorf("primary_model_weight must be in [0,1], got %v", cfg.PrimaryModelWeight)
	}
	if cfg.MinHoursBetweenPosts < 0 {
		return fmt.Errorf("min_hours_between_posts must be non-negative")
	}
	return nil
}

// MinPostInterval is the configured minimum gap between two publishes.
func (c *Config) MinPostInterval() time.Duration {
	return time.Duration(c.MinHoursBetweenPosts) * time.Hour
}

// FetchTimeout is the outbound HTTP timeout for news and scraping calls.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// StatusInterval is the cadence of wait-loop progress updates.
func (c *Config) StatusInterval() time.Duration {
	return time.Duration(c.StatusIntervalMins) * time.Minute
}

// CommentCheckInterval is the base comment-poll interval.
func (c *Config) CommentCheckInterval() time.Duration {
	return time.Duration(c.CommentCheckMins) * time.Minute
}

// CommentWatchDuration is how long the watcher monitors a post.
func (c *Config) CommentWatchDuration() time.Duration {
	return time.Duration(c.CommentWatchHours) * time.Hour
}

// CommentReplyDelay is the pause enforced between consecutive replies.
func (c *Config) CommentReplyDelay() time.Duration {
	return time.Duration(c.CommentReplyDelaySec) * time.Second
}

// DefaultStyles returns the built-in post voice set.
func DefaultStyles() map[string]Style {
	return map[string]Style{
		"thought_leader": {
			Tone:     "insightful and forward-thinking",
			Approach: "analyze implications and future impacts",
			Unique:   "include one contrarian or nuanced perspective",
		},
		"industry_expert": {
			Tone:     "authoritative but accessible",
			Approach: "connect to broader industry trends",
			Unique:   "mention a specific use case or application",
		},
		"curious_professional": {
			Tone:     "inquisitive and conversational",
			Approach: "highlight questions this raises for the field",
			Unique:   "include a personal reflection on why this matters",
		},
		"data_driven": {
			Tone:     "analytical and precise",
			Approach: "focus on the measurable impacts or improvements",
			Unique:   "include a comparison to previous approaches/models",
		},
	}
}
