package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/vertexai/genai"
)

// Config for the Gemini vision client.
type Config struct {
	ProjectID string
	Region    string        // default us-central1
	Model     string        // e.g. "gemini-1.5-flash"
	Timeout   time.Duration // per-extraction deadline
}

// Client wraps a single pre-configured generative model.
type Client struct {
	cfg    Config
	model  *genai.GenerativeModel
	base   *genai.Client
	logger *slog.Logger
}

// NewClient creates the Vertex AI client and configures the extraction model.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("gemini: projectID cannot be empty")
	}
	if cfg.Region == "" {
		cfg.Region = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := base.GenerativeModel(cfg.Model)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}

	return &Client{cfg: cfg, model: model, base: base, logger: logger}, nil
}

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}
