package gemini

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

const (
	defaultModel = "gemini-2.5-flash"
)

// Client wraps the Google GenAI client to provide simple prompt-based
// interactions.
type Client struct {
	client    *genai.Client
	modelName string

	cacheMu      sync.RWMutex
	profileCache *cachedProfile
}

type cachedProfile struct {
	name string
	hash string
}

// NewClient creates a new Client configured for the Gemini API backend.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Client{client: client, modelName: model}, nil
}

// GenerateContent sends the prompt to Gemini and returns the first textual response.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return c.generateContent(ctx, prompt, nil)
}

// GenerateContentWithCache sends the prompt to Gemini and reuses the provided cached content.
func (c *Client) GenerateContentWithCache(ctx context.Context, prompt, cacheName string) (string, error) {
	cacheName = strings.TrimSpace(cacheName)
	if cacheName == "" {
		return c.generateContent(ctx, prompt, nil)
	}

	cfg := &genai.GenerateContentConfig{CachedContent: cacheName}
	return c.generateContent(ctx, prompt, cfg)
}

// EnsureProfileCache stores the candidate profile payload in a Gemini cached
// content resource so repeated per-posting analyses do not resend it.
func (c *Client) EnsureProfileCache(ctx context.Context, payload string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("gemini client is not initialized")
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", errors.New("profile payload must not be empty")
	}

	hashBytes := sha256.Sum256([]byte(payload))
	hash := fmt.Sprintf("%x", hashBytes[:])

	c.cacheMu.RLock()
	if existing := c.profileCache; existing != nil && existing.hash == hash && existing.name != "" {
		c.cacheMu.RUnlock()
		return existing.name, nil
	}
	c.cacheMu.RUnlock()

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	if existing := c.profileCache; existing != nil && existing.hash == hash && existing.name != "" {
		return existing.name, nil
	}

	cfg := &genai.CreateCachedContentConfig{
		DisplayName: "candidate-profile",
		TTL:         24 * time.Hour,
		Contents: []*genai.Content{{
			Role: genai.RoleUser,
			Parts: []*genai.Part{{
				Text: payload,
			}},
		}},
	}

	cached, err := c.client.Caches.Create(ctx, c.modelName, cfg)
	if err != nil {
		return "", fmt.Errorf("create profile cache: %w", err)
	}

	name := strings.TrimSpace(cached.Name)
	if name == "" {
		return "", errors.New("gemini api returned empty cache name")
	}

	c.profileCache = &cachedProfile{name: name, hash: hash}

	return name, nil
}

func (c *Client) generateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("gemini client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}
