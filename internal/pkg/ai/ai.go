// Package ai wraps the OpenAI chat, vision and image endpoints used by the
// generation pipeline.
package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nexoraai/nexora_server/config"
)

const (
	SizeSquare     = "1024x1024"
	SizePortrait   = "1024x1792"
	SizeLandscape  = "1792x1024"
	maxImageFetch  = 20 << 20
	defaultTimeout = 120 * time.Second
)

var (
	ErrNoImageData   = errors.New("no image data returned")
	ErrImageTooLarge = errors.New("generated image exceeds download limit")
)

// Client is the subset of model calls the services depend on.
type Client interface {
	// CompleteJSON runs the text model and returns its raw message content.
	CompleteJSON(ctx context.Context, prompt string) (string, error)
	// DescribeImages runs the vision model over imageURLs (http or data URIs).
	DescribeImages(ctx context.Context, prompt string, imageURLs []string, temperature float32) (string, error)
	// GenerateImage returns base64 PNG data.
	GenerateImage(ctx context.Context, prompt, size string) (string, error)
}

type OpenAIClient struct {
	client      *openai.Client
	httpClient  *http.Client
	textModel   string
	visionModel string
	imageModel  string
	temperature float32
	maxFetch    int64
}

func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = httpClient

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(oc),
		httpClient:  httpClient,
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
		imageModel:  cfg.ImageModel,
		temperature: cfg.Temperature,
		maxFetch:    maxImageFetch,
	}
}

func (c *OpenAIClient) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.textModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// DescribeImages treats a temperature of zero or less as deterministic;
// go-openai omits a literal zero from the request.
func (c *OpenAIClient) DescribeImages(ctx context.Context, prompt string, imageURLs []string, temperature float32) (string, error) {
	if temperature <= 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	parts := make([]openai.ChatMessagePart, 0, len(imageURLs)+1)
	parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: prompt})
	for _, u := range imageURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: u, Detail: openai.ImageURLDetailAuto},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai vision: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai vision: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage requests one image. Models that answer with a URL instead of
// inline data get the URL fetched and re-encoded.
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt, size string) (string, error) {
	if size == "" {
		size = SizeSquare
	}

	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt: prompt,
		Model:  c.imageModel,
		Size:   size,
		N:      1,
	})
	if err != nil {
		return "", fmt.Errorf("openai image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", ErrNoImageData
	}

	first := resp.Data[0]
	if first.B64JSON != "" {
		return first.B64JSON, nil
	}
	if first.URL != "" {
		return c.fetchAsBase64(ctx, first.URL)
	}
	return "", ErrNoImageData
}

func (c *OpenAIClient) fetchAsBase64(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch generated image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch generated image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxFetch+1))
	if err != nil {
		return "", fmt.Errorf("read generated image: %w", err)
	}
	if int64(len(data)) > c.maxFetch {
		return "", ErrImageTooLarge
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// StripCodeFences removes a leading ```json (or ```) and trailing ``` fence.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimPrefix(s, "JSON")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DataURI wraps base64 image data for the panel.
func DataURI(mime, b64 string) string {
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + b64
}
