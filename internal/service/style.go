package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/pkg/ai"
)

const (
	sceneVisionPrompt = `Analise para recriação exata: descreva cenário, personagens, composição, estilo e cores.
Responda APENAS com JSON:
{
  "scene_description": "descrição do cenário",
  "main_subjects": ["personagem ou objeto"],
  "composition": "enquadramento e posição dos elementos",
  "style": "estilo fotográfico ou ilustrativo",
  "colors": ["#hex1", "#hex2"],
  "mood": "clima da imagem"
}`

	identityVisionPrompt = `Analise a identidade visual: paleta de cores, estilo e elementos.
Responda APENAS com JSON:
{
  "main_colors": ["#hex1", "#hex2"],
  "secondary_colors": ["#hex3", "#hex4"],
  "imagery_keywords": ["keyword1", "keyword2"],
  "style_vibe": "vibe visual (ex: minimalista, rústico)",
  "layout_description": "como os elementos se organizam"
}`

	instagramStylePrompt = `Você é um especialista em identidade visual.
Analise as imagens e retorne JSON:
{
  "main_colors": ["#hex1", "#hex2"],
  "secondary_colors": ["#hex3", "#hex4"],
  "imagery_keywords": ["keyword1", "keyword2"],
  "style_vibe": "vibe visual (ex: minimalista, rústico)"
}`
)

// decodeModelJSON strips markdown fences from a model answer and decodes it.
func decodeModelJSON(raw string, out interface{}) error {
	cleaned := ai.StripCodeFences(raw)
	if cleaned == "" {
		return fmt.Errorf("empty model output")
	}
	return json.Unmarshal([]byte(cleaned), out)
}

// DecodeCaption parses the text model answer. Anything but an object with a
// non-empty caption is ErrMalformedCaption.
func DecodeCaption(raw string, validate *validator.Validate) (*model.Caption, error) {
	var caption model.Caption
	if err := decodeModelJSON(raw, &caption); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCaption, err)
	}
	caption.Caption = strings.TrimSpace(caption.Caption)
	if err := validate.Struct(&caption); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCaption, err)
	}
	return &caption, nil
}

// FinalCaption appends the hashtags after a blank line.
func FinalCaption(c *model.Caption) string {
	tags := make([]string, 0, len(c.Hashtags))
	for _, tag := range c.Hashtags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return c.Caption
	}
	return c.Caption + "\n\n" + strings.Join(tags, " ")
}

// ParseVisualStyle decodes a client supplied style; nil when unusable.
func ParseVisualStyle(raw string) *model.VisualStyle {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var style model.VisualStyle
	if err := decodeModelJSON(raw, &style); err != nil || style.Empty() {
		return nil
	}
	return &style
}

// BuildCorpus formats the captions of real posts as tone examples. It returns
// the corpus and how many posts went into it.
func BuildCorpus(posts []model.IGPost, maxPosts, maxPostChars, maxTotalChars int) (string, int) {
	var examples []string
	for _, p := range posts {
		if len(examples) >= maxPosts {
			break
		}
		caption := strings.TrimSpace(p.Caption)
		if caption == "" {
			continue
		}
		caption = truncateRunes(caption, maxPostChars)
		examples = append(examples, fmt.Sprintf("--- POST REAL %d (%s) ---\n%s\n", len(examples)+1, p.Timestamp, caption))
	}
	return truncateRunes(strings.Join(examples, "\n"), maxTotalChars), len(examples)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// styleImageURLs picks up to limit image posts for style inference.
func styleImageURLs(posts []model.IGPost, limit int) []string {
	var urls []string
	for _, p := range posts {
		if len(urls) >= limit {
			break
		}
		if p.IsImage() {
			urls = append(urls, p.MediaURL)
		}
	}
	return urls
}

// analyzeScene describes uploaded references for recreation.
func analyzeScene(ctx context.Context, client ai.Client, imageURLs []string, temperature float32) (*model.SceneAnalysis, error) {
	raw, err := client.DescribeImages(ctx, sceneVisionPrompt, imageURLs, temperature)
	if err != nil {
		return nil, err
	}
	var scene model.SceneAnalysis
	if err := decodeModelJSON(raw, &scene); err != nil {
		return nil, fmt.Errorf("decode scene analysis: %w", err)
	}
	return &scene, nil
}

// analyzeIdentity extracts a visual identity from uploaded references.
func analyzeIdentity(ctx context.Context, client ai.Client, imageURLs []string, temperature float32) (*model.VisualStyle, error) {
	return describeStyle(ctx, client, identityVisionPrompt, imageURLs, temperature)
}

// inferInstagramStyle reads the visual identity of synced posts. It runs at
// temperature zero so repeated generations see the same style.
func inferInstagramStyle(ctx context.Context, client ai.Client, imageURLs []string) (*model.VisualStyle, error) {
	if len(imageURLs) == 0 {
		return nil, nil
	}
	return describeStyle(ctx, client, instagramStylePrompt, imageURLs, 0)
}

func describeStyle(ctx context.Context, client ai.Client, prompt string, imageURLs []string, temperature float32) (*model.VisualStyle, error) {
	raw, err := client.DescribeImages(ctx, prompt, imageURLs, temperature)
	if err != nil {
		return nil, err
	}
	var style model.VisualStyle
	if err := decodeModelJSON(raw, &style); err != nil {
		return nil, fmt.Errorf("decode visual style: %w", err)
	}
	if style.Empty() {
		return nil, nil
	}
	return &style, nil
}
