package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/pkg/ai"
)

const (
	KindInstagram     = "instagram"
	KindFacebook      = "facebook"
	KindSite          = "site"
	KindGenericSocial = "generic_social"
)

var (
	verticalFormats   = regexp.MustCompile(`story|stories|reels|tiktok|vertical`)
	horizontalFormats = regexp.MustCompile(`site|blog|horizontal`)
)

// ResolveContentKind classifies the requested content type, falling back to
// the platform when no type was sent.
func ResolveContentKind(contentType, platform string) string {
	raw := contentType
	if raw == "" {
		raw = platform
	}
	raw = strings.ToLower(raw)

	switch {
	case strings.Contains(raw, "insta"):
		return KindInstagram
	case strings.Contains(raw, "face"):
		return KindFacebook
	case strings.Contains(raw, "site"), strings.Contains(raw, "blog"):
		return KindSite
	default:
		return KindGenericSocial
	}
}

// ResolveSize picks the canvas for a content type. Horizontal formats win
// when both patterns match.
func ResolveSize(contentType string) string {
	lower := strings.ToLower(contentType)
	size := ai.SizeSquare
	if verticalFormats.MatchString(lower) {
		size = ai.SizePortrait
	}
	if horizontalFormats.MatchString(lower) {
		size = ai.SizeLandscape
	}
	return size
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func listOrDefault(l model.StringList, fallback string) string {
	if len(l) == 0 {
		return fallback
	}
	return l.Join()
}

// BuildTextPrompt asks the text model for a strict {caption, hashtags} object.
// A non-empty corpus of the client's real posts is appended as tone reference.
func BuildTextPrompt(kind string, brand model.Brand, objective, briefing, corpus string) string {
	var ctx strings.Builder
	fmt.Fprintf(&ctx, "Marca: %s\n", brand.Name)
	fmt.Fprintf(&ctx, "Nicho: %s\n", orDefault(brand.Niche, "?"))
	fmt.Fprintf(&ctx, "Público: %s\n", orDefault(brand.Audience, "?"))
	if brand.Tone != "" {
		fmt.Fprintf(&ctx, "Tom de voz: %s\n", brand.Tone)
	}
	fmt.Fprintf(&ctx, "Objetivo: %s\n", objective)
	fmt.Fprintf(&ctx, "Briefing: %s\n", briefing)
	if corpus != "" {
		fmt.Fprintf(&ctx, "\nESTILO DO CLIENTE (Imite o tom):\n%s\n", corpus)
	}

	return fmt.Sprintf(`Você é um estrategista de conteúdo (%s).
Crie APENAS o JSON:
{
  "caption": "texto do post...",
  "hashtags": ["#tag1", "#tag2"]
}
CONTEXTO:
%s`, kind, strings.TrimSpace(ctx.String()))
}

// BuildRecreatePrompt asks for a new image faithful to an analysed reference.
func BuildRecreatePrompt(scene *model.SceneAnalysis, briefing, objective string) string {
	return strings.TrimSpace(fmt.Sprintf(`
Recrie uma IMAGEM baseada na análise visual fornecida.

DETALHES OBRIGATÓRIOS:
- Cena: %s
- Personagens/Objetos: %s
- Composição: %s
- Estilo: %s
- Cores: %s
- Clima: %s

NOVO CONTEXTO (Atualize se necessário):
Briefing: %s
Objetivo: %s

IMPORTANTE: Melhore a qualidade, mantenha a essência, use português do Brasil para textos.
`,
		orDefault(scene.SceneDescription, "mesma da original"),
		listOrDefault(scene.MainSubjects, "mesmos da original"),
		orDefault(scene.Composition, "mesma da original"),
		orDefault(scene.Style, "realista"),
		listOrDefault(scene.Colors, "originais"),
		orDefault(scene.Mood, "mesmo vibe"),
		briefing, objective))
}

// BuildPersonalPrompt is used for personal (non-business) content such as
// birthdays and celebrations.
func BuildPersonalPrompt(personalType, objective, briefing, audience string, style *model.VisualStyle) string {
	if style == nil {
		style = &model.VisualStyle{}
	}
	return strings.TrimSpace(fmt.Sprintf(`
Crie uma IMAGEM para uso PESSOAL.
Tipo: "%s" | Objetivo: "%s" | Público: %s

BRIEFING: %s

ESTILO VISUAL:
- Cores: %s
- Vibe: %s
- Elementos: %s

REGRAS:
- Textos em Português do Brasil (se houver).
- Texto deve estar totalmente visível.
- Tom emocional e memorável.
`,
		personalType, objective, orDefault(audience, "geral"),
		briefing,
		listOrDefault(style.MainColors, "cores harmoniosas e alegres"),
		orDefault(style.StyleVibe, "moderno e positivo"),
		listOrDefault(style.ImageryKeywords, "elementos comemorativos")))
}

// BuildFlyerPrompt is the default business flyer. The brand name is the
// campaign title and the briefing describes the scene.
func BuildFlyerPrompt(kind string, brand model.Brand, objective, briefing string, style *model.VisualStyle) string {
	if style == nil {
		style = &model.VisualStyle{}
	}
	target := "Redes Sociais"
	switch kind {
	case KindInstagram:
		target = "Instagram"
	case KindFacebook:
		target = "Facebook"
	case KindSite:
		target = "Site ou Blog"
	}

	var extra strings.Builder
	if len(style.SecondaryColors) > 0 {
		fmt.Fprintf(&extra, "- Cores de apoio: %s\n", style.SecondaryColors.Join())
	}
	if len(style.ImageryKeywords) > 0 {
		fmt.Fprintf(&extra, "- Elementos: %s\n", style.ImageryKeywords.Join())
	}
	if style.StyleVibe != "" {
		fmt.Fprintf(&extra, "- Vibe: %s\n", style.StyleVibe)
	}

	return strings.TrimSpace(fmt.Sprintf(`
Crie um FLYER PUBLICITÁRIO para %s.

DADOS:
- Marca: %s (%s)
- Público: %s
- Objetivo: %s
- Briefing: %s

ESTILO:
- Cores: %s
- Layout: %s
%s
REGRAS:
- Aparência profissional de marketing.
- Texto em Português do Brasil.
- Hierarquia visual clara.
`,
		target,
		brand.Name, orDefault(brand.Niche, "?"),
		orDefault(brand.Audience, "geral"),
		objective,
		briefing,
		listOrDefault(style.MainColors, "cores profissionais"),
		orDefault(style.LayoutDescription, "organizado e limpo"),
		extra.String()))
}

// BuildHandleFlyerPrompt is the square flyer for an Instagram handle.
func BuildHandleFlyerPrompt(handle string) string {
	return fmt.Sprintf("Crie um flyer moderno e quadrado para o perfil do Instagram @%s. Estilo profissional e visualmente atraente.", handle)
}
