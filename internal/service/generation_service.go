package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/model/dto"
	"github.com/nexoraai/nexora_server/internal/pkg/ai"
	"github.com/nexoraai/nexora_server/internal/pkg/identity"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/repository"
)

const (
	unknownBrandName = "Marca Desconhecida"
	generatedMIME    = "image/png"

	StyleSourceImages    = "images"
	StyleSourceClient    = "client"
	StyleSourceInstagram = "instagram"
)

var (
	ErrBrandObjectiveRequired = errors.New("Marca e Objetivo são obrigatórios.")
	ErrBriefingRequired       = errors.New("Briefing é obrigatório.")
	ErrTooManyImages          = errors.New("Envie no máximo 3 imagens de referência.")
	ErrImageTooLarge          = errors.New("Imagem de referência muito grande (máximo 6 MB).")
	ErrInvalidImageType       = errors.New("Apenas imagens são aceitas como referência.")
	ErrTextGeneration         = errors.New("Erro ao gerar a legenda.")
	ErrMalformedCaption       = errors.New("Resposta inválida do modelo de texto.")
	ErrHandleRequired         = errors.New("Handle obrigatório.")
	ErrImageGeneration        = errors.New("Erro ao gerar flyer.")
)

// InstagramSource exposes the synced Instagram data of an owner.
type InstagramSource interface {
	Selected(owner string) *model.MetaSelection
	Posts(igID string) []model.IGPost
}

// Archiver stores generated images and returns their public URL.
type Archiver interface {
	UploadGeneration(userID, recordID string, data []byte, contentType string) (string, error)
}

type ReferenceImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

// GenerateInput is the multipart form of /api/generate-post.
type GenerateInput struct {
	Brand       string
	Objective   string
	Briefing    string
	ContentType string
	Platform    string
	Recreate    bool
	StyleJSON   string
	Images      []ReferenceImage
}

type GenerateResult struct {
	Caption  string
	ImageURL *string
	Meta     dto.GenerateMeta
	Record   *model.GenerationRecord
}

type GenerationService struct {
	ai        ai.Client
	instagram InstagramSource
	history   *repository.HistoryRepository
	archiver  Archiver
	validate  *validator.Validate
	cfg       *config.Config
}

func NewGenerationService(
	aiClient ai.Client,
	instagram InstagramSource,
	history *repository.HistoryRepository,
	archiver Archiver,
	cfg *config.Config,
) *GenerationService {
	return &GenerationService{
		ai:        aiClient,
		instagram: instagram,
		history:   history,
		archiver:  archiver,
		validate:  validator.New(),
		cfg:       cfg,
	}
}

// ParseBrand decodes the brand form field. Unparseable JSON falls back to a
// placeholder name so generation can proceed.
func ParseBrand(raw string) model.Brand {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.Brand{}
	}
	var brand model.Brand
	if err := json.Unmarshal([]byte(raw), &brand); err != nil {
		return model.Brand{Name: unknownBrandName}
	}
	brand.Name = strings.TrimSpace(brand.Name)
	return brand
}

// Validate checks the request fields and reference images without calling any
// upstream service, returning the decoded brand.
func (s *GenerationService) Validate(in *GenerateInput) (model.Brand, error) {
	brand := ParseBrand(in.Brand)
	return brand, s.validateInput(brand, in)
}

func (s *GenerationService) validateInput(brand model.Brand, in *GenerateInput) error {
	if brand.Name == "" || strings.TrimSpace(in.Objective) == "" {
		return ErrBrandObjectiveRequired
	}
	if strings.TrimSpace(in.Briefing) == "" {
		return ErrBriefingRequired
	}

	maxImages := s.cfg.Generation.MaxReferenceImages
	if maxImages <= 0 {
		maxImages = 3
	}
	if len(in.Images) > maxImages {
		return ErrTooManyImages
	}
	for _, img := range in.Images {
		if s.cfg.Generation.MaxReferenceBytes > 0 && int64(len(img.Data)) > s.cfg.Generation.MaxReferenceBytes {
			return ErrImageTooLarge
		}
		mediaType, _, err := mime.ParseMediaType(img.ContentType)
		if err != nil || !strings.HasPrefix(mediaType, "image/") {
			return ErrInvalidImageType
		}
	}
	return nil
}

// Generate runs the post pipeline for a caller. user is nil for anonymous
// callers; owner keys the Instagram selection.
func (s *GenerationService) Generate(ctx context.Context, user *identity.Identity, owner string, in *GenerateInput) (*GenerateResult, error) {
	brand, err := s.Validate(in)
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent("generation").WithField("owner", owner)
	contentType := in.ContentType
	if contentType == "" {
		contentType = in.Platform
	}
	kind := ResolveContentKind(in.ContentType, in.Platform)
	size := ResolveSize(contentType)
	meta := dto.GenerateMeta{Size: size, Kind: kind}

	// reference images
	var (
		scene *model.SceneAnalysis
		style *model.VisualStyle
	)
	if len(in.Images) > 0 {
		urls := make([]string, 0, len(in.Images))
		for _, img := range in.Images {
			mediaType, _, _ := mime.ParseMediaType(img.ContentType)
			urls = append(urls, ai.DataURI(mediaType, base64.StdEncoding.EncodeToString(img.Data)))
		}

		var err error
		if in.Recreate {
			scene, err = analyzeScene(ctx, s.ai, urls, s.cfg.OpenAI.Temperature)
		} else {
			style, err = analyzeIdentity(ctx, s.ai, urls, s.cfg.OpenAI.Temperature)
		}
		if err != nil {
			log.WithError(err).Warn("reference image analysis failed")
		}
		if scene != nil || style != nil {
			meta.StyleSource = StyleSourceImages
		}
	}

	if style == nil {
		if style = ParseVisualStyle(in.StyleJSON); style != nil {
			meta.StyleSource = StyleSourceClient
		}
	}

	// Instagram corpus and style, only when nothing was uploaded
	var (
		corpus   string
		igImages []string
		igStyle  *model.VisualStyle
	)
	if len(in.Images) == 0 && s.instagram != nil {
		if selected := s.instagram.Selected(owner); selected != nil {
			if posts := s.instagram.Posts(selected.IGID); len(posts) > 0 {
				gen := s.cfg.Generation
				corpus, meta.CorpusPosts = BuildCorpus(posts, gen.CorpusPosts, gen.CorpusPostChars, gen.CorpusTotalChars)
				if style == nil {
					igImages = styleImageURLs(posts, gen.StyleSampleImages)
				}
			}
		}
	}

	var caption *model.Caption
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := s.ai.CompleteJSON(gctx, BuildTextPrompt(kind, brand, in.Objective, in.Briefing, corpus))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTextGeneration, err)
		}
		caption, err = DecodeCaption(raw, s.validate)
		return err
	})
	if len(igImages) > 0 {
		g.Go(func() error {
			st, err := inferInstagramStyle(gctx, s.ai, igImages)
			if err != nil {
				log.WithError(err).Warn("instagram style inference failed")
				return nil
			}
			igStyle = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if style == nil && igStyle != nil {
		style = igStyle
		meta.StyleSource = StyleSourceInstagram
	}

	var imagePrompt string
	switch {
	case in.Recreate && scene != nil:
		meta.Mode = model.ModeRecreate
		imagePrompt = BuildRecreatePrompt(scene, in.Briefing, in.Objective)
	case contentType == model.ModePersonal:
		meta.Mode = model.ModePersonal
		imagePrompt = BuildPersonalPrompt(orDefault(brand.Niche, brand.Name), in.Objective, in.Briefing, brand.Audience, style)
	default:
		meta.Mode = model.ModeFlyer
		imagePrompt = BuildFlyerPrompt(kind, brand, in.Objective, in.Briefing, style)
	}

	result := &GenerateResult{Caption: FinalCaption(caption), Meta: meta}

	b64, err := s.ai.GenerateImage(ctx, imagePrompt, size)
	if err != nil {
		log.WithError(err).WithField("size", size).Error("image generation failed")
	} else {
		uri := ai.DataURI(generatedMIME, b64)
		result.ImageURL = &uri
	}

	if user != nil {
		result.Record = s.record(ctx, user.ID, brand, in, result, b64)
	}
	return result, nil
}

// record archives the image when storage is configured and appends the
// generation to the user's history. Failures only cost the history entry.
func (s *GenerationService) record(ctx context.Context, userID string, brand model.Brand, in *GenerateInput, result *GenerateResult, b64 string) *model.GenerationRecord {
	log := logger.WithComponent("generation").WithField("user_id", userID)

	record := model.GenerationRecord{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		BrandID:   brand.ID,
		BrandName: brand.Name,
		Platform:  orDefault(in.Platform, in.ContentType),
		Mode:      result.Meta.Mode,
		Objective: in.Objective,
		Briefing:  in.Briefing,
		Caption:   result.Caption,
		ImageURL:  result.ImageURL,
	}
	if result.Meta.Mode == model.ModePersonal {
		record.PersonalType = orDefault(brand.Niche, brand.Name)
	}

	if s.archiver != nil && result.ImageURL != nil {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err == nil {
			url, err := s.archiver.UploadGeneration(userID, record.ID, data, generatedMIME)
			if err == nil {
				record.ImageURL = &url
				result.Meta.ArchiveURL = url
			} else {
				log.WithError(err).Warn("image archive failed")
			}
		}
	}

	if s.history == nil {
		return &record
	}
	if _, err := s.history.Append(ctx, userID, record); err != nil {
		log.WithError(err).Warn("history append failed")
	}
	return &record
}

// GenerateFlyer renders a square flyer for an Instagram handle.
func (s *GenerationService) GenerateFlyer(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimLeft(strings.TrimSpace(handle), "@")
	if handle == "" {
		return "", ErrHandleRequired
	}

	b64, err := s.ai.GenerateImage(ctx, BuildHandleFlyerPrompt(handle), ai.SizeSquare)
	if err != nil {
		logger.WithComponent("generation").WithError(err).WithField("handle", handle).Error("flyer generation failed")
		return "", ErrImageGeneration
	}
	return ai.DataURI(generatedMIME, b64), nil
}
