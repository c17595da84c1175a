package handler

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/api/middleware"
	"github.com/nexoraai/nexora_server/internal/model/dto"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/pkg/response"
	"github.com/nexoraai/nexora_server/internal/service"
)

const referenceImagesField = "referenceImages"

type GenerationHandler struct {
	generationService *service.GenerationService
	cfg               config.GenerationConfig
}

func NewGenerationHandler(generationService *service.GenerationService, cfg config.GenerationConfig) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		cfg:               cfg,
	}
}

const generateInputKey = "generate_input"

// Prepare reads and validates the generation form before any plan lookup or
// upstream call. The validated input is stored for GeneratePost.
func (h *GenerationHandler) Prepare(c *gin.Context) {
	in, ok := h.prepare(c)
	if !ok {
		c.Abort()
		return
	}
	c.Set(generateInputKey, in)
	c.Next()
}

func (h *GenerationHandler) prepare(c *gin.Context) (*service.GenerateInput, bool) {
	in := &service.GenerateInput{
		Brand:       c.PostForm("brand"),
		Objective:   c.PostForm("objective"),
		Briefing:    c.PostForm("briefing"),
		ContentType: c.PostForm("contentType"),
		Platform:    c.PostForm("platform"),
		Recreate:    c.PostForm("recreateMode") == "true",
		StyleJSON:   c.PostForm("styleJson"),
	}

	images, err := h.readImages(c)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	in.Images = images

	if _, err := h.generationService.Validate(in); err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return in, true
}

// GeneratePost
// POST /api/generate-post (multipart/form-data)
func (h *GenerationHandler) GeneratePost(c *gin.Context) {
	var in *service.GenerateInput
	if v, exists := c.Get(generateInputKey); exists {
		in = v.(*service.GenerateInput)
	} else {
		var ok bool
		if in, ok = h.prepare(c); !ok {
			return
		}
	}

	user, _ := middleware.GetIdentity(c)
	result, err := h.generationService.Generate(c.Request.Context(), user, middleware.Owner(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"caption":  result.Caption,
		"imageUrl": result.ImageURL,
		"meta":     result.Meta,
	})
}

// IGFlyer
// POST /api/templates/ig-flyer
func (h *GenerationHandler) IGFlyer(c *gin.Context) {
	var req dto.IGFlyerRequest
	_ = c.ShouldBindJSON(&req)

	imageURL, err := h.generationService.GenerateFlyer(c.Request.Context(), req.Handle)
	if err != nil {
		if errors.Is(err, service.ErrHandleRequired) {
			response.ParamError(c, err.Error())
			return
		}
		logger.WithComponent("generation").WithError(err).Error("ig flyer failed")
		response.ServerError(c, service.ErrImageGeneration.Error())
		return
	}

	response.Success(c, gin.H{"imageUrl": imageURL})
}

// readImages loads the uploaded reference images, rejecting oversized files
// before reading them.
func (h *GenerationHandler) readImages(c *gin.Context) ([]service.ReferenceImage, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		// url-encoded or empty bodies carry no files
		return nil, nil
	}

	files := form.File[referenceImagesField]
	if limit := h.cfg.MaxReferenceImages; limit > 0 && len(files) > limit {
		return nil, service.ErrTooManyImages
	}

	images := make([]service.ReferenceImage, 0, len(files))
	for _, fh := range files {
		if h.cfg.MaxReferenceBytes > 0 && fh.Size > h.cfg.MaxReferenceBytes {
			return nil, service.ErrImageTooLarge
		}
		data, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, service.ReferenceImage{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return images, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *GenerationHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBrandObjectiveRequired),
		errors.Is(err, service.ErrBriefingRequired),
		errors.Is(err, service.ErrTooManyImages),
		errors.Is(err, service.ErrImageTooLarge),
		errors.Is(err, service.ErrInvalidImageType):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrMalformedCaption):
		response.ServerError(c, err.Error())
	case errors.Is(err, service.ErrTextGeneration):
		response.UpstreamError(c, err.Error())
	default:
		logger.WithComponent("generation").WithError(err).Error("generate post failed")
		response.ServerError(c, "Erro ao gerar o post.")
	}
}
