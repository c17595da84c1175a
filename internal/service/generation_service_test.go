package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/pkg/ai"
	"github.com/nexoraai/nexora_server/internal/pkg/identity"
	"github.com/nexoraai/nexora_server/internal/repository"
	"github.com/nexoraai/nexora_server/internal/testutil"
)

type visionCall struct {
	prompt      string
	urls        []string
	temperature float32
}

type fakeAI struct {
	mu sync.Mutex

	text     string
	textErr  error
	vision   string
	imageErr error

	textPrompts  []string
	visionCalls  []visionCall
	imagePrompts []string
	imageSizes   []string
}

func (f *fakeAI) CompleteJSON(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textPrompts = append(f.textPrompts, prompt)
	return f.text, f.textErr
}

func (f *fakeAI) DescribeImages(_ context.Context, prompt string, urls []string, temperature float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visionCalls = append(f.visionCalls, visionCall{prompt: prompt, urls: urls, temperature: temperature})
	return f.vision, nil
}

func (f *fakeAI) GenerateImage(_ context.Context, prompt, size string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imagePrompts = append(f.imagePrompts, prompt)
	f.imageSizes = append(f.imageSizes, size)
	if f.imageErr != nil {
		return "", f.imageErr
	}
	return base64.StdEncoding.EncodeToString([]byte("png-bytes")), nil
}

func (f *fakeAI) calls() int {
	return len(f.textPrompts) + len(f.visionCalls) + len(f.imagePrompts)
}

type fakeInstagram struct {
	selected *model.MetaSelection
	posts    []model.IGPost
}

func (f *fakeInstagram) Selected(string) *model.MetaSelection { return f.selected }
func (f *fakeInstagram) Posts(string) []model.IGPost { return f.posts }

type fakeArchiver struct {
	uploads map[string][]byte
}

func (a *fakeArchiver) UploadGeneration(userID, recordID string, data []byte, _ string) (string, error) {
	a.uploads[recordID] = data
	return "https://cdn.example.com/generations/" + userID + "/" + recordID + ".png", nil
}

const validCaption = "```json\n{\"caption\":\"Pão quentinho saindo agora!\",\"hashtags\":[\"#padaria\",\"#pão\"]}\n```"

func setupGenerationService(t *testing.T, fake *fakeAI, ig InstagramSource) (*GenerationService, *repository.HistoryRepository) {
	t.Helper()
	rdb, _ := testutil.SetupTestRedis(t)
	history := repository.NewHistoryRepository(rdb, 20)
	return NewGenerationService(fake, ig, history, nil, testConfig()), history
}

func validInput() *GenerateInput {
	return &GenerateInput{
		Brand:       `{"id":"b1","name":"Padaria Sol","niche":"padaria","audience":"bairro"}`,
		Objective:   "vender",
		Briefing:    "pão de queijo em promoção",
		ContentType: "instagram",
	}
}

func TestGenerationService_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *GenerateInput)
		want   error
	}{
		{"no brand", func(in *GenerateInput) { in.Brand = "" }, ErrBrandObjectiveRequired},
		{"brand without name", func(in *GenerateInput) { in.Brand = `{"niche":"x"}` }, ErrBrandObjectiveRequired},
		{"no objective", func(in *GenerateInput) { in.Objective = " " }, ErrBrandObjectiveRequired},
		{"empty briefing", func(in *GenerateInput) { in.Briefing = "" }, ErrBriefingRequired},
		{"too many images", func(in *GenerateInput) {
			for i := 0; i < 4; i++ {
				in.Images = append(in.Images, ReferenceImage{ContentType: "image/png", Data: []byte("x")})
			}
		}, ErrTooManyImages},
		{"oversized image", func(in *GenerateInput) {
			in.Images = []ReferenceImage{{ContentType: "image/png", Data: make([]byte, 6<<20+1)}}
		}, ErrImageTooLarge},
		{"not an image", func(in *GenerateInput) {
			in.Images = []ReferenceImage{{ContentType: "application/pdf", Data: []byte("%PDF")}}
		}, ErrInvalidImageType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAI{text: validCaption}
			s, _ := setupGenerationService(t, fake, nil)

			in := validInput()
			tt.mutate(in)
			_, err := s.Generate(context.Background(), nil, model.LocalOwner, in)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, fake.calls(), "no upstream calls on invalid input")
		})
	}
}

func TestGenerationService_InvalidBrandJSONFallsBack(t *testing.T) {
	assert.Equal(t, "Marca Desconhecida", ParseBrand("{not json").Name)
	assert.Equal(t, "", ParseBrand("").Name)
	assert.Equal(t, "X", ParseBrand(`{"name":" X "}`).Name)
}

func TestGenerationService_Generate_Flyer(t *testing.T) {
	fake := &fakeAI{text: validCaption}
	s, history := setupGenerationService(t, fake, nil)
	user := &identity.Identity{ID: "user-1"}

	result, err := s.Generate(context.Background(), user, user.ID, validInput())
	require.NoError(t, err)

	assert.Equal(t, "Pão quentinho saindo agora!\n\n#padaria #pão", result.Caption)
	require.NotNil(t, result.ImageURL)
	assert.True(t, strings.HasPrefix(*result.ImageURL, "data:image/png;base64,"))
	assert.Equal(t, model.ModeFlyer, result.Meta.Mode)
	assert.Equal(t, ai.SizeSquare, result.Meta.Size)
	assert.Equal(t, KindInstagram, result.Meta.Kind)
	assert.Empty(t, result.Meta.StyleSource)

	require.Len(t, fake.imagePrompts, 1)
	assert.Contains(t, fake.imagePrompts[0], "FLYER PUBLICITÁRIO para Instagram")
	assert.Empty(t, fake.visionCalls)

	records, err := history.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Padaria Sol", records[0].BrandName)
	assert.Equal(t, result.Caption, records[0].Caption)
	assert.Equal(t, result.Record.ID, records[0].ID)
}

func TestGenerationService_Generate_AnonymousSkipsHistory(t *testing.T) {
	fake := &fakeAI{text: validCaption}
	s, history := setupGenerationService(t, fake, nil)

	result, err := s.Generate(context.Background(), nil, model.LocalOwner, validInput())
	require.NoError(t, err)
	assert.Nil(t, result.Record)

	records, err := history.List(context.Background(), model.LocalOwner)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGenerationService_Generate_ImageFailureStillOK(t *testing.T) {
	fake := &fakeAI{text: validCaption, imageErr: errors.New("content policy")}
	s, _ := setupGenerationService(t, fake, nil)

	result, err := s.Generate(context.Background(), nil, model.LocalOwner, validInput())
	require.NoError(t, err)
	assert.Nil(t, result.ImageURL)
	assert.NotEmpty(t, result.Caption)
}

func TestGenerationService_Generate_MalformedCaption(t *testing.T) {
	for _, raw := range []string{"isto não é json", `{"hashtags":["#a"]}`, ""} {
		fake := &fakeAI{text: raw}
		s, _ := setupGenerationService(t, fake, nil)

		_, err := s.Generate(context.Background(), nil, model.LocalOwner, validInput())
		assert.ErrorIs(t, err, ErrMalformedCaption, raw)
		assert.Empty(t, fake.imagePrompts)
	}
}

func TestGenerationService_Generate_TextUpstreamError(t *testing.T) {
	fake := &fakeAI{textErr: errors.New("429")}
	s, _ := setupGenerationService(t, fake, nil)

	_, err := s.Generate(context.Background(), nil, model.LocalOwner, validInput())
	assert.ErrorIs(t, err, ErrTextGeneration)
}

func TestGenerationService_Generate_RecreateWithImages(t *testing.T) {
	fake := &fakeAI{
		text:   validCaption,
		vision: `{"scene_description":"balcão de padaria","main_subjects":"um padeiro","colors":["#f5deb3"],"mood":"acolhedor"}`,
	}
	s, _ := setupGenerationService(t, fake, nil)

	in := validInput()
	in.Recreate = true
	in.ContentType = "stories"
	in.Images = []ReferenceImage{{Filename: "ref.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")}}

	result, err := s.Generate(context.Background(), nil, model.LocalOwner, in)
	require.NoError(t, err)

	assert.Equal(t, model.ModeRecreate, result.Meta.Mode)
	assert.Equal(t, StyleSourceImages, result.Meta.StyleSource)
	assert.Equal(t, ai.SizePortrait, fake.imageSizes[0])
	assert.Contains(t, fake.imagePrompts[0], "- Cena: balcão de padaria")
	assert.Contains(t, fake.imagePrompts[0], "- Personagens/Objetos: um padeiro")

	require.Len(t, fake.visionCalls, 1)
	assert.True(t, strings.HasPrefix(fake.visionCalls[0].urls[0], "data:image/jpeg;base64,"))
}

func TestGenerationService_Generate_VisionFailureIgnored(t *testing.T) {
	fake := &fakeAI{text: validCaption, vision: "desculpe, não consigo"}
	s, _ := setupGenerationService(t, fake, nil)

	in := validInput()
	in.Images = []ReferenceImage{{ContentType: "image/png", Data: []byte("png")}}

	result, err := s.Generate(context.Background(), nil, model.LocalOwner, in)
	require.NoError(t, err)
	assert.Equal(t, model.ModeFlyer, result.Meta.Mode)
	assert.Empty(t, result.Meta.StyleSource)
}

func TestGenerationService_Generate_ClientStyle(t *testing.T) {
	fake := &fakeAI{text: validCaption}
	s, _ := setupGenerationService(t, fake, nil)

	in := validInput()
	in.StyleJSON = `{"main_colors":["#123456"],"layout_description":"foto central"}`

	result, err := s.Generate(context.Background(), nil, model.LocalOwner, in)
	require.NoError(t, err)
	assert.Equal(t, StyleSourceClient, result.Meta.StyleSource)
	assert.Contains(t, fake.imagePrompts[0], "- Cores: #123456")
	assert.Contains(t, fake.imagePrompts[0], "- Layout: foto central")
}

func TestGenerationService_Generate_PersonalMode(t *testing.T) {
	fake := &fakeAI{text: validCaption}
	s, _ := setupGenerationService(t, fake, nil)

	in := validInput()
	in.ContentType = "personal"
	in.Brand = `{"name":"Família Souza","niche":"aniversário"}`

	result, err := s.Generate(context.Background(), &identity.Identity{ID: "u1"}, "u1", in)
	require.NoError(t, err)
	assert.Equal(t, model.ModePersonal, result.Meta.Mode)
	assert.Contains(t, fake.imagePrompts[0], `Tipo: "aniversário"`)
	assert.Equal(t, "aniversário", result.Record.PersonalType)
}

func TestGenerationService_Generate_InstagramCorpus(t *testing.T) {
	posts := []model.IGPost{
		{ID: "1", Caption: "Bom dia, bairro!", MediaType: "IMAGE", MediaURL: "https://cdn/1.jpg", Timestamp: "2026-01-01"},
		{ID: "2", Caption: "", MediaType: "VIDEO", MediaURL: "https://cdn/2.jpg"},
		{ID: "3", Caption: "Sexta tem sonho", MediaType: "CAROUSEL_ALBUM", MediaURL: "https://cdn/3.jpg"},
	}
	ig := &fakeInstagram{selected: &model.MetaSelection{IGID: "ig1"}, posts: posts}
	fake := &fakeAI{text: validCaption, vision: `{"main_colors":["#ffcc00"],"style_vibe":"rústico"}`}
	s, _ := setupGenerationService(t, fake, ig)

	result, err := s.Generate(context.Background(), nil, model.LocalOwner, validInput())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Meta.CorpusPosts)
	assert.Equal(t, StyleSourceInstagram, result.Meta.StyleSource)
	assert.Contains(t, fake.textPrompts[0], "--- POST REAL 1 (2026-01-01) ---\nBom dia, bairro!")
	assert.Contains(t, fake.textPrompts[0], "--- POST REAL 2 () ---\nSexta tem sonho")

	require.Len(t, fake.visionCalls, 1)
	assert.Equal(t, []string{"https://cdn/1.jpg", "https://cdn/3.jpg"}, fake.visionCalls[0].urls)
	assert.Zero(t, fake.visionCalls[0].temperature)
	assert.Contains(t, fake.imagePrompts[0], "- Cores: #ffcc00")
}

func TestGenerationService_Generate_UploadsSkipInstagram(t *testing.T) {
	ig := &fakeInstagram{
		selected: &model.MetaSelection{IGID: "ig1"},
		posts:    []model.IGPost{{Caption: "post", MediaType: "IMAGE", MediaURL: "https://cdn/1.jpg"}},
	}
	fake := &fakeAI{text: validCaption, vision: `{"main_colors":["#000"]}`}
	s, _ := setupGenerationService(t, fake, ig)

	in := validInput()
	in.Images = []ReferenceImage{{ContentType: "image/png", Data: []byte("png")}}

	result, err := s.Generate(context.Background(), nil, model.LocalOwner, in)
	require.NoError(t, err)
	assert.Zero(t, result.Meta.CorpusPosts)
	assert.NotContains(t, fake.textPrompts[0], "ESTILO DO CLIENTE")
	assert.Len(t, fake.visionCalls, 1)
}

func TestGenerationService_Generate_Archive(t *testing.T) {
	fake := &fakeAI{text: validCaption}
	s, history := setupGenerationService(t, fake, nil)
	archiver := &fakeArchiver{uploads: map[string][]byte{}}
	s.archiver = archiver

	result, err := s.Generate(context.Background(), &identity.Identity{ID: "u1"}, "u1", validInput())
	require.NoError(t, err)

	require.NotEmpty(t, result.Meta.ArchiveURL)
	assert.Equal(t, []byte("png-bytes"), archiver.uploads[result.Record.ID])
	// the response keeps inline data, history stores the archived URL
	assert.True(t, strings.HasPrefix(*result.ImageURL, "data:"))

	records, err := history.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.Meta.ArchiveURL, *records[0].ImageURL)
}

func TestGenerationService_GenerateFlyer(t *testing.T) {
	fake := &fakeAI{}
	s, _ := setupGenerationService(t, fake, nil)

	uri, err := s.GenerateFlyer(context.Background(), "  @@padaria ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.Contains(t, fake.imagePrompts[0], "@padaria.")
	assert.Equal(t, ai.SizeSquare, fake.imageSizes[0])

	_, err = s.GenerateFlyer(context.Background(), " @ ")
	assert.ErrorIs(t, err, ErrHandleRequired)

	fake.imageErr = errors.New("boom")
	_, err = s.GenerateFlyer(context.Background(), "padaria")
	assert.ErrorIs(t, err, ErrImageGeneration)
}

func TestBuildCorpus_Limits(t *testing.T) {
	var posts []model.IGPost
	for i := 0; i < 30; i++ {
		posts = append(posts, model.IGPost{Caption: strings.Repeat("é", 2000)})
	}

	corpus, count := BuildCorpus(posts, 25, 1200, 12000)
	assert.Equal(t, 25, count)
	assert.Equal(t, 12000, len([]rune(corpus)))
	assert.Contains(t, corpus, "--- POST REAL 1 () ---\n"+strings.Repeat("é", 1200)+"\n")
}

func TestDecodeCaption(t *testing.T) {
	s, _ := setupGenerationService(t, &fakeAI{}, nil)

	c, err := DecodeCaption(`{"caption":" oi ","hashtags":[" #a ",""]}`, s.validate)
	require.NoError(t, err)
	assert.Equal(t, "oi\n\n#a", FinalCaption(c))

	c, err = DecodeCaption(`{"caption":"sem tags"}`, s.validate)
	require.NoError(t, err)
	assert.Equal(t, "sem tags", FinalCaption(c))
}
