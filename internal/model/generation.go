package model

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	ModePersonal = "personal"
	ModeRecreate = "recreate"
	ModeFlyer    = "flyer"

	DefaultHistoryLimit = 20
)

// Brand is owned by the panel; the server only reads it from the request.
type Brand struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Niche     string `json:"niche"`
	Audience  string `json:"audience"`
	Tone      string `json:"tone"`
	Goal      string `json:"goal"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// StringList decodes either a JSON array of strings or a single string,
// since vision models return both shapes for list fields.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single = strings.TrimSpace(single); single != "" {
		*l = StringList{single}
	} else {
		*l = nil
	}
	return nil
}

// Join renders the list for prompts.
func (l StringList) Join() string {
	return strings.Join(l, ", ")
}

// VisualStyle is extracted from reference images or supplied by the client.
type VisualStyle struct {
	MainColors        StringList `json:"main_colors"`
	SecondaryColors   StringList `json:"secondary_colors"`
	ImageryKeywords   StringList `json:"imagery_keywords"`
	StyleVibe         string     `json:"style_vibe"`
	LayoutDescription string     `json:"layout_description"`
}

// Empty reports whether no field carries information.
func (s *VisualStyle) Empty() bool {
	if s == nil {
		return true
	}
	return len(s.MainColors) == 0 && len(s.SecondaryColors) == 0 &&
		len(s.ImageryKeywords) == 0 && s.StyleVibe == "" && s.LayoutDescription == ""
}

// SceneAnalysis describes a reference photo to be recreated.
type SceneAnalysis struct {
	SceneDescription string     `json:"scene_description"`
	MainSubjects     StringList `json:"main_subjects"`
	Composition      string     `json:"composition"`
	Style            string     `json:"style"`
	Colors           StringList `json:"colors"`
	Mood             string     `json:"mood"`
}

// Caption is the text model output.
type Caption struct {
	Caption  string   `json:"caption" validate:"required"`
	Hashtags []string `json:"hashtags"`
}

// GenerationRecord is one entry of a user's history.
type GenerationRecord struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	BrandID      string    `json:"brandId"`
	BrandName    string    `json:"brandName"`
	Platform     string    `json:"platform"`
	Mode         string    `json:"mode"`
	Objective    string    `json:"objective"`
	Briefing     string    `json:"briefing"`
	Caption      string    `json:"caption"`
	ImageURL     *string   `json:"imageUrl"`
	PersonalType string    `json:"personalType,omitempty"`
}

// TrimHistory keeps the newest limit records (records are newest first) and
// drops image data from every record but the newest.
func TrimHistory(records []GenerationRecord, limit int) []GenerationRecord {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if len(records) > limit {
		records = records[:limit]
	}
	out := make([]GenerationRecord, len(records))
	copy(out, records)
	for i := 1; i < len(out); i++ {
		out[i].ImageURL = nil
	}
	return out
}
