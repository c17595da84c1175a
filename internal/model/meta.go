package model

import "time"

// LocalOwner keys Meta data when the caller is anonymous.
const LocalOwner = "local_user"

type MetaPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

type MetaSelection struct {
	PageID          string `json:"pageId"`
	PageName        string `json:"pageName"`
	PageAccessToken string `json:"pageAccessToken"`
	IGID            string `json:"igId"`
	IGUsername      string `json:"igUsername"`
	IGName          string `json:"igName"`
}

// MetaTokenBundle is what the OAuth callback stores per owner.
type MetaTokenBundle struct {
	ConnectedAt time.Time      `json:"connectedAt"`
	AccessToken string         `json:"accessToken"`
	Pages       []MetaPage     `json:"pages"`
	Selected    *MetaSelection `json:"selected,omitempty"`
}

type IGPost struct {
	ID        string `json:"id"`
	Caption   string `json:"caption"`
	MediaType string `json:"media_type"`
	MediaURL  string `json:"media_url"`
	Permalink string `json:"permalink"`
	Timestamp string `json:"timestamp"`
}

// IsImage reports whether the post can feed style inference.
func (p IGPost) IsImage() bool {
	switch p.MediaType {
	case "IMAGE", "CAROUSEL_ALBUM", "PHOTO":
		return p.MediaURL != ""
	}
	return false
}

// IGPostCache is the synced media of one Instagram account.
type IGPostCache struct {
	SyncedAt time.Time     `json:"syncedAt"`
	Selected MetaSelection `json:"selected"`
	Posts    []IGPost      `json:"posts"`
}
