package dto

type SelectPageRequest struct {
	PageID string `json:"pageId" binding:"required"`
}

type SyncInstagramRequest struct {
	Limit int `json:"limit"`
}
