package dto

// GenerateMeta describes how a post was produced.
type GenerateMeta struct {
	Mode        string `json:"mode"`
	Size        string `json:"size"`
	Kind        string `json:"kind"`
	StyleSource string `json:"styleSource,omitempty"`
	CorpusPosts int    `json:"corpusPosts"`
	ArchiveURL  string `json:"archiveUrl,omitempty"`
}

type IGFlyerRequest struct {
	Handle string `json:"handle"`
}
