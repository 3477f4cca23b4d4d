package models

// Photo is one upstream photo as it appears in feeds and the own stream.
// DateUploaded is a unix epoch; DateTaken is the upstream's naive local
// datetime string ("2006-01-02 15:04:05").
type Photo struct {
	ID           string `json:"id"`
	OwnerID      string `json:"owner"`
	OwnerName    string `json:"owner_name"`
	Title        string `json:"title"`
	DateUploaded int64  `json:"date_upload"`
	DateTaken    string `json:"date_taken"`

	// Pre-rendered friendly dates, filled in by the handlers so every
	// render path shows identical text.
	DateUploadedText string `json:"date_upload_display,omitempty"`
	DateTakenText    string `json:"date_taken_display,omitempty"`
}

type SizeDescriptor struct {
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Source string `json:"source"`
}

// PhotoDetails is the extended metadata loaded lazily per photo.
type PhotoDetails struct {
	Tags         []string `json:"tags"`
	Views        int      `json:"views"`
	HasViews     bool     `json:"has_views"`
	CommentCount int      `json:"comment_count"`
	Description  string   `json:"description"`
}
