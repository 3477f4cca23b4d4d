package models

type Friend struct {
	NSID     string `json:"nsid"`
	Username string `json:"username"`
	Realname string `json:"realname,omitempty"`
}

// FeedEntry pairs a friend with their most recent public photo. Entries are
// built per request and never stored.
type FeedEntry struct {
	Photo  Photo  `json:"photo"`
	Friend Friend `json:"friend"`
}
