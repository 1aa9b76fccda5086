package models

import "time"

// MediaKind identifies the kind of binary asset referenced by an article.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaRef is a link to a binary asset embedded in an article, as found in
// the rendered markup.
type MediaRef struct {
	URL  string
	Kind MediaKind
}

// Article is one discovered content record. The ID is assigned by the forum
// and stable across runs; everything else is extracted from the markup
// snapshot the article appeared in.
type Article struct {
	// ID is the forum-assigned article id attribute, e.g. "jsid-post-a7wwAyL".
	// Empty if the article tag carried no id.
	ID string

	// TypeTokens is the joined class list of the container two levels below
	// the post container, e.g. "post-container" or "post-view-video-post".
	TypeTokens string

	// Restricted is set when the article carries a sensitive-content marker
	// and cannot be extracted without a login.
	Restricted bool

	Title       string
	Section     string
	RelativeAge string // e.g. "5h" or "2d"
	MetaText    string // e.g. " 1,758 points · 55 comments "
	ShortLink   string

	Media []MediaRef
}

// Stream is one numbered batch of articles appended to the feed while the
// page scrolls. ID is the decimal batch number without the "stream-" prefix.
type Stream struct {
	ID       string
	Articles []Article
}

// Run is one discovery session's bookkeeping record. Rows are append-only;
// the most recent run with a non-nil anchor supplies the stop marker for the
// next session.
type Run struct {
	ID             string
	StartedAt      time.Time
	EndedAt        *time.Time
	ItemsProcessed int
	AnchorItemID   *string
	StopReason     string
}

// Media is the metadata row for one ingested binary, stored beside the blob
// which lives in the blob store under ID.
type Media struct {
	ID        string
	Filename  string
	FileType  string
	SourceURL string
	Kind      MediaKind
}

// Post is the durable projection of one successfully ingested article.
// Created once, never mutated.
type Post struct {
	ArticleID   string
	Title       string
	Section     string
	RelativeAge string
	PostedAt    time.Time
	Points      int
	Comments    int
	ShortLink   string
	ProcessedAt time.Time
	RunID       string
	MediaID     string
}
