// Package classify maps a discovered article's structural shape to the
// handler responsible for it. Dispatch is a closed enumeration plus an
// explicit registry, gated by the forum's declared processor list; shapes
// the forum does not declare yield Unclassified.
package classify

import "forumscraper/pkg/models"

// ItemType is the closed set of article shapes the scraper recognizes.
type ItemType string

const (
	// TypePicture is a single still image post.
	TypePicture ItemType = "post-container"
	// TypePictureWithButton is a tall still image rendered behind a
	// read-more button; extraction-wise identical to TypePicture.
	TypePictureWithButton ItemType = "post-container-with-button"
	// TypeVideo and TypeGIF are known shapes without extraction support.
	TypeVideo ItemType = "post-view-video-post"
	TypeGIF   ItemType = "post-view-gif-post"
	// TypeRestricted marks sensitive content that needs a login.
	TypeRestricted ItemType = "restricted"
	// TypeEmpty marks an article carrying no item id, usually a placeholder
	// still being rendered.
	TypeEmpty ItemType = "empty"
	// TypeUnclassified is every shape the forum's processor list does not
	// declare.
	TypeUnclassified ItemType = "unclassified"
)

// Handler names an extraction route. The pipeline binds concrete behavior to
// these names; the classifier only decides which one an article gets.
type Handler string

const (
	// HandlerIngest routes to full media ingestion.
	HandlerIngest Handler = "ingest"
	// HandlerSkipRestricted logs and skips sensitive articles.
	HandlerSkipRestricted Handler = "skip-restricted"
	// HandlerSkipEmpty logs and skips articles without an item id.
	HandlerSkipEmpty Handler = "skip-empty"
	// HandlerSkipUnsupported logs and skips known-but-unimplemented shapes.
	HandlerSkipUnsupported Handler = "skip-unsupported"
	// HandlerSkipUnclassified logs and skips undeclared shapes.
	HandlerSkipUnclassified Handler = "skip-unclassified"
)

// registry is the fixed mapping from recognized shape to handler.
var registry = map[ItemType]Handler{
	TypePicture:           HandlerIngest,
	TypePictureWithButton: HandlerIngest,
	TypeVideo:             HandlerSkipUnsupported,
	TypeGIF:               HandlerSkipUnsupported,
	TypeRestricted:        HandlerSkipRestricted,
	TypeEmpty:             HandlerSkipEmpty,
	TypeUnclassified:      HandlerSkipUnclassified,
}

// Classification is the result of classifying one article.
type Classification struct {
	Type    ItemType
	Handler Handler
}

// Classifier dispatches articles for one forum. The forum's processor list
// decides which structural shapes are recognized at all; the registry
// decides what happens to each recognized shape.
type Classifier struct {
	processors map[ItemType]bool
}

// NewClassifier creates a classifier for a forum's declared processor
// tokens.
func NewClassifier(processors []string) *Classifier {
	m := make(map[ItemType]bool, len(processors))
	for _, p := range processors {
		m[ItemType(p)] = true
	}
	return &Classifier{processors: m}
}

// Classify inspects an article's structural tokens and returns its type and
// handler. A restricted marker wins over any structural shape, an article
// without an id is Empty, and a shape outside the forum's processor list is
// Unclassified; none of these is an error.
func (c *Classifier) Classify(article models.Article) Classification {
	switch {
	case article.Restricted:
		return Classification{Type: TypeRestricted, Handler: registry[TypeRestricted]}
	case article.ID == "":
		return Classification{Type: TypeEmpty, Handler: registry[TypeEmpty]}
	}

	t := ItemType(article.TypeTokens)
	if !c.processors[t] {
		return Classification{Type: TypeUnclassified, Handler: registry[TypeUnclassified]}
	}
	if handler, ok := registry[t]; ok {
		return Classification{Type: t, Handler: handler}
	}
	return Classification{Type: TypeUnclassified, Handler: registry[TypeUnclassified]}
}
