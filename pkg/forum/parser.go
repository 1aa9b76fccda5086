// Package forum turns rendered markup snapshots into domain records. The
// feed is built from numbered <div id="stream-N"> containers holding up to a
// handful of <article> posts each; new containers are appended as the page
// scrolls, which is what makes batch-id matching possible.
package forum

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"forumscraper/pkg/models"
)

const streamIDPrefix = "stream-"

// Parser extracts streams and articles from a markup snapshot.
type Parser struct{}

// NewParser creates a markup parser.
func NewParser() *Parser {
	return &Parser{}
}

// Streams returns, in document order, every stream container whose numeric
// id passes the match predicate, with its articles extracted in document
// order. Containers whose id has no numeric suffix are ignored.
func (p *Parser) Streams(markup string, match func(id string) bool) ([]models.Stream, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	var streams []models.Stream
	doc.Find(`div[id^="` + streamIDPrefix + `"]`).Each(func(_ int, sel *goquery.Selection) {
		id := strings.TrimPrefix(sel.AttrOr("id", ""), streamIDPrefix)
		if !isBatchID(id) || !match(id) {
			return
		}

		stream := models.Stream{ID: id}
		sel.Find("article").Each(func(_ int, article *goquery.Selection) {
			stream.Articles = append(stream.Articles, p.parseArticle(article))
		})
		streams = append(streams, stream)
	})

	return streams, nil
}

// parseArticle extracts one article's fields. Extraction is lenient: missing
// pieces leave zero values and the classifier decides what to do with the
// result, so a malformed article never aborts a snapshot.
func (p *Parser) parseArticle(article *goquery.Selection) models.Article {
	a := models.Article{
		ID: strings.TrimSpace(article.AttrOr("id", "")),
	}

	container := article.Find("div.post-container").First()
	if container.Length() == 0 {
		return a
	}

	a.Restricted = container.Find("div.nsfw-post").Length() > 0
	a.TypeTokens = typeTokens(container)
	a.ShortLink = container.Find("a").First().AttrOr("href", "")

	header := article.Find("header").First()
	a.Title = strings.TrimSpace(header.Find("h1").First().Text())

	// The section line reads like " Funny · 5h".
	message := header.Find("div.post-section p.message").First().Text()
	if section, age, ok := splitMessage(message); ok {
		a.Section = section
		a.RelativeAge = age
	}

	// The meta line reads like " 1,758 points · 55 comments ".
	meta := article.Find("p.post-meta").First()
	a.MetaText = meta.Text()
	if href := meta.Find("a").First().AttrOr("href", ""); href != "" {
		a.ShortLink = href
	}

	article.Find("picture").Each(func(_ int, pic *goquery.Selection) {
		img := pic.Find("img").First()
		if _, styled := img.Attr("style"); !styled {
			return
		}
		if src := img.AttrOr("src", ""); src != "" {
			a.Media = append(a.Media, models.MediaRef{URL: src, Kind: models.MediaKindImage})
		}
	})

	return a
}

// typeTokens joins the class list of the container two levels below the post
// container, e.g. "post-container-with-button" or "post-view-video-post".
// That nested shape is what distinguishes picture, gif and video posts.
func typeTokens(container *goquery.Selection) string {
	inner := container.Find("div").First().Find("div").First()
	if inner.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(inner.AttrOr("class", "")), "-")
}

func isBatchID(id string) bool {
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return len(id) > 0
}

func splitMessage(message string) (section, age string, ok bool) {
	parts := strings.Split(message, "·")
	if len(parts) < 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}
