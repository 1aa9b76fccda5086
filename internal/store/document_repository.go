package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"forumscraper/pkg/models"
)

// DocumentRepository handles database operations for ingested posts and
// their media metadata.
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// InsertMedia stores the metadata row for one ingested binary.
func (r *DocumentRepository) InsertMedia(ctx context.Context, media *models.Media) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media (id, filename, file_type, source_url, kind)
		VALUES (?, ?, ?, ?, ?)
	`, media.ID, media.Filename, media.FileType, media.SourceURL, string(media.Kind))
	if err != nil {
		return fmt.Errorf("failed to insert media: %w", err)
	}
	return nil
}

// InsertPost stores one successfully ingested article. The article id is the
// primary key, so re-ingesting a known article fails rather than duplicating
// it.
func (r *DocumentRepository) InsertPost(ctx context.Context, post *models.Post) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (article_id, title, section, relative_age, posted_at,
		                   points, comments, short_link, processed_at, run_id, media_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, post.ArticleID, post.Title, post.Section, post.RelativeAge, post.PostedAt,
		post.Points, post.Comments, post.ShortLink, post.ProcessedAt, post.RunID, post.MediaID)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetPost returns the stored post for an article id, or nil if the article
// has never been ingested.
func (r *DocumentRepository) GetPost(ctx context.Context, articleID string) (*models.Post, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT article_id, title, section, relative_age, posted_at,
		       points, comments, short_link, processed_at, run_id, media_id
		FROM posts
		WHERE article_id = ?
	`, articleID)

	var post models.Post
	err := row.Scan(&post.ArticleID, &post.Title, &post.Section, &post.RelativeAge,
		&post.PostedAt, &post.Points, &post.Comments, &post.ShortLink,
		&post.ProcessedAt, &post.RunID, &post.MediaID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post: %w", err)
	}
	return &post, nil
}

// CountPosts returns the number of stored posts.
func (r *DocumentRepository) CountPosts(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}
