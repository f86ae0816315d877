// Package storage archives published posts in SQLite for the analytics
// command. The archive is supplementary to the JSON posting history: the
// history file decides what the bot does next, the archive records what it
// has done.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("not found")

// PostRecord is one archived publish attempt.
type PostRecord struct {
	ID           int64
	ArticleTitle string
	ArticleLink  string
	Source       string
	Content      string
	QualityScore int
	PostID       string // empty when publishing failed
	PostedAt     time.Time
}

// SourceCount is a source name and how many archived posts used it.
type SourceCount struct {
	Source string
	Count  int
}

// DB wraps the SQLite database connection and provides archive operations.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		article_title TEXT NOT NULL,
		article_link TEXT NOT NULL,
		source TEXT,
		content TEXT NOT NULL,
		quality_score INTEGER DEFAULT 0,
		post_id TEXT,
		posted_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_posts_posted_at ON posts(posted_at);
	CREATE INDEX IF NOT EXISTS idx_posts_article_link ON posts(article_link);

	CREATE TABLE IF NOT EXISTS counters (
		key TEXT PRIMARY KEY,
		value INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// ArchivePost inserts an archived publish attempt and returns its row ID.
func (db *DB) ArchivePost(ctx context.Context, rec *PostRecord) (int64, error) {
	query := `
	INSERT INTO posts (article_title, article_link, source, content, quality_score, post_id, posted_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := db.conn.ExecContext(ctx, query,
		rec.ArticleTitle,
		rec.ArticleLink,
		rec.Source,
		rec.Content,
		rec.QualityScore,
		rec.PostID,
		rec.PostedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPost retrieves an archived post by row ID.
func (db *DB) GetPost(ctx context.Context, id int64) (*PostRecord, error) {
	query := `
	SELECT id, article_title, article_link, source, content, quality_score, post_id, posted_at
	FROM posts WHERE id = ?
	`

	rec := &PostRecord{}
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.ArticleTitle,
		&rec.ArticleLink,
		&rec.Source,
		&rec.Content,
		&rec.QualityScore,
		&rec.PostID,
		&rec.PostedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RecentPosts returns the most recent archived posts, newest first.
func (db *DB) RecentPosts(ctx context.Context, limit int) ([]PostRecord, error) {
	query := `
	SELECT id, article_title, article_link, source, content, quality_score, post_id, posted_at
	FROM posts ORDER BY posted_at DESC LIMIT ?
	`

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []PostRecord
	for rows.Next() {
		var rec PostRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.ArticleTitle,
			&rec.ArticleLink,
			&rec.Source,
			&rec.Content,
			&rec.QualityScore,
			&rec.PostID,
			&rec.PostedAt,
		); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// TopSources returns the most used sources among archived posts.
func (db *DB) TopSources(ctx context.Context, limit int) ([]SourceCount, error) {
	query := `
	SELECT source, COUNT(*) AS n FROM posts
	WHERE source != ''
	GROUP BY source ORDER BY n DESC, source ASC LIMIT ?
	`

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []SourceCount
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}

// IncrementCounter adds one to the named counter.
func (db *DB) IncrementCounter(ctx context.Context, key string) error {
	query := `
	INSERT INTO counters (key, value) VALUES (?, 1)
	ON CONFLICT(key) DO UPDATE SET value = value + 1
	`
	_, err := db.conn.ExecContext(ctx, query, key)
	return err
}

// GetCounter returns the named counter's value, zero if never incremented.
func (db *DB) GetCounter(ctx context.Context, key string) (int, error) {
	query := `SELECT value FROM counters WHERE key = ?`
	var value int
	err := db.conn.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return value, err
}

// Counter keys used by the orchestrator.
const (
	CounterGenerated = "posts_generated"
	CounterSucceeded = "posts_succeeded"
	CounterFailed    = "posts_failed"
)
