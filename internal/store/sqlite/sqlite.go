package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/postboard-be/internal/database"
	"github.com/isdelr/postboard-be/internal/models"
	"github.com/isdelr/postboard-be/internal/store"
)

// Store is a store.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := database.New(path)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, avatar, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.Avatar, user.PasswordHash, user.CreatedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, avatar, password_hash, created_at FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, avatar, password_hash, created_at FROM users WHERE email = ?", email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	var createdAt int64
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Avatar, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, store.ErrNotFound
		}
		return models.User{}, err
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, text, name, avatar, created_at FROM posts ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, err
	}
	posts := []models.Post{}
	index := map[string]int{}
	for rows.Next() {
		var p models.Post
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.Text, &p.Name, &p.Avatar, &createdAt); err != nil {
			rows.Close()
			return nil, err
		}
		p.CreatedAt = fromMillis(createdAt)
		p.Likes = []models.Like{}
		p.Comments = []models.Comment{}
		index[p.ID] = len(posts)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(posts) == 0 {
		return posts, nil
	}

	likes, err := s.loadLikes(ctx, "")
	if err != nil {
		return nil, err
	}
	for postID, l := range likes {
		if i, ok := index[postID]; ok {
			posts[i].Likes = l
		}
	}

	comments, err := s.loadComments(ctx, "")
	if err != nil {
		return nil, err
	}
	for postID, c := range comments {
		if i, ok := index[postID]; ok {
			posts[i].Comments = c
		}
	}
	return posts, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (models.Post, error) {
	var p models.Post
	var createdAt int64
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, text, name, avatar, created_at FROM posts WHERE id = ?", id)
	if err := row.Scan(&p.ID, &p.UserID, &p.Text, &p.Name, &p.Avatar, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Post{}, store.ErrNotFound
		}
		return models.Post{}, err
	}
	p.CreatedAt = fromMillis(createdAt)

	likes, err := s.loadLikes(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	comments, err := s.loadComments(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	p.Likes = likes[id]
	p.Comments = comments[id]
	p.Normalize()
	return p, nil
}

// loadLikes returns likes grouped by post, newest first. An empty postID loads every post.
func (s *Store) loadLikes(ctx context.Context, postID string) (map[string][]models.Like, error) {
	query := "SELECT id, post_id, user_id FROM post_likes"
	var args []any
	if postID != "" {
		query += " WHERE post_id = ?"
		args = append(args, postID)
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	likes := map[string][]models.Like{}
	for rows.Next() {
		var like models.Like
		var pid string
		if err := rows.Scan(&like.ID, &pid, &like.UserID); err != nil {
			return nil, err
		}
		likes[pid] = append(likes[pid], like)
	}
	return likes, rows.Err()
}

// loadComments returns comments grouped by post, newest first. An empty postID loads every post.
func (s *Store) loadComments(ctx context.Context, postID string) (map[string][]models.Comment, error) {
	query := "SELECT id, post_id, user_id, text, name, avatar, created_at FROM post_comments"
	var args []any
	if postID != "" {
		query += " WHERE post_id = ?"
		args = append(args, postID)
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := map[string][]models.Comment{}
	for rows.Next() {
		var c models.Comment
		var pid string
		var createdAt int64
		if err := rows.Scan(&c.ID, &pid, &c.UserID, &c.Text, &c.Name, &c.Avatar, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = fromMillis(createdAt)
		comments[pid] = append(comments[pid], c)
	}
	return comments, rows.Err()
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO posts (id, user_id, text, name, avatar, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		post.ID, post.UserID, post.Text, post.Name, post.Avatar, post.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	post.Normalize()
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) AddLike(ctx context.Context, postID string, like models.Like) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO post_likes (id, post_id, user_id, created_at)
		SELECT ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM posts WHERE id = ?)`,
		like.ID, postID, like.UserID, now().UnixMilli(), postID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return expectAffected(res)
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM post_likes WHERE post_id = ? AND user_id = ?", postID, userID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) AddComment(ctx context.Context, postID string, comment models.Comment) error {
	createdAt := comment.CreatedAt
	if createdAt.IsZero() {
		createdAt = now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO post_comments (id, post_id, user_id, text, name, avatar, created_at)
		SELECT ?, ?, ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM posts WHERE id = ?)`,
		comment.ID, postID, comment.UserID, comment.Text, comment.Name, comment.Avatar, createdAt.UnixMilli(), postID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM post_comments WHERE post_id = ? AND id = ?", postID, commentID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
