package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/isdelr/postboard-be/internal/models"
	"github.com/isdelr/postboard-be/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier represents the minimal database operations used by the store.
// Both *pgxpool.Pool and pgxmock pools satisfy this interface.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	avatar TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS posts (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	text TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	avatar TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS post_likes (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (post_id, user_id)
);

CREATE TABLE IF NOT EXISTS post_comments (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	text TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	avatar TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store is a store.Store backed by PostgreSQL.
type Store struct {
	db    Querier
	close func()
}

var _ store.Store = (*Store)(nil)

// Connect opens a pool for url, applies the schema and returns the store.
func Connect(ctx context.Context, url string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{db: pool, close: pool.Close}, nil
}

// New wraps an existing querier. The caller owns its lifecycle.
func New(db Querier) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, name, email, avatar, password_hash)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, user.ID, user.Name, user.Email, user.Avatar, user.PasswordHash)
	if err := row.Scan(&user.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *Store) getUser(ctx context.Context, column, value string) (models.User, error) {
	// column is one of two constants above, never user input.
	row := s.db.QueryRow(ctx, `
		SELECT id, name, email, avatar, password_hash, created_at
		FROM users WHERE `+column+` = $1
	`, value)
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Avatar, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, store.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, text, name, avatar, created_at
		FROM posts
		ORDER BY created_at DESC, seq DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	var ids []string
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Text, &p.Name, &p.Avatar, &p.CreatedAt); err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	likes, comments, err := s.loadChildren(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Likes = likes[posts[i].ID]
		posts[i].Comments = comments[posts[i].ID]
		posts[i].Normalize()
	}
	return posts, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (models.Post, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, text, name, avatar, created_at
		FROM posts WHERE id = $1
	`, id)
	var p models.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.Text, &p.Name, &p.Avatar, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, store.ErrNotFound
		}
		return models.Post{}, err
	}

	likes, comments, err := s.loadChildren(ctx, []string{id})
	if err != nil {
		return models.Post{}, err
	}
	p.Likes = likes[id]
	p.Comments = comments[id]
	p.Normalize()
	return p, nil
}

func (s *Store) loadChildren(ctx context.Context, postIDs []string) (map[string][]models.Like, map[string][]models.Comment, error) {
	likes := map[string][]models.Like{}
	comments := map[string][]models.Comment{}
	if len(postIDs) == 0 {
		return likes, comments, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, post_id, user_id
		FROM post_likes WHERE post_id = ANY($1)
		ORDER BY created_at DESC, seq DESC
	`, postIDs)
	if err != nil {
		return nil, nil, err
	}
	for rows.Next() {
		var l models.Like
		var postID string
		if err := rows.Scan(&l.ID, &postID, &l.UserID); err != nil {
			rows.Close()
			return nil, nil, err
		}
		likes[postID] = append(likes[postID], l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	rows, err = s.db.Query(ctx, `
		SELECT id, post_id, user_id, text, name, avatar, created_at
		FROM post_comments WHERE post_id = ANY($1)
		ORDER BY created_at DESC, seq DESC
	`, postIDs)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c models.Comment
		var postID string
		if err := rows.Scan(&c.ID, &postID, &c.UserID, &c.Text, &c.Name, &c.Avatar, &c.CreatedAt); err != nil {
			return nil, nil, err
		}
		comments[postID] = append(comments[postID], c)
	}
	return likes, comments, rows.Err()
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, user_id, text, name, avatar)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, post.ID, post.UserID, post.Text, post.Name, post.Avatar)
	if err := row.Scan(&post.CreatedAt); err != nil {
		return err
	}
	post.Normalize()
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return affected(tag, err)
}

func (s *Store) AddLike(ctx context.Context, postID string, like models.Like) error {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO post_likes (id, post_id, user_id)
		SELECT $1::text, $2::text, $3::text WHERE EXISTS (SELECT 1 FROM posts WHERE id = $2)
	`, like.ID, postID, like.UserID)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	return affected(tag, err)
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return affected(tag, err)
}

func (s *Store) AddComment(ctx context.Context, postID string, comment models.Comment) error {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO post_comments (id, post_id, user_id, text, name, avatar)
		SELECT $1::text, $2::text, $3::text, $4::text, $5::text, $6::text WHERE EXISTS (SELECT 1 FROM posts WHERE id = $2)
	`, comment.ID, postID, comment.UserID, comment.Text, comment.Name, comment.Avatar)
	return affected(tag, err)
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM post_comments WHERE post_id = $1 AND id = $2`, postID, commentID)
	return affected(tag, err)
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
