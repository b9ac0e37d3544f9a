// Package store defines the persistence contracts used by the services.
package store

import (
	"context"
	"errors"

	"github.com/isdelr/postboard-be/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Store is the full data access layer.
type Store interface {
	UserStore
	PostStore
	Close() error
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts user and returns ErrDuplicate if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	// GetUserByEmail includes the password hash.
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// PostStore persists posts and their likes and comments. Like and comment
// mutations are single statements against the post's child records.
type PostStore interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id string) error

	// AddLike returns ErrNotFound if the post is gone and ErrDuplicate if
	// the user already liked it.
	AddLike(ctx context.Context, postID string, like models.Like) error
	// RemoveLike returns ErrNotFound if the user has no like on the post.
	RemoveLike(ctx context.Context, postID, userID string) error

	// AddComment returns ErrNotFound if the post is gone.
	AddComment(ctx context.Context, postID string, comment models.Comment) error
	// RemoveComment returns ErrNotFound if the comment is not on the post.
	RemoveComment(ctx context.Context, postID, commentID string) error
}
