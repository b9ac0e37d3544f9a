package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/isdelr/postboard-be/internal/auth"
	"github.com/isdelr/postboard-be/internal/models"
	"github.com/isdelr/postboard-be/internal/store"
	"github.com/isdelr/postboard-be/internal/validation"
	"github.com/rs/zerolog/log"
)

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	CreatePost(ctx context.Context, caller auth.Principal, in validation.PostInput) (models.Post, error)
	DeletePost(ctx context.Context, caller auth.Principal, id string) error
	LikePost(ctx context.Context, caller auth.Principal, id string) (models.Post, error)
	UnlikePost(ctx context.Context, caller auth.Principal, id string) (models.Post, error)
	AddComment(ctx context.Context, caller auth.Principal, postID string, in validation.PostInput) (models.Post, error)
	DeleteComment(ctx context.Context, caller auth.Principal, postID, commentID string) (models.Post, error)
}

// PostService provides business logic for posts, likes and comments.
type PostService struct {
	posts     store.PostStore
	publisher Publisher
}

// NewPostService creates a new PostService. A nil publisher discards events.
func NewPostService(posts store.PostStore, publisher Publisher) *PostService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &PostService{posts: posts, publisher: publisher}
}

// ListPosts returns every post, newest first. Any store failure is reported as not found.
func (s *PostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list posts")
		return nil, notFound("error", "No posts found")
	}
	return posts, nil
}

// GetPost returns a single post by ID.
func (s *PostService) GetPost(ctx context.Context, id string) (models.Post, error) {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Post{}, notFound("error", "No post found with that Id")
		}
		return models.Post{}, fmt.Errorf("get post %s: %w", id, err)
	}
	return post, nil
}

// CreatePost validates the input and stores a new post owned by caller.
func (s *PostService) CreatePost(ctx context.Context, caller auth.Principal, in validation.PostInput) (models.Post, error) {
	errs, ok := validation.ValidatePostInput(in)
	if !ok {
		return models.Post{}, validationError(errs)
	}

	post := models.Post{
		ID:     uuid.New().String(),
		UserID: caller.ID,
		Text:   in.Text,
		Name:   in.Name,
		Avatar: in.Avatar,
	}
	if err := s.posts.CreatePost(ctx, &post); err != nil {
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}

	s.publisher.Publish(post.ID, EventPostCreated, post)
	return post, nil
}

// DeletePost removes a post. Only its owner may delete it.
func (s *PostService) DeletePost(ctx context.Context, caller auth.Principal, id string) error {
	post, err := s.loadPost(ctx, id, "Not found")
	if err != nil {
		return err
	}
	if post.UserID != caller.ID {
		return unauthorized("Unauthorized")
	}

	if err := s.posts.DeletePost(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("error", "Not found")
		}
		return fmt.Errorf("delete post %s: %w", id, err)
	}

	s.publisher.Publish(id, EventPostDeleted, map[string]string{"id": id})
	return nil
}

// LikePost adds caller to the post's likes.
func (s *PostService) LikePost(ctx context.Context, caller auth.Principal, id string) (models.Post, error) {
	post, err := s.loadPost(ctx, id, "Not found")
	if err != nil {
		return models.Post{}, err
	}
	if post.LikedBy(caller.ID) {
		return models.Post{}, badRequest("User already liked this post")
	}

	like := models.Like{ID: uuid.New().String(), UserID: caller.ID}
	if err := s.posts.AddLike(ctx, id, like); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return models.Post{}, badRequest("User already liked this post")
		case errors.Is(err, store.ErrNotFound):
			return models.Post{}, notFound("error", "Not found")
		}
		return models.Post{}, fmt.Errorf("like post %s: %w", id, err)
	}

	return s.reloadAndPublish(ctx, id, "Not found", EventPostLiked)
}

// UnlikePost removes caller from the post's likes.
func (s *PostService) UnlikePost(ctx context.Context, caller auth.Principal, id string) (models.Post, error) {
	post, err := s.loadPost(ctx, id, "Not found")
	if err != nil {
		return models.Post{}, err
	}
	if !post.LikedBy(caller.ID) {
		return models.Post{}, badRequest("User have not liked this post")
	}

	if err := s.posts.RemoveLike(ctx, id, caller.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Post{}, badRequest("User have not liked this post")
		}
		return models.Post{}, fmt.Errorf("unlike post %s: %w", id, err)
	}

	return s.reloadAndPublish(ctx, id, "Not found", EventPostUnliked)
}

// AddComment validates the input and prepends a comment by caller.
func (s *PostService) AddComment(ctx context.Context, caller auth.Principal, postID string, in validation.PostInput) (models.Post, error) {
	errs, ok := validation.ValidatePostInput(in)
	if !ok {
		return models.Post{}, validationError(errs)
	}

	comment := models.Comment{
		ID:     uuid.New().String(),
		UserID: caller.ID,
		Text:   in.Text,
		Name:   in.Name,
		Avatar: in.Avatar,
	}
	if err := s.posts.AddComment(ctx, postID, comment); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Post{}, notFound("error", "Post not found")
		}
		return models.Post{}, fmt.Errorf("comment on post %s: %w", postID, err)
	}

	return s.reloadAndPublish(ctx, postID, "Post not found", EventCommentAdded)
}

// DeleteComment removes a comment. Only its author may delete it.
func (s *PostService) DeleteComment(ctx context.Context, caller auth.Principal, postID, commentID string) (models.Post, error) {
	post, err := s.loadPost(ctx, postID, "Post not found")
	if err != nil {
		return models.Post{}, err
	}

	comment, ok := post.FindComment(commentID)
	if !ok {
		return models.Post{}, notFound("error", "Not found")
	}
	if comment.UserID != caller.ID {
		return models.Post{}, unauthorized("Unauthorized. Can't delete a post from a different user")
	}

	if err := s.posts.RemoveComment(ctx, postID, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Post{}, notFound("error", "Not found")
		}
		return models.Post{}, fmt.Errorf("delete comment %s: %w", commentID, err)
	}

	return s.reloadAndPublish(ctx, postID, "Post not found", EventCommentDeleted)
}

// loadPost fetches a post, reporting absence with notFoundMsg.
func (s *PostService) loadPost(ctx context.Context, id, notFoundMsg string) (models.Post, error) {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Post{}, notFound("error", notFoundMsg)
		}
		return models.Post{}, fmt.Errorf("get post %s: %w", id, err)
	}
	return post, nil
}

func (s *PostService) reloadAndPublish(ctx context.Context, id, notFoundMsg, action string) (models.Post, error) {
	post, err := s.loadPost(ctx, id, notFoundMsg)
	if err != nil {
		return models.Post{}, err
	}
	s.publisher.Publish(id, action, post)
	return post, nil
}
