package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/postboard-be/internal/services"
	"github.com/isdelr/postboard-be/internal/validation"
	"github.com/rs/zerolog/log"
)

// PostHandler handles HTTP requests for posts, likes and comments.
type PostHandler struct {
	service services.PostServiceProvider
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service services.PostServiceProvider) *PostHandler {
	return &PostHandler{service: service}
}

// Test reports that the posts routes are mounted.
func (h *PostHandler) Test(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Posts Works"})
}

// GetAll returns every post, newest first.
func (h *PostHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// Get returns a post by ID.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Create stores a new post for the caller.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	var payload validation.PostInput
	if !decode(w, r, &payload) {
		return
	}

	post, err := h.service.CreatePost(r.Context(), caller, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Delete removes a post owned by the caller.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.service.DeletePost(r.Context(), caller, id); err != nil {
		log.Warn().Err(err).Str("post_id", id).Str("user_id", caller.ID).Msg("Failed to delete post")
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Like adds the caller's like to a post.
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	post, err := h.service.LikePost(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Unlike removes the caller's like from a post.
func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	post, err := h.service.UnlikePost(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// AddComment adds a comment by the caller to a post.
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	var payload validation.PostInput
	if !decode(w, r, &payload) {
		return
	}

	post, err := h.service.AddComment(r.Context(), caller, chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DeleteComment removes one of the caller's comments from a post.
func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	postID := chi.URLParam(r, "id")
	commentID := chi.URLParam(r, "comment_id")

	post, err := h.service.DeleteComment(r.Context(), caller, postID, commentID)
	if err != nil {
		log.Warn().Err(err).Str("post_id", postID).Str("comment_id", commentID).Msg("Failed to delete comment")
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}
