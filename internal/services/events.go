package services

// Event actions published after successful post mutations.
const (
	EventPostCreated    = "post.created"
	EventPostDeleted    = "post.deleted"
	EventPostLiked      = "post.liked"
	EventPostUnliked    = "post.unliked"
	EventCommentAdded   = "comment.added"
	EventCommentDeleted = "comment.deleted"
)

// Publisher receives post activity. Implementations must not block.
type Publisher interface {
	Publish(postID, action string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, interface{}) {}
