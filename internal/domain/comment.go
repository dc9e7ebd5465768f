package domain

import "time"

// Comment is a reply attached to a feedback item, optionally nested under another comment.
type Comment struct {
	ID              string    `json:"id"`
	FeedbackID      string    `json:"feedback_id"`
	ParentCommentID *string   `json:"parent_comment_id"`
	AuthorName      string    `json:"author_name"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

// CommentNode is a comment with its direct replies in chronological order.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}

// OrphanPolicy decides what happens to a comment whose parent is missing from the thread.
type OrphanPolicy string

const (
	// OrphanDrop leaves orphans out of the forest.
	OrphanDrop OrphanPolicy = "drop"
	// OrphanPromote turns orphans into roots.
	OrphanPromote OrphanPolicy = "promote"
)

// ParseOrphanPolicy returns OrphanDrop for anything it does not recognise.
func ParseOrphanPolicy(raw string) OrphanPolicy {
	if OrphanPolicy(raw) == OrphanPromote {
		return OrphanPromote
	}
	return OrphanDrop
}
