package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
	"feedback-hub/internal/infra/validate"
)

// AddInput is the payload of a new comment.
type AddInput struct {
	FeedbackID      string  `json:"feedbackId" validate:"required,uuid"`
	ParentCommentID *string `json:"parentCommentId,omitempty" validate:"omitempty,uuid"`
	AuthorName      string  `json:"authorName" validate:"required,max=100"`
	Content         string  `json:"content" validate:"required,max=5000"`
}

// Service stores comments and assembles them into threads.
type Service struct {
	repo      domain.CommentRepo
	policy    domain.OrphanPolicy
	validator *validate.Validator
	log       zerolog.Logger
}

// NewService creates the comment service.
func NewService(repo domain.CommentRepo, policy domain.OrphanPolicy, logger zerolog.Logger) *Service {
	if policy == "" {
		policy = domain.OrphanDrop
	}
	return &Service{repo: repo, policy: policy, validator: validate.New(), log: logger}
}

// AddComment stores a comment. The parent, when given, must already exist in
// the same feedback thread.
func (s *Service) AddComment(ctx context.Context, in AddInput) (domain.Comment, error) {
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	in.Content = strings.TrimSpace(in.Content)
	in.FeedbackID = strings.TrimSpace(in.FeedbackID)
	if in.ParentCommentID != nil {
		trimmed := strings.TrimSpace(*in.ParentCommentID)
		if trimmed == "" {
			in.ParentCommentID = nil
		} else {
			in.ParentCommentID = &trimmed
		}
	}
	if err := s.validator.Struct(in); err != nil {
		return domain.Comment{}, err
	}

	if in.ParentCommentID != nil {
		parent, err := s.repo.GetComment(ctx, *in.ParentCommentID)
		if err != nil {
			if errors.Is(err, domain.ErrCommentNotFound) {
				return domain.Comment{}, domain.ErrInvalidParent
			}
			return domain.Comment{}, fmt.Errorf("load parent comment: %w", err)
		}
		if parent.FeedbackID != in.FeedbackID {
			return domain.Comment{}, domain.ErrInvalidParent
		}
	}

	created, err := s.repo.CreateComment(ctx, domain.Comment{
		ID:              uuid.NewString(),
		FeedbackID:      in.FeedbackID,
		ParentCommentID: in.ParentCommentID,
		AuthorName:      in.AuthorName,
		Content:         in.Content,
	})
	if err != nil {
		if errors.Is(err, domain.ErrFeedbackNotFound) {
			return domain.Comment{}, err
		}
		return domain.Comment{}, fmt.Errorf("store comment: %w", err)
	}
	metrics.CommentsCreated.Inc()
	return created, nil
}

// GetThread returns the comment forest of a feedback item. Unknown items
// have an empty thread.
func (s *Service) GetThread(ctx context.Context, feedbackID string) ([]*domain.CommentNode, error) {
	if _, err := uuid.Parse(feedbackID); err != nil {
		return nil, domain.ErrInvalidID
	}
	flat, err := s.repo.ListComments(ctx, feedbackID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	roots, stats := domain.BuildThread(flat, s.policy)
	if stats.Detached > 0 {
		metrics.ThreadDetachedComments.WithLabelValues(string(s.policy)).Add(float64(stats.Detached))
	}
	if stats.Orphans > 0 || stats.Detached > 0 {
		s.log.Warn().
			Str("feedback_id", feedbackID).
			Int("orphans", stats.Orphans).
			Int("detached", stats.Detached).
			Str("policy", string(s.policy)).
			Msg("comments: thread has unreachable comments")
	}
	return roots, nil
}
