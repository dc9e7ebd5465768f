package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
	"feedback-hub/internal/infra/validate"
)

// SubmitInput is the public submission payload.
type SubmitInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Service owns the feedback lifecycle: submission, listing and moderation.
type Service struct {
	repo        domain.FeedbackRepo
	events      domain.EventPublisher
	validator   *validate.Validator
	log         zerolog.Logger
	maxPageSize int
	now         func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithEvents publishes submission and moderation events.
func WithEvents(p domain.EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMaxPageSize clamps the page limit. Zero disables the clamp.
func WithMaxPageSize(n int) Option {
	return func(s *Service) { s.maxPageSize = n }
}

// WithClock overrides time.Now, used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the feedback service.
func NewService(repo domain.FeedbackRepo, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		validator: validate.New(),
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit stores a new item in pending status.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (domain.Feedback, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Message = strings.TrimSpace(in.Message)
	if err := s.validator.Struct(in); err != nil {
		return domain.Feedback{}, err
	}

	created, err := s.repo.CreateFeedback(ctx, domain.Feedback{
		ID:      uuid.NewString(),
		Name:    in.Name,
		Message: in.Message,
		Status:  domain.StatusPending,
	})
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("store feedback: %w", err)
	}
	metrics.FeedbackSubmitted.Inc()

	s.publish(ctx, domain.Event{
		Kind:       domain.EventFeedbackSubmitted,
		FeedbackID: created.ID,
		Name:       created.Name,
		Message:    created.Message,
		Status:     created.Status,
	})
	return created, nil
}

// List returns one page of pending or approved items. Rejected items are
// never listed.
func (s *Service) List(ctx context.Context, status domain.FeedbackStatus, req domain.PageRequest) (domain.FeedbackPage, error) {
	if !status.Listable() {
		return domain.FeedbackPage{}, domain.ErrInvalidStatus
	}
	req = req.Normalize(s.maxPageSize)
	items, total, err := s.repo.ListFeedback(ctx, status, req)
	if err != nil {
		return domain.FeedbackPage{}, fmt.Errorf("list %s feedback: %w", status, err)
	}
	if items == nil {
		items = []domain.Feedback{}
	}
	return domain.FeedbackPage{
		Results:    items,
		Pagination: domain.NewPagination(req, total),
	}, nil
}

// ListApproved is the public feed.
func (s *Service) ListApproved(ctx context.Context, req domain.PageRequest) (domain.FeedbackPage, error) {
	return s.List(ctx, domain.StatusApproved, req)
}

// ListPending is the moderation queue.
func (s *Service) ListPending(ctx context.Context, req domain.PageRequest) (domain.FeedbackPage, error) {
	return s.List(ctx, domain.StatusPending, req)
}

// GetApproved returns a single public item. Pending and rejected items are
// reported as not found.
func (s *Service) GetApproved(ctx context.Context, id string) (domain.Feedback, error) {
	if err := checkID(id); err != nil {
		return domain.Feedback{}, err
	}
	f, err := s.repo.GetFeedback(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrFeedbackNotFound) {
			return domain.Feedback{}, err
		}
		return domain.Feedback{}, fmt.Errorf("get feedback: %w", err)
	}
	if f.Status != domain.StatusApproved {
		return domain.Feedback{}, domain.ErrFeedbackNotFound
	}
	return f, nil
}

// SetStatus moves an item to approved or rejected. Repeating the call or
// targeting an unknown id is not an error; only a real change is published.
func (s *Service) SetStatus(ctx context.Context, id string, status domain.FeedbackStatus) error {
	if err := checkID(id); err != nil {
		return err
	}
	if !status.IsModeration() {
		return domain.ErrInvalidStatus
	}
	changed, err := s.repo.SetFeedbackStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("set feedback status: %w", err)
	}
	if !changed {
		s.log.Debug().Str("feedback_id", id).Str("status", string(status)).Msg("feedback: status unchanged")
		return nil
	}
	metrics.FeedbackModerated.WithLabelValues(string(status)).Inc()
	s.log.Info().Str("feedback_id", id).Str("status", string(status)).Msg("feedback: moderated")

	s.publish(ctx, domain.Event{
		Kind:       domain.EventFeedbackModerated,
		FeedbackID: id,
		Status:     status,
	})
	return nil
}

// Approve makes an item public.
func (s *Service) Approve(ctx context.Context, id string) error {
	return s.SetStatus(ctx, id, domain.StatusApproved)
}

// Reject hides an item for good.
func (s *Service) Reject(ctx context.Context, id string) error {
	return s.SetStatus(ctx, id, domain.StatusRejected)
}

// CountPending returns the size of the moderation queue.
func (s *Service) CountPending(ctx context.Context) (int, error) {
	n, err := s.repo.CountFeedback(ctx, domain.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}

// publish never fails the caller: the write already happened.
func (s *Service) publish(ctx context.Context, ev domain.Event) {
	if s.events == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.OccurredAt = s.now().UTC()
	err := s.events.Publish(ctx, ev)
	metrics.IncEventPublished(string(ev.Kind), err)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(ev.Kind)).Str("feedback_id", ev.FeedbackID).Msg("feedback: event publish failed")
	}
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidID
	}
	return nil
}
