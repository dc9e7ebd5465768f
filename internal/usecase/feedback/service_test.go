package feedback

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/validate"
)

type stubRepo struct {
	items   map[string]domain.Feedback
	order   []string
	lastReq domain.PageRequest
	failSet error
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: map[string]domain.Feedback{}}
}

func (r *stubRepo) CreateFeedback(ctx context.Context, f domain.Feedback) (domain.Feedback, error) {
	f.CreatedAt = time.Date(2026, 1, 1, 0, 0, len(r.order), 0, time.UTC)
	r.items[f.ID] = f
	r.order = append(r.order, f.ID)
	return f, nil
}

func (r *stubRepo) GetFeedback(ctx context.Context, id string) (domain.Feedback, error) {
	f, ok := r.items[id]
	if !ok {
		return domain.Feedback{}, domain.ErrFeedbackNotFound
	}
	return f, nil
}

func (r *stubRepo) ListFeedback(ctx context.Context, status domain.FeedbackStatus, req domain.PageRequest) ([]domain.Feedback, int, error) {
	r.lastReq = req
	var matched []domain.Feedback
	for _, id := range r.order {
		f := r.items[id]
		if f.Status != status {
			continue
		}
		if req.Search != "" && !strings.Contains(strings.ToLower(f.Name+" "+f.Message), strings.ToLower(req.Search)) {
			continue
		}
		matched = append(matched, f)
	}
	if status == domain.StatusApproved {
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	}
	start := req.Offset()
	if start >= len(matched) {
		return nil, len(matched), nil
	}
	end := start + req.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (r *stubRepo) SetFeedbackStatus(ctx context.Context, id string, status domain.FeedbackStatus) (bool, error) {
	if r.failSet != nil {
		return false, r.failSet
	}
	f, ok := r.items[id]
	if !ok || f.Status == status {
		return false, nil
	}
	f.Status = status
	r.items[id] = f
	return true, nil
}

func (r *stubRepo) CountFeedback(ctx context.Context, status domain.FeedbackStatus) (int, error) {
	n := 0
	for _, f := range r.items {
		if f.Status == status {
			n++
		}
	}
	return n, nil
}

type recordingPublisher struct {
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev domain.Event) error {
	p.events = append(p.events, ev)
	return p.err
}

func submit(t *testing.T, svc *Service, name, message string) domain.Feedback {
	t.Helper()
	f, err := svc.Submit(context.Background(), SubmitInput{Name: name, Message: message})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return f
}

func TestSubmitStoresPendingAndPublishes(t *testing.T) {
	repo := newStubRepo()
	pub := &recordingPublisher{}
	svc := NewService(repo, WithEvents(pub))

	f := submit(t, svc, "  Ann ", " Great app\n")
	if f.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", f.Status)
	}
	if f.Name != "Ann" || f.Message != "Great app" {
		t.Fatalf("expected trimmed values, got %q %q", f.Name, f.Message)
	}
	if _, err := uuid.Parse(f.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", f.ID)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != domain.EventFeedbackSubmitted || pub.events[0].FeedbackID != f.ID {
		t.Fatalf("unexpected events %+v", pub.events)
	}
	if pub.events[0].ID == "" || pub.events[0].OccurredAt.IsZero() {
		t.Fatalf("event must carry id and timestamp: %+v", pub.events[0])
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name      string
		in        SubmitInput
		wantField string
	}{
		{name: "empty name", in: SubmitInput{Name: "", Message: "hi"}, wantField: "name"},
		{name: "blank message", in: SubmitInput{Name: "Ann", Message: "   "}, wantField: "message"},
		{name: "name too long", in: SubmitInput{Name: strings.Repeat("a", 101), Message: "hi"}, wantField: "name"},
		{name: "message too long", in: SubmitInput{Name: "Ann", Message: strings.Repeat("m", 5001)}, wantField: "message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo()
			svc := NewService(repo)
			_, err := svc.Submit(context.Background(), tt.in)
			verr, ok := validate.AsError(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Fields[0].Field != tt.wantField {
				t.Fatalf("expected field %s, got %+v", tt.wantField, verr.Fields)
			}
			if len(repo.items) != 0 {
				t.Fatal("invalid input must not be stored")
			}
		})
	}
}

func TestSubmitIgnoresPublishFailure(t *testing.T) {
	svc := NewService(newStubRepo(), WithEvents(&recordingPublisher{err: errors.New("broker down")}))
	if _, err := svc.Submit(context.Background(), SubmitInput{Name: "Ann", Message: "hi"}); err != nil {
		t.Fatalf("publish failure must not fail submit: %v", err)
	}
}

func TestApproveMovesItemToPublicFeed(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	ctx := context.Background()

	f := submit(t, svc, "Ann", "Great app")

	page, err := svc.ListApproved(ctx, domain.PageRequest{})
	if err != nil {
		t.Fatalf("list approved: %v", err)
	}
	if len(page.Results) != 0 || page.Pagination.Total != 0 {
		t.Fatalf("pending item must not be public: %+v", page)
	}
	if page.Results == nil {
		t.Fatal("results must be an empty slice, not nil")
	}

	if err := svc.Approve(ctx, f.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	page, err = svc.ListApproved(ctx, domain.PageRequest{})
	if err != nil {
		t.Fatalf("list approved: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].ID != f.ID {
		t.Fatalf("approved item missing from feed: %+v", page)
	}
	if page.Pagination != (domain.Pagination{Page: 1, Limit: 10, Total: 1, TotalPages: 1}) {
		t.Fatalf("unexpected pagination %+v", page.Pagination)
	}
}

func TestRejectHidesItemEverywhere(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	ctx := context.Background()

	f := submit(t, svc, "Ann", "spam")
	if err := svc.Reject(ctx, f.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	pending, _ := svc.ListPending(ctx, domain.PageRequest{})
	approved, _ := svc.ListApproved(ctx, domain.PageRequest{})
	if pending.Pagination.Total != 0 || approved.Pagination.Total != 0 {
		t.Fatalf("rejected item must not be listed: pending=%+v approved=%+v", pending, approved)
	}
	if _, err := svc.GetApproved(ctx, f.ID); !errors.Is(err, domain.ErrFeedbackNotFound) {
		t.Fatalf("expected not found for rejected item, got %v", err)
	}
}

func TestSetStatusIsIdempotentAndTolerant(t *testing.T) {
	repo := newStubRepo()
	pub := &recordingPublisher{}
	svc := NewService(repo, WithEvents(pub))
	ctx := context.Background()

	f := submit(t, svc, "Ann", "hi")
	for i := 0; i < 2; i++ {
		if err := svc.Approve(ctx, f.ID); err != nil {
			t.Fatalf("approve #%d: %v", i, err)
		}
	}
	if repo.items[f.ID].Status != domain.StatusApproved {
		t.Fatalf("expected approved, got %s", repo.items[f.ID].Status)
	}
	if err := svc.Reject(ctx, uuid.NewString()); err != nil {
		t.Fatalf("unknown id must be a no-op, got %v", err)
	}
	// submitted + a single moderated event
	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %+v", pub.events)
	}
	last := pub.events[1]
	if last.Kind != domain.EventFeedbackModerated || last.Status != domain.StatusApproved || last.FeedbackID != f.ID {
		t.Fatalf("unexpected moderation event %+v", last)
	}

	if err := svc.Reject(ctx, f.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if len(pub.events) != 3 || pub.events[2].Status != domain.StatusRejected {
		t.Fatalf("a real change must be published: %+v", pub.events)
	}
}

func TestSetStatusRejectsBadInput(t *testing.T) {
	svc := NewService(newStubRepo())
	ctx := context.Background()

	if err := svc.Approve(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if err := svc.SetStatus(ctx, uuid.NewString(), domain.StatusPending); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestSetStatusWrapsRepoError(t *testing.T) {
	repo := newStubRepo()
	repo.failSet = errors.New("db down")
	svc := NewService(repo)
	err := svc.Approve(context.Background(), uuid.NewString())
	if err == nil || !errors.Is(err, repo.failSet) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}

func TestListPaginationAndSearch(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, WithMaxPageSize(2))
	ctx := context.Background()

	for _, msg := range []string{"slow login", "nice colors", "Slow search", "crash on start", "slow sync"} {
		f := submit(t, svc, "user", msg)
		if err := svc.Approve(ctx, f.ID); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}

	page, err := svc.ListApproved(ctx, domain.PageRequest{Page: 2, Limit: 50, Search: "slow"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastReq.Limit != 2 {
		t.Fatalf("limit must be clamped to 2, got %d", repo.lastReq.Limit)
	}
	if page.Pagination != (domain.Pagination{Page: 2, Limit: 2, Total: 3, TotalPages: 2}) {
		t.Fatalf("unexpected pagination %+v", page.Pagination)
	}
	if len(page.Results) != 1 || page.Results[0].Message != "slow login" {
		t.Fatalf("expected oldest match on last page, got %+v", page.Results)
	}

	beyond, err := svc.ListApproved(ctx, domain.PageRequest{Page: 9, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(beyond.Results) != 0 || beyond.Pagination.Total != 5 || beyond.Pagination.TotalPages != 3 {
		t.Fatalf("page past the end must be empty with real totals: %+v", beyond)
	}
}

func TestListRejectsRejectedStatus(t *testing.T) {
	svc := NewService(newStubRepo())
	if _, err := svc.List(context.Background(), domain.StatusRejected, domain.PageRequest{}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestGetApproved(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	ctx := context.Background()

	f := submit(t, svc, "Ann", "hi")
	if _, err := svc.GetApproved(ctx, f.ID); !errors.Is(err, domain.ErrFeedbackNotFound) {
		t.Fatalf("pending item must look missing, got %v", err)
	}
	_ = svc.Approve(ctx, f.ID)
	got, err := svc.GetApproved(ctx, f.ID)
	if err != nil || got.ID != f.ID {
		t.Fatalf("expected approved item, got %+v %v", got, err)
	}
	if _, err := svc.GetApproved(ctx, "bad"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestCountPending(t *testing.T) {
	svc := NewService(newStubRepo())
	submit(t, svc, "a", "1")
	submit(t, svc, "b", "2")
	n, err := svc.CountPending(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("expected 2 pending, got %d %v", n, err)
	}
}
