package comments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/validate"
)

type stubRepo struct {
	feedback map[string]bool
	comments []domain.Comment
	listErr  error
}

func newStubRepo(feedbackIDs ...string) *stubRepo {
	r := &stubRepo{feedback: map[string]bool{}}
	for _, id := range feedbackIDs {
		r.feedback[id] = true
	}
	return r
}

func (r *stubRepo) CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	if !r.feedback[c.FeedbackID] {
		return domain.Comment{}, domain.ErrFeedbackNotFound
	}
	c.CreatedAt = time.Date(2026, 1, 1, 0, 0, len(r.comments), 0, time.UTC)
	r.comments = append(r.comments, c)
	return c, nil
}

func (r *stubRepo) GetComment(ctx context.Context, id string) (domain.Comment, error) {
	for _, c := range r.comments {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Comment{}, domain.ErrCommentNotFound
}

func (r *stubRepo) ListComments(ctx context.Context, feedbackID string) ([]domain.Comment, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Comment
	for _, c := range r.comments {
		if c.FeedbackID == feedbackID {
			out = append(out, c)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func TestAddCommentAndThread(t *testing.T) {
	fid := uuid.NewString()
	repo := newStubRepo(fid)
	svc := NewService(repo, domain.OrphanDrop, zerolog.Nop())
	ctx := context.Background()

	add := func(author string, parent *string) domain.Comment {
		t.Helper()
		c, err := svc.AddComment(ctx, AddInput{FeedbackID: fid, AuthorName: author, Content: "text by " + author, ParentCommentID: parent})
		if err != nil {
			t.Fatalf("add %s: %v", author, err)
		}
		return c
	}

	a := add("A", nil)
	b := add("B", strPtr(a.ID))
	add("C", strPtr(b.ID))
	add("D", nil)

	roots, err := svc.GetThread(ctx, fid)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(roots) != 2 || roots[0].AuthorName != "A" || roots[1].AuthorName != "D" {
		t.Fatalf("unexpected roots %+v", roots)
	}
	if len(roots[0].Replies) != 1 || roots[0].Replies[0].AuthorName != "B" {
		t.Fatalf("A must have reply B, got %+v", roots[0].Replies)
	}
	if len(roots[0].Replies[0].Replies) != 1 || roots[0].Replies[0].Replies[0].AuthorName != "C" {
		t.Fatalf("B must have reply C")
	}
	if len(roots[1].Replies) != 0 {
		t.Fatalf("D must have no replies")
	}
}

func TestAddCommentTrimsAndTreatsBlankParentAsRoot(t *testing.T) {
	fid := uuid.NewString()
	svc := NewService(newStubRepo(fid), "", zerolog.Nop())
	c, err := svc.AddComment(context.Background(), AddInput{
		FeedbackID:      fid,
		AuthorName:      "  Bob ",
		Content:         " hello ",
		ParentCommentID: strPtr("  "),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.AuthorName != "Bob" || c.Content != "hello" || c.ParentCommentID != nil {
		t.Fatalf("unexpected comment %+v", c)
	}
}

func TestAddCommentErrors(t *testing.T) {
	fid := uuid.NewString()
	otherFid := uuid.NewString()
	repo := newStubRepo(fid, otherFid)
	svc := NewService(repo, domain.OrphanDrop, zerolog.Nop())
	ctx := context.Background()

	foreign, err := svc.AddComment(ctx, AddInput{FeedbackID: otherFid, AuthorName: "X", Content: "elsewhere"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	tests := []struct {
		name    string
		in      AddInput
		wantErr error
	}{
		{
			name:    "unknown parent",
			in:      AddInput{FeedbackID: fid, AuthorName: "A", Content: "c", ParentCommentID: strPtr(uuid.NewString())},
			wantErr: domain.ErrInvalidParent,
		},
		{
			name:    "parent from another thread",
			in:      AddInput{FeedbackID: fid, AuthorName: "A", Content: "c", ParentCommentID: strPtr(foreign.ID)},
			wantErr: domain.ErrInvalidParent,
		},
		{
			name:    "unknown feedback",
			in:      AddInput{FeedbackID: uuid.NewString(), AuthorName: "A", Content: "c"},
			wantErr: domain.ErrFeedbackNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddComment(ctx, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAddCommentValidation(t *testing.T) {
	fid := uuid.NewString()
	svc := NewService(newStubRepo(fid), domain.OrphanDrop, zerolog.Nop())
	tests := []struct {
		name      string
		in        AddInput
		wantField string
	}{
		{name: "bad feedback id", in: AddInput{FeedbackID: "x", AuthorName: "A", Content: "c"}, wantField: "feedbackId"},
		{name: "bad parent id", in: AddInput{FeedbackID: fid, AuthorName: "A", Content: "c", ParentCommentID: strPtr("nope")}, wantField: "parentCommentId"},
		{name: "missing author", in: AddInput{FeedbackID: fid, Content: "c"}, wantField: "authorName"},
		{name: "content too long", in: AddInput{FeedbackID: fid, AuthorName: "A", Content: strings.Repeat("x", 5001)}, wantField: "content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddComment(context.Background(), tt.in)
			verr, ok := validate.AsError(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Fields[0].Field != tt.wantField {
				t.Fatalf("expected field %s, got %+v", tt.wantField, verr.Fields)
			}
		})
	}
}

func TestGetThreadOrphanPolicy(t *testing.T) {
	fid := uuid.NewString()
	seed := func() *stubRepo {
		repo := newStubRepo(fid)
		repo.comments = []domain.Comment{
			{ID: "r", FeedbackID: fid, AuthorName: "root"},
			{ID: "o", FeedbackID: fid, AuthorName: "orphan", ParentCommentID: strPtr("gone")},
			{ID: "oc", FeedbackID: fid, AuthorName: "orphan child", ParentCommentID: strPtr("o")},
		}
		return repo
	}

	dropped, err := NewService(seed(), domain.OrphanDrop, zerolog.Nop()).GetThread(context.Background(), fid)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(dropped) != 1 || dropped[0].ID != "r" || len(dropped[0].Replies) != 0 {
		t.Fatalf("drop policy must keep only the root, got %+v", dropped)
	}

	promoted, err := NewService(seed(), domain.OrphanPromote, zerolog.Nop()).GetThread(context.Background(), fid)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(promoted) != 2 || promoted[1].ID != "o" || len(promoted[1].Replies) != 1 {
		t.Fatalf("promote policy must surface the orphan subtree, got %+v", promoted)
	}
}

func TestGetThreadEmptyAndErrors(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, domain.OrphanDrop, zerolog.Nop())
	ctx := context.Background()

	roots, err := svc.GetThread(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if roots == nil || len(roots) != 0 {
		t.Fatalf("expected empty non-nil forest, got %#v", roots)
	}
	if _, err := svc.GetThread(ctx, "bad"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	repo.listErr = errors.New("db down")
	if _, err := svc.GetThread(ctx, uuid.NewString()); !errors.Is(err, repo.listErr) {
		t.Fatalf("expected wrapped list error, got %v", err)
	}
}
