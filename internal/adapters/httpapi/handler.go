package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
	apphttp "feedback-hub/internal/infra/http"
	"feedback-hub/internal/infra/validate"
	"feedback-hub/internal/usecase/comments"
	"feedback-hub/internal/usecase/feedback"
)

const maxBodyBytes = 64 << 10

// FeedbackService is the part of feedback.Service used by the API.
type FeedbackService interface {
	Submit(ctx context.Context, in feedback.SubmitInput) (domain.Feedback, error)
	ListApproved(ctx context.Context, req domain.PageRequest) (domain.FeedbackPage, error)
	ListPending(ctx context.Context, req domain.PageRequest) (domain.FeedbackPage, error)
	GetApproved(ctx context.Context, id string) (domain.Feedback, error)
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
}

// CommentService is the part of comments.Service used by the API.
type CommentService interface {
	AddComment(ctx context.Context, in comments.AddInput) (domain.Comment, error)
	GetThread(ctx context.Context, feedbackID string) ([]*domain.CommentNode, error)
}

// Handler serves the public and admin REST API.
type Handler struct {
	feedback    FeedbackService
	comments    CommentService
	log         zerolog.Logger
	adminKey    string
	admission   domain.Admission
	maxPageSize int
	now         func() time.Time
}

// Option configures Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// WithAdminKey sets the shared secret for /admin routes.
func WithAdminKey(key string) Option {
	return func(h *Handler) { h.adminKey = key }
}

// WithAdmission enables per-client rate limiting of API routes.
func WithAdmission(a domain.Admission) Option {
	return func(h *Handler) { h.admission = a }
}

// WithMaxPageSize clamps the limit query parameter.
func WithMaxPageSize(n int) Option {
	return func(h *Handler) { h.maxPageSize = n }
}

// New creates the API handler.
func New(fb FeedbackService, cm CommentService, opts ...Option) *Handler {
	h := &Handler{feedback: fb, comments: cm, log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mount registers every route on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/health", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(apphttp.AdmissionMiddleware(h.admission, h.log))

		r.Route("/feedback", func(r chi.Router) {
			r.Post("/", h.handleSubmitFeedback)
			r.Get("/", h.handleListApproved)
			r.Get("/{id}", h.handleGetFeedback)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Post("/", h.handleAddComment)
			r.Get("/{feedbackID}", h.handleGetThread)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(apphttp.AdminKeyMiddleware(h.adminKey))
			r.Get("/feedback/pending", h.handleListPending)
			r.Patch("/feedback/{id}/approve", h.handleApprove)
			r.Patch("/feedback/{id}/reject", h.handleReject)
		})
	})
}

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type listResponse struct {
	Success bool `json:"success"`
	domain.FeedbackPage
}

type submitResponse struct {
	ID     string                `json:"id"`
	Status domain.FeedbackStatus `json:"status"`
}

type commentCreatedResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	apphttp.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedback.SubmitInput
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := h.feedback.Submit(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusCreated, successResponse{
		Success: true,
		Data:    submitResponse{ID: created.ID, Status: created.Status},
	})
}

func (h *Handler) handleListApproved(w http.ResponseWriter, r *http.Request) {
	page, err := h.feedback.ListApproved(r.Context(), h.pageRequest(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, listResponse{Success: true, FeedbackPage: page})
}

func (h *Handler) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	item, err := h.feedback.GetApproved(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, successResponse{Success: true, Data: item})
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	page, err := h.feedback.ListPending(r.Context(), h.pageRequest(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, listResponse{Success: true, FeedbackPage: page})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	if err := h.feedback.Approve(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	if err := h.feedback.Reject(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req comments.AddInput
	if !decodeBody(w, r, &req) {
		return
	}
	created, err := h.comments.AddComment(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusCreated, successResponse{
		Success: true,
		Data:    commentCreatedResponse{ID: created.ID, CreatedAt: created.CreatedAt},
	})
}

func (h *Handler) handleGetThread(w http.ResponseWriter, r *http.Request) {
	roots, err := h.comments.GetThread(r.Context(), chi.URLParam(r, "feedbackID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if roots == nil {
		roots = []*domain.CommentNode{}
	}
	apphttp.WriteJSON(w, http.StatusOK, successResponse{Success: true, Data: roots})
}

func (h *Handler) pageRequest(r *http.Request) domain.PageRequest {
	q := r.URL.Query()
	return domain.ParsePageRequest(q.Get("page"), q.Get("limit"), q.Get("search"), h.maxPageSize)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		apphttp.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if verr, ok := validate.AsError(err); ok {
		apphttp.WriteValidationError(w, verr)
		return
	}
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		apphttp.WriteError(w, http.StatusBadRequest, "invalid_id", "invalid id")
	case errors.Is(err, domain.ErrInvalidStatus):
		apphttp.WriteError(w, http.StatusBadRequest, "invalid_status", "invalid status")
	case errors.Is(err, domain.ErrInvalidParent):
		apphttp.WriteError(w, http.StatusBadRequest, "invalid_parent", "parent comment not found in this thread")
	case errors.Is(err, domain.ErrFeedbackNotFound):
		apphttp.WriteError(w, http.StatusNotFound, "feedback_not_found", "feedback not found")
	default:
		h.log.Error().Err(err).
			Str("route", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("api: request failed")
		apphttp.WriteError(w, http.StatusInternalServerError, "internal_error", "request failed")
	}
}
