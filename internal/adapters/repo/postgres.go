package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
)

const (
	queryTimeout = 5 * time.Second

	pgForeignKeyViolation = "23503"
)

// Postgres implements the repositories on top of pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.FeedbackRepo = (*Postgres)(nil)
	_ domain.CommentRepo  = (*Postgres)(nil)
)

// NewPostgres creates the adapter.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), queryTimeout)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, queryTimeout)
}

// CreateFeedback inserts a submission and fills CreatedAt from the database.
func (p *Postgres) CreateFeedback(ctx context.Context, f domain.Feedback) (domain.Feedback, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO feedback (id, name, message, status)
VALUES ($1, $2, $3, $4)
RETURNING created_at
`, f.ID, f.Name, f.Message, string(f.Status)).Scan(&f.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "feedback_insert", "feedback", start, err)
	if err != nil {
		return domain.Feedback{}, err
	}
	return f, nil
}

// GetFeedback returns domain.ErrFeedbackNotFound for unknown ids.
func (p *Postgres) GetFeedback(ctx context.Context, id string) (domain.Feedback, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT id, name, message, status, created_at
FROM feedback
WHERE id = $1
`, id)
	f, err := scanFeedback(row)
	metrics.ObserveNetworkRequest("postgres", "feedback_get", "feedback", start, ignoreNoRows(err))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Feedback{}, domain.ErrFeedbackNotFound
		}
		return domain.Feedback{}, err
	}
	return f, nil
}

// ListFeedback reads the page and the total inside one read-only snapshot
// so the count always matches the rows it accompanies.
func (p *Postgres) ListFeedback(ctx context.Context, status domain.FeedbackStatus, req domain.PageRequest) ([]domain.Feedback, int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "feedback", start, err)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query, args := listFeedbackQuery(status, req)
	start = time.Now()
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		metrics.ObserveNetworkRequest("postgres", "feedback_list", "feedback", start, err)
		return nil, 0, err
	}
	items := make([]domain.Feedback, 0, req.Limit)
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		items = append(items, f)
	}
	rows.Close()
	err = rows.Err()
	metrics.ObserveNetworkRequest("postgres", "feedback_list", "feedback", start, err)
	if err != nil {
		return nil, 0, err
	}

	countQuery, countArgs := countFeedbackQuery(status, req.Search)
	var total int
	start = time.Now()
	err = tx.QueryRow(ctx, countQuery, countArgs...).Scan(&total)
	metrics.ObserveNetworkRequest("postgres", "feedback_count", "feedback", start, err)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SetFeedbackStatus overwrites the status. Unknown ids and rows already in
// that status are a no-op and report false.
func (p *Postgres) SetFeedbackStatus(ctx context.Context, id string, status domain.FeedbackStatus) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `UPDATE feedback SET status = $1 WHERE id = $2 AND status <> $1`, string(status), id)
	metrics.ObserveNetworkRequest("postgres", "feedback_set_status", "feedback", start, err)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountFeedback returns the number of rows with the given status.
func (p *Postgres) CountFeedback(ctx context.Context, status domain.FeedbackStatus) (int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	query, args := countFeedbackQuery(status, "")
	var total int
	start := time.Now()
	err := p.pool.QueryRow(ctx, query, args...).Scan(&total)
	metrics.ObserveNetworkRequest("postgres", "feedback_count", "feedback", start, err)
	return total, err
}

// CreateComment inserts a comment. A feedback_id without a feedback row
// yields domain.ErrFeedbackNotFound.
func (p *Postgres) CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO comments (id, feedback_id, parent_comment_id, author_name, content)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at
`, c.ID, c.FeedbackID, c.ParentCommentID, c.AuthorName, c.Content).Scan(&c.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "comments_insert", "comments", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return domain.Comment{}, domain.ErrFeedbackNotFound
		}
		return domain.Comment{}, err
	}
	return c, nil
}

// GetComment returns domain.ErrCommentNotFound for unknown ids.
func (p *Postgres) GetComment(ctx context.Context, id string) (domain.Comment, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT id, feedback_id, parent_comment_id, author_name, content, created_at
FROM comments
WHERE id = $1
`, id)
	c, err := scanComment(row)
	metrics.ObserveNetworkRequest("postgres", "comments_get", "comments", start, ignoreNoRows(err))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Comment{}, domain.ErrCommentNotFound
		}
		return domain.Comment{}, err
	}
	return c, nil
}

// ListComments returns the whole thread in chronological order.
func (p *Postgres) ListComments(ctx context.Context, feedbackID string) ([]domain.Comment, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, feedback_id, parent_comment_id, author_name, content, created_at
FROM comments
WHERE feedback_id = $1
ORDER BY created_at ASC, id ASC
`, feedbackID)
	if err != nil {
		metrics.ObserveNetworkRequest("postgres", "comments_list", "comments", start, err)
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	err = rows.Err()
	metrics.ObserveNetworkRequest("postgres", "comments_list", "comments", start, err)
	if err != nil {
		return nil, fmt.Errorf("read comments: %w", err)
	}
	return comments, nil
}

func scanFeedback(row pgx.Row) (domain.Feedback, error) {
	var (
		f      domain.Feedback
		status string
	)
	if err := row.Scan(&f.ID, &f.Name, &f.Message, &status, &f.CreatedAt); err != nil {
		return domain.Feedback{}, err
	}
	f.Status = domain.FeedbackStatus(status)
	return f, nil
}

func scanComment(row pgx.Row) (domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(&c.ID, &c.FeedbackID, &c.ParentCommentID, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
		return domain.Comment{}, err
	}
	return c, nil
}

func ignoreNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}
