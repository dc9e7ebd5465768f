package repo

import (
	"fmt"
	"strings"

	"feedback-hub/internal/domain"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// feedbackFilter builds the WHERE clause shared by the page and count queries.
func feedbackFilter(status domain.FeedbackStatus, search string) (string, []any) {
	where := "status = $1"
	args := []any{string(status)}
	if search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (name ILIKE $%d OR message ILIKE $%d)", n, n)
	}
	return where, args
}

// listOrder puts the public feed newest-first and the moderation queue oldest-first.
func listOrder(status domain.FeedbackStatus) string {
	if status == domain.StatusApproved {
		return "DESC"
	}
	return "ASC"
}

func listFeedbackQuery(status domain.FeedbackStatus, req domain.PageRequest) (string, []any) {
	where, args := feedbackFilter(status, req.Search)
	order := listOrder(status)
	args = append(args, req.Limit, req.Offset())
	query := fmt.Sprintf(
		"SELECT id, name, message, status, created_at FROM feedback WHERE %s ORDER BY created_at %s, id %s LIMIT $%d OFFSET $%d",
		where, order, order, len(args)-1, len(args),
	)
	return query, args
}

func countFeedbackQuery(status domain.FeedbackStatus, search string) (string, []any) {
	where, args := feedbackFilter(status, search)
	return "SELECT COUNT(*) FROM feedback WHERE " + where, args
}
