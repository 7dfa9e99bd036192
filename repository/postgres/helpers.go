package postgres

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// where accumulates AND-ed predicates with positional arguments.
// Each expression uses %[1]d for its own placeholder.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(expr string, value interface{}) {
	w.args = append(w.args, value)
	w.conds = append(w.conds, fmt.Sprintf(expr, len(w.args)))
}

func (w *where) raw(expr string) {
	w.conds = append(w.conds, expr)
}

func (w *where) next(value interface{}) string {
	w.args = append(w.args, value)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return "TRUE"
	}
	return strings.Join(w.conds, " AND ")
}

func (w *where) guard(g repository.Guard) {
	if len(g.Statuses) > 0 {
		w.add("d.status = ANY($%[1]d)", repository.StatusStrings(g.Statuses))
	}
	if g.DonorID != "" {
		w.add("d.donor_id = $%[1]d", g.DonorID)
	}
	if g.AgentID != "" {
		w.add("d.agent_id = $%[1]d", g.AgentID)
	}
	if g.PartyID != "" {
		w.add("(d.donor_id = $%[1]d OR d.agent_id = $%[1]d)", g.PartyID)
	}
	if g.FeedbackOpen {
		w.raw("NOT d.feedback_given")
	}
	if g.RatingOpen {
		w.raw("NOT d.donor_rated")
	}
}

func (w *where) filter(f repository.DonationFilter) {
	w.guard(repository.Guard{Statuses: f.Statuses, DonorID: f.DonorID, AgentID: f.AgentID})
}

// mapWriteError translates constraint violations into domain errors.
func mapWriteError(err error, what string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return domain.WrapError(domain.ErrCodeConflict, what+" already exists", err)
	case pgForeignKeyViolation:
		return domain.WrapError(domain.ErrCodeNotFound, "user not found", err)
	}
	return err
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

type scanner interface {
	Scan(dest ...interface{}) error
}
