package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	EventSessionCreated = "SessionCreated"
	EventAnswersSaved   = "AnswersSaved"
	EventAnswersCleared = "AnswersCleared"
	EventSectionGraded  = "SectionGraded"
)

type Event struct {
	Seq       int64
	SiteID    string
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type EventRepo struct {
	db     *sql.DB
	siteID string
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db, siteID: "local"} }

// Append writes e using tx when given, so the event commits with the change
// it describes.
func (r *EventRepo) Append(ctx context.Context, tx Execer, e Event) error {
	if tx == nil {
		tx = r.db
	}
	site := e.SiteID
	if site == "" {
		site = r.siteID
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		site, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// AppendJSON marshals data into the event payload.
func (r *EventRepo) AppendJSON(ctx context.Context, tx Execer, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return r.Append(ctx, tx, Event{Type: typ, Key: key, DataJSON: string(buf)})
}

// ListByKey returns events for key in append order.
func (r *EventRepo) ListByKey(ctx context.Context, key string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log WHERE key=$1 ORDER BY seq`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
