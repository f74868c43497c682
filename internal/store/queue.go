package store

import (
	"context"
	"time"

	"git.home.luguber.info/inful/lorasensor/internal/exchange"
	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/messages"
)

// Queue is the persisted exchange queue backed by the message_queue table.
type Queue struct {
	s *SQLiteStore
}

var _ exchange.Queue = (*Queue)(nil)

// Queue returns the message queue view of the store.
func (s *SQLiteStore) Queue() *Queue {
	return &Queue{s: s}
}

func (q *Queue) Push(ctx context.Context, msg messages.Message) error {
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	_, err = q.s.db.ExecContext(ctx,
		"INSERT INTO message_queue (msg_type, subtype, payload, created) VALUES (?, ?, ?, ?)",
		msg.Type, msg.Subtype, payload, time.Now().Unix(),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "insert message").Build()
	}
	return nil
}

func (q *Queue) Pending(ctx context.Context, limit int) ([]exchange.Entry, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()

	query := "SELECT id, payload, attempts FROM message_queue ORDER BY id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := q.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "query message queue").Build()
	}
	defer rows.Close()

	var out []exchange.Entry
	for rows.Next() {
		var (
			e       exchange.Entry
			payload []byte
		)
		if err := rows.Scan(&e.ID, &payload, &e.Attempts); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "scan message").Build()
		}
		msg, err := messages.Decode(payload)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "decode queued message").
				WithContext("id", e.ID).
				Build()
		}
		e.Msg = msg
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "iterate message queue").Build()
	}
	return out, nil
}

func (q *Queue) Remove(ctx context.Context, id int64) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if _, err := q.s.db.ExecContext(ctx, "DELETE FROM message_queue WHERE id = ?", id); err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "delete message").WithContext("id", id).Build()
	}
	return nil
}

func (q *Queue) MarkFailed(ctx context.Context, id int64) (int, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if _, err := q.s.db.ExecContext(ctx, "UPDATE message_queue SET attempts = attempts + 1 WHERE id = ?", id); err != nil {
		return 0, errors.WrapError(err, errors.CategoryStorage, "update message attempts").WithContext("id", id).Build()
	}
	var attempts int
	err := q.s.db.QueryRowContext(ctx, "SELECT attempts FROM message_queue WHERE id = ?", id).Scan(&attempts)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryStorage, "read message attempts").WithContext("id", id).Build()
	}
	return attempts, nil
}

func (q *Queue) Len(ctx context.Context) (int, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	var n int
	if err := q.s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM message_queue").Scan(&n); err != nil {
		return 0, errors.WrapError(err, errors.CategoryStorage, "count messages").Build()
	}
	return n, nil
}
