package pg

import (
	"context"
	"database/sql"
	"errors"

	"schoolyard.org/internal/ids"
	"schoolyard.org/internal/school"
)

const threadColumns = `id, organization_id, subject, created_by, created_at, updated_at`

// CreateThread inserts the thread and all participant rows in one
// transaction so a thread can never exist without its member list.
func (s *Store) CreateThread(ctx context.Context, orgID, subject, createdBy string, participantIDs []string) (school.Thread, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return school.Thread{}, err
	}
	defer tx.Rollback()

	id := ids.New()
	var th school.Thread
	err = tx.QueryRowContext(ctx, `
		insert into threads (id, organization_id, subject, created_by)
		values ($1, $2, $3, $4)
		returning `+threadColumns+`
	`, id, orgID, subject, createdBy).
		Scan(&th.ID, &th.OrganizationID, &th.Subject, &th.CreatedBy, &th.CreatedAt, &th.UpdatedAt)
	if err != nil {
		return school.Thread{}, mapWriteError(err)
	}
	for _, userID := range participantIDs {
		// The creator starts read; everyone else starts unread.
		if _, err := tx.ExecContext(ctx, `
			insert into thread_participants (thread_id, user_id, unread)
			values ($1, $2, $3)
			on conflict (thread_id, user_id) do nothing
		`, th.ID, userID, userID != createdBy); err != nil {
			return school.Thread{}, mapWriteError(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return school.Thread{}, err
	}
	return th, nil
}

func (s *Store) GetThread(ctx context.Context, id string) (school.Thread, error) {
	var th school.Thread
	err := s.db.QueryRowContext(ctx, `
		select `+threadColumns+` from threads where id = $1 and deleted_at is null
	`, id).Scan(&th.ID, &th.OrganizationID, &th.Subject, &th.CreatedBy, &th.CreatedAt, &th.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return school.Thread{}, school.ErrNotFound
	}
	if err != nil {
		return school.Thread{}, err
	}
	return th, nil
}

// ListThreads returns only threads the user participates in, newest
// activity first.
func (s *Store) ListThreads(ctx context.Context, orgID, userID string, p school.Page) ([]school.Thread, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		select count(*)
		from threads t
		join thread_participants tp on tp.thread_id = t.id
		where t.organization_id = $1 and tp.user_id = $2 and t.deleted_at is null
	`, orgID, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+prefixColumns("t", threadColumns)+`
		from threads t
		join thread_participants tp on tp.thread_id = t.id
		where t.organization_id = $1 and tp.user_id = $2 and t.deleted_at is null
		order by t.updated_at desc
		limit $3 offset $4
	`, orgID, userID, p.Size, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []school.Thread
	for rows.Next() {
		var th school.Thread
		if err := rows.Scan(&th.ID, &th.OrganizationID, &th.Subject, &th.CreatedBy, &th.CreatedAt, &th.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, th)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) ListParticipants(ctx context.Context, threadID string) ([]school.ThreadParticipant, error) {
	rows, err := s.db.QueryContext(ctx, `
		select thread_id, user_id, unread
		from thread_participants
		where thread_id = $1
		order by user_id
	`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []school.ThreadParticipant
	for rows.Next() {
		var tp school.ThreadParticipant
		if err := rows.Scan(&tp.ThreadID, &tp.UserID, &tp.Unread); err != nil {
			return nil, err
		}
		result = append(result, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// PostMessage is one transaction: verify the sender participates in a
// live thread, insert the message, flip unread on every other
// participant, bump the thread's updated_at.
func (s *Store) PostMessage(ctx context.Context, threadID, senderID, body string) (school.ThreadMessage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return school.ThreadMessage{}, err
	}
	defer tx.Rollback()

	var member bool
	err = tx.QueryRowContext(ctx, `
		select exists(
			select 1 from thread_participants tp
			join threads t on t.id = tp.thread_id and t.deleted_at is null
			where tp.thread_id = $1 and tp.user_id = $2
		)
	`, threadID, senderID).Scan(&member)
	if err != nil {
		return school.ThreadMessage{}, err
	}
	if !member {
		// Distinguish a dead thread from a live thread the sender is
		// not a member of.
		var live bool
		if err := tx.QueryRowContext(ctx, `
			select exists(select 1 from threads where id = $1 and deleted_at is null)
		`, threadID).Scan(&live); err != nil {
			return school.ThreadMessage{}, err
		}
		if !live {
			return school.ThreadMessage{}, school.ErrNotFound
		}
		return school.ThreadMessage{}, school.ErrForbidden
	}

	id := ids.New()
	var msg school.ThreadMessage
	err = tx.QueryRowContext(ctx, `
		insert into thread_messages (id, thread_id, sender_id, body)
		values ($1, $2, $3, $4)
		returning id, thread_id, sender_id, body, created_at
	`, id, threadID, senderID, body).
		Scan(&msg.ID, &msg.ThreadID, &msg.SenderID, &msg.Body, &msg.CreatedAt)
	if err != nil {
		return school.ThreadMessage{}, mapWriteError(err)
	}
	if _, err := tx.ExecContext(ctx, `
		update thread_participants set unread = true
		where thread_id = $1 and user_id <> $2
	`, threadID, senderID); err != nil {
		return school.ThreadMessage{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		update threads set updated_at = now() where id = $1
	`, threadID); err != nil {
		return school.ThreadMessage{}, err
	}
	if err := tx.Commit(); err != nil {
		return school.ThreadMessage{}, err
	}
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, threadID string, p school.Page) ([]school.ThreadMessage, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		select count(*) from thread_messages where thread_id = $1
	`, threadID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, thread_id, sender_id, body, created_at
		from thread_messages
		where thread_id = $1
		order by created_at
		limit $2 offset $3
	`, threadID, p.Size, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []school.ThreadMessage
	for rows.Next() {
		var msg school.ThreadMessage
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.SenderID, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) MarkThreadRead(ctx context.Context, threadID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		update thread_participants set unread = false
		where thread_id = $1 and user_id = $2
	`, threadID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return school.ErrNotFound
	}
	return nil
}

func (s *Store) SoftDeleteThread(ctx context.Context, id string) error {
	return s.softDelete(ctx, "threads", id)
}
