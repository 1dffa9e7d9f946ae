package school

import (
	"context"
	"errors"
	"strings"

	"schoolyard.org/internal/ids"
)

// MessagingService validates thread operations. Participant membership is
// enforced inside the store transaction so the check and the write cannot
// drift apart.
type MessagingService struct {
	store MessagingStore
}

func NewMessagingService(store MessagingStore) (*MessagingService, error) {
	if store == nil {
		return nil, errors.New("messaging store is required")
	}
	return &MessagingService{store: store}, nil
}

type CreateThreadInput struct {
	OrganizationID string
	Subject        string
	CreatedBy      string
	ParticipantIDs []string
}

func (s *MessagingService) CreateThread(ctx context.Context, in CreateThreadInput) (Thread, error) {
	var fields []FieldError
	in.Subject = strings.TrimSpace(in.Subject)
	if in.Subject == "" {
		fields = append(fields, FieldError{Field: "subject", Message: "is required"})
	}
	participants := dedupeIDs(append(in.ParticipantIDs, in.CreatedBy))
	if len(participants) < 2 {
		fields = append(fields, FieldError{Field: "participant_ids", Message: "at least one other participant is required"})
	}
	for _, id := range participants {
		if !ids.Valid(id) {
			fields = append(fields, FieldError{Field: "participant_ids", Message: "contains a malformed identifier"})
			break
		}
	}
	if len(fields) > 0 {
		return Thread{}, &ValidationError{Fields: fields}
	}
	return s.store.CreateThread(ctx, in.OrganizationID, in.Subject, in.CreatedBy, participants)
}

func (s *MessagingService) GetThread(ctx context.Context, id string) (Thread, error) {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Thread{}, Invalid("id", "must be a valid identifier")
	}
	return s.store.GetThread(ctx, strings.TrimSpace(id))
}

func (s *MessagingService) ListThreads(ctx context.Context, orgID, userID string, p Page) ([]Thread, int, error) {
	return s.store.ListThreads(ctx, orgID, userID, p)
}

func (s *MessagingService) ListParticipants(ctx context.Context, threadID string) ([]ThreadParticipant, error) {
	if !ids.Valid(strings.TrimSpace(threadID)) {
		return nil, Invalid("id", "must be a valid identifier")
	}
	return s.store.ListParticipants(ctx, strings.TrimSpace(threadID))
}

// Post inserts a message. The store flips unread=true for every OTHER
// participant and bumps the thread's updated_at in the same transaction.
func (s *MessagingService) Post(ctx context.Context, threadID, senderID, body string) (ThreadMessage, error) {
	threadID = strings.TrimSpace(threadID)
	if !ids.Valid(threadID) {
		return ThreadMessage{}, Invalid("id", "must be a valid identifier")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return ThreadMessage{}, Invalid("body", "is required")
	}
	if len(body) > MaxMessageBody {
		return ThreadMessage{}, Invalid("body", "exceeds the length bound")
	}
	return s.store.PostMessage(ctx, threadID, senderID, body)
}

func (s *MessagingService) ListMessages(ctx context.Context, threadID string, p Page) ([]ThreadMessage, int, error) {
	if !ids.Valid(strings.TrimSpace(threadID)) {
		return nil, 0, Invalid("id", "must be a valid identifier")
	}
	return s.store.ListMessages(ctx, strings.TrimSpace(threadID), p)
}

func (s *MessagingService) MarkRead(ctx context.Context, threadID, userID string) error {
	if !ids.Valid(strings.TrimSpace(threadID)) {
		return Invalid("id", "must be a valid identifier")
	}
	return s.store.MarkThreadRead(ctx, strings.TrimSpace(threadID), userID)
}

func (s *MessagingService) DeleteThread(ctx context.Context, id string) error {
	if !ids.Valid(strings.TrimSpace(id)) {
		return Invalid("id", "must be a valid identifier")
	}
	return s.store.SoftDeleteThread(ctx, strings.TrimSpace(id))
}

func dedupeIDs(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
