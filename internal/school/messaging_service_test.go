package school

import (
	"context"
	"errors"
	"testing"

	"schoolyard.org/internal/ids"
)

func newMessaging(t *testing.T) (*MessagingService, string) {
	t.Helper()
	store := NewInMemory()
	svc, err := NewMessagingService(store)
	if err != nil {
		t.Fatalf("new messaging service: %v", err)
	}
	org, err := store.CreateOrganization(context.Background(), Organization{
		Name: "Test School", Slug: "test-school", Timezone: "UTC", Active: true,
	})
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	return svc, org.ID
}

func TestCreateThreadValidation(t *testing.T) {
	svc, orgID := newMessaging(t)
	ctx := context.Background()
	creator := ids.New()

	// A thread with only the creator has no one to talk to.
	if _, err := svc.CreateThread(ctx, CreateThreadInput{
		OrganizationID: orgID,
		Subject:        "solo",
		CreatedBy:      creator,
		ParticipantIDs: []string{creator},
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("creator-only thread: got %v", err)
	}

	if _, err := svc.CreateThread(ctx, CreateThreadInput{
		OrganizationID: orgID,
		Subject:        "",
		CreatedBy:      creator,
		ParticipantIDs: []string{ids.New()},
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank subject: got %v", err)
	}

	if _, err := svc.CreateThread(ctx, CreateThreadInput{
		OrganizationID: orgID,
		Subject:        "bad member",
		CreatedBy:      creator,
		ParticipantIDs: []string{"not-an-id"},
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("malformed participant id: got %v", err)
	}
}

func TestCreateThreadAlwaysIncludesCreator(t *testing.T) {
	svc, orgID := newMessaging(t)
	ctx := context.Background()
	creator := ids.New()
	other := ids.New()

	thread, err := svc.CreateThread(ctx, CreateThreadInput{
		OrganizationID: orgID,
		Subject:        "pickup times",
		CreatedBy:      creator,
		ParticipantIDs: []string{other, other},
	})
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	participants, err := svc.ListParticipants(ctx, thread.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(participants) != 2 {
		t.Fatalf("participants = %d, want 2 (deduped, creator included)", len(participants))
	}
	for _, p := range participants {
		switch p.UserID {
		case creator:
			if p.Unread {
				t.Fatal("creator must start read")
			}
		case other:
			if !p.Unread {
				t.Fatal("other participants start unread")
			}
		default:
			t.Fatalf("unexpected participant %s", p.UserID)
		}
	}
}

func TestPostValidatesBody(t *testing.T) {
	svc, orgID := newMessaging(t)
	ctx := context.Background()
	creator := ids.New()
	thread, err := svc.CreateThread(ctx, CreateThreadInput{
		OrganizationID: orgID,
		Subject:        "limits",
		CreatedBy:      creator,
		ParticipantIDs: []string{ids.New()},
	})
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}

	if _, err := svc.Post(ctx, thread.ID, creator, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank body: got %v", err)
	}
	long := make([]byte, MaxMessageBody+1)
	for i := range long {
		long[i] = 'x'
	}
	if _, err := svc.Post(ctx, thread.ID, creator, string(long)); !errors.Is(err, ErrValidation) {
		t.Fatalf("oversized body: got %v", err)
	}
	if _, err := svc.Post(ctx, thread.ID, creator, "on time"); err != nil {
		t.Fatalf("valid post: %v", err)
	}
}

func TestDeletedThreadAnswersNotFound(t *testing.T) {
	svc, orgID := newMessaging(t)
	ctx := context.Background()
	creator := ids.New()
	thread, err := svc.CreateThread(ctx, CreateThreadInput{
		OrganizationID: orgID,
		Subject:        "short lived",
		CreatedBy:      creator,
		ParticipantIDs: []string{ids.New()},
	})
	if err != nil {
		t.Fatalf("create thread: %v", err)
	}
	if err := svc.DeleteThread(ctx, thread.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetThread(ctx, thread.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: got %v", err)
	}
	if _, err := svc.Post(ctx, thread.ID, creator, "anyone there"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("post to deleted thread: got %v", err)
	}
	if err := svc.DeleteThread(ctx, thread.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v", err)
	}
}
