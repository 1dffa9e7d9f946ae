package httpapi

import (
	"net/http"
	"testing"
	"time"

	"schoolyard.org/internal/school"
)

type threadView struct {
	Thread       school.Thread              `json:"thread"`
	Participants []school.ThreadParticipant `json:"participants"`
}

func TestPostingMarksOthersUnreadAndBumpsThread(t *testing.T) {
	srv, store := newTestServer(t)
	org := seedOrg(t, store, "rowan")
	alice := seedStaff(t, store, org.ID, "alice@rowan.example", []string{"teacher"})
	bob := seedStaff(t, store, org.ID, "bob@rowan.example", []string{"teacher"})

	aliceToken := mintToken(t, alice.ID, org.ID, alice.Roles, "teacher")
	bobToken := mintToken(t, bob.ID, org.ID, bob.Roles, "teacher")

	resp, data := doRequest(t, srv, http.MethodPost, "/v1/threads", aliceToken, map[string]any{
		"subject":         "field trip",
		"participant_ids": []string{bob.ID},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create thread: status %d body %s", resp.StatusCode, data)
	}
	thread := decode[school.Thread](t, data)
	createdAt := thread.UpdatedAt

	// Bob reads the thread first so his unread flag starts false.
	resp, _ = doRequest(t, srv, http.MethodPost, "/v1/threads/"+thread.ID+"/read", bobToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("mark read: status %d", resp.StatusCode)
	}

	time.Sleep(5 * time.Millisecond)
	resp, data = doRequest(t, srv, http.MethodPost, "/v1/threads/"+thread.ID+"/messages", aliceToken, map[string]string{
		"body": "bus leaves at nine",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("post message: status %d body %s", resp.StatusCode, data)
	}

	_, data = doRequest(t, srv, http.MethodGet, "/v1/threads/"+thread.ID, bobToken, nil)
	view := decode[threadView](t, data)
	if !view.Thread.UpdatedAt.After(createdAt) {
		t.Fatalf("updated_at not bumped: created %v, after post %v", createdAt, view.Thread.UpdatedAt)
	}
	for _, p := range view.Participants {
		switch p.UserID {
		case alice.ID:
			if p.Unread {
				t.Fatal("sender must not be marked unread")
			}
		case bob.ID:
			if !p.Unread {
				t.Fatal("other participant must be marked unread after a post")
			}
		}
	}

	// Reading clears only the reader's flag.
	doRequest(t, srv, http.MethodPost, "/v1/threads/"+thread.ID+"/read", bobToken, nil)
	_, data = doRequest(t, srv, http.MethodGet, "/v1/threads/"+thread.ID, bobToken, nil)
	view = decode[threadView](t, data)
	for _, p := range view.Participants {
		if p.UserID == bob.ID && p.Unread {
			t.Fatal("mark-read did not clear the flag")
		}
	}
}

func TestNonParticipantCannotReadOrPost(t *testing.T) {
	srv, store := newTestServer(t)
	org := seedOrg(t, store, "hazel")
	alice := seedStaff(t, store, org.ID, "alice@hazel.example", []string{"teacher"})
	bob := seedStaff(t, store, org.ID, "bob@hazel.example", []string{"teacher"})
	eve := seedStaff(t, store, org.ID, "eve@hazel.example", []string{"teacher"})

	aliceToken := mintToken(t, alice.ID, org.ID, alice.Roles, "teacher")
	eveToken := mintToken(t, eve.ID, org.ID, eve.Roles, "teacher")

	_, data := doRequest(t, srv, http.MethodPost, "/v1/threads", aliceToken, map[string]any{
		"subject":         "grades",
		"participant_ids": []string{bob.ID},
	})
	thread := decode[school.Thread](t, data)

	resp, _ := doRequest(t, srv, http.MethodGet, "/v1/threads/"+thread.ID, eveToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("non-participant read: status %d, want 404", resp.StatusCode)
	}
	resp, _ = doRequest(t, srv, http.MethodPost, "/v1/threads/"+thread.ID+"/messages", eveToken, map[string]string{"body": "hi"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-participant post: status %d, want 403", resp.StatusCode)
	}

	// A non-member from another tenant gets the generic miss.
	orgB := seedOrg(t, store, "laurel")
	mallory := seedStaff(t, store, orgB.ID, "m@laurel.example", []string{"teacher"})
	malToken := mintToken(t, mallory.ID, orgB.ID, mallory.Roles, "teacher")
	resp, _ = doRequest(t, srv, http.MethodGet, "/v1/threads/"+thread.ID, malToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-tenant thread read: status %d, want 404", resp.StatusCode)
	}
}

func TestMessageBodyBounds(t *testing.T) {
	srv, store := newTestServer(t)
	org := seedOrg(t, store, "sage")
	alice := seedStaff(t, store, org.ID, "alice@sage.example", []string{"teacher"})
	bob := seedStaff(t, store, org.ID, "bob@sage.example", []string{"teacher"})
	token := mintToken(t, alice.ID, org.ID, alice.Roles, "teacher")

	_, data := doRequest(t, srv, http.MethodPost, "/v1/threads", token, map[string]any{
		"subject":         "limits",
		"participant_ids": []string{bob.ID},
	})
	thread := decode[school.Thread](t, data)

	resp, _ := doRequest(t, srv, http.MethodPost, "/v1/threads/"+thread.ID+"/messages", token, map[string]string{"body": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank body: status %d, want 400", resp.StatusCode)
	}

	long := make([]byte, school.MaxMessageBody+1)
	for i := range long {
		long[i] = 'a'
	}
	resp, _ = doRequest(t, srv, http.MethodPost, "/v1/threads/"+thread.ID+"/messages", token, map[string]string{"body": string(long)})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("oversized body: status %d, want 400", resp.StatusCode)
	}
}
