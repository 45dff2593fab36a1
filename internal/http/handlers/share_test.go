package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskcal/taskcal/internal/domain/share"
	"github.com/taskcal/taskcal/internal/http/handlers"
	"github.com/taskcal/taskcal/internal/http/middlewares"
)

type fakeSharesStore struct {
	shares map[int64]share.ShareRecord
	nextID int64
}

func newFakeSharesStore() *fakeSharesStore {
	return &fakeSharesStore{shares: map[int64]share.ShareRecord{}, nextID: 1}
}

func (f *fakeSharesStore) Create(ctx context.Context, fromUserID int64, toEmail, message string) (share.ShareRecord, error) {
	rec := share.ShareRecord{
		ID:         f.nextID,
		FromUserID: fromUserID,
		ToEmail:    toEmail,
		Message:    message,
		SharedAt:   time.Now().UTC(),
	}
	f.nextID++
	f.shares[rec.ID] = rec

	return rec, nil
}

func (f *fakeSharesStore) ListByUser(ctx context.Context, userID int64) ([]share.ShareRecord, error) {
	var out []share.ShareRecord
	for _, rec := range f.shares {
		if rec.FromUserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeEnqueuer struct {
	calls []int64
	err   error
}

func (f *fakeEnqueuer) EnqueueShareNotification(ctx context.Context, shareID, userID int64) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, shareID)
	return nil
}

func newShareRouter(store *fakeSharesStore, enqueuer *fakeEnqueuer) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := handlers.NewShareHandler(store, enqueuer, nil)
	authMW := middlewares.NewAuthMiddleware(testJWT)

	r := gin.New()
	authed := r.Group("/api", authMW.RequireAuth())
	authed.POST("/share", h.Share)
	authed.GET("/shared", h.ListShared)

	return r
}

func TestShare(t *testing.T) {
	store := newFakeSharesStore()
	enqueuer := &fakeEnqueuer{}
	r := newShareRouter(store, enqueuer)

	body := `{"email":"friend@example.com","message":"my week"}`
	w := doAuthed(t, r, http.MethodPost, "/api/share", body, tokenFor(t, alice))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		ShareID int64 `json:"shareId"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.ShareID != 1 {
		t.Fatalf("shareId = %d, want 1", resp.ShareID)
	}

	rec := store.shares[1]

	if rec.FromUserID != alice.ID || rec.ToEmail != "friend@example.com" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if len(enqueuer.calls) != 1 || enqueuer.calls[0] != 1 {
		t.Fatalf("expected enqueue for share 1, got %v", enqueuer.calls)
	}
}

func TestShareSucceedsWhenEnqueueFails(t *testing.T) {
	store := newFakeSharesStore()
	enqueuer := &fakeEnqueuer{err: errors.New("redis down")}
	r := newShareRouter(store, enqueuer)

	body := `{"email":"friend@example.com"}`
	w := doAuthed(t, r, http.MethodPost, "/api/share", body, tokenFor(t, alice))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if len(store.shares) != 1 {
		t.Fatal("share record should persist even when enqueue fails")
	}
}

func TestShareValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing email", body: `{"message":"hi"}`},
		{name: "bad email", body: `{"email":"not-an-email"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newShareRouter(newFakeSharesStore(), &fakeEnqueuer{})

			w := doAuthed(t, r, http.MethodPost, "/api/share", tt.body, tokenFor(t, alice))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestListSharedIsOwnerScoped(t *testing.T) {
	store := newFakeSharesStore()
	r := newShareRouter(store, &fakeEnqueuer{})

	if w := doAuthed(t, r, http.MethodPost, "/api/share", `{"email":"a@example.com"}`, tokenFor(t, alice)); w.Code != http.StatusOK {
		t.Fatalf("share failed: %d", w.Code)
	}

	if w := doAuthed(t, r, http.MethodPost, "/api/share", `{"email":"b@example.com"}`, tokenFor(t, bob)); w.Code != http.StatusOK {
		t.Fatalf("share failed: %d", w.Code)
	}

	w := doAuthed(t, r, http.MethodGet, "/api/shared", "", tokenFor(t, alice))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var items []share.ShareRecord
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(items) != 1 || items[0].ToEmail != "a@example.com" {
		t.Fatalf("unexpected items: %+v", items)
	}
}
