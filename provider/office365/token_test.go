package office365

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilherme-santos/bookcal/internal"
)

type fakeStore struct {
	updates map[int64][]byte
}

func (s *fakeStore) UpdateCredentialKey(ctx context.Context, id int64, key []byte) error {
	if s.updates == nil {
		s.updates = make(map[int64][]byte)
	}
	s.updates[id] = key
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func credentialWithKey(t *testing.T, key tokenKey) internal.Credential {
	t.Helper()
	blob, err := json.Marshal(key)
	require.NoError(t, err)
	return internal.Credential{ID: 3, Type: internal.TypeOffice365Calendar, Key: blob}
}

func TestTokenRefreshPersistsNewKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
		assert.Equal(t, "client-id", r.Form.Get("client_id"))
		assert.Contains(t, r.Form.Get("scope"), "Calendars.ReadWrite")

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	store := &fakeStore{}
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	cred := credentialWithKey(t, tokenKey{
		AccessToken:  "stale-access",
		RefreshToken: "old-refresh",
		ExpiresAt:    now.Unix() - 60,
	})

	r, err := newRefresher(testLogger(), http.DefaultClient, "client-id", "client-secret", store, cred)
	require.NoError(t, err)
	r.tokenURL = srv.URL
	r.now = func() time.Time { return now }

	token, err := r.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)

	var persisted tokenKey
	require.NoError(t, json.Unmarshal(store.updates[3], &persisted))
	assert.Equal(t, "new-access", persisted.AccessToken)
	assert.Equal(t, "new-refresh", persisted.RefreshToken)
	assert.Equal(t, now.Unix()+3600, persisted.ExpiresAt)
}

func TestTokenSkipsRefreshWhileValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("token endpoint must not be hit for a valid token")
	}))
	defer srv.Close()

	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	cred := credentialWithKey(t, tokenKey{
		AccessToken: "still-good",
		ExpiresAt:   now.Unix() + 600,
	})

	r, err := newRefresher(testLogger(), http.DefaultClient, "client-id", "client-secret", store, cred)
	require.NoError(t, err)
	r.tokenURL = srv.URL
	r.now = func() time.Time { return now }

	token, err := r.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "still-good", token)
	assert.Empty(t, store.updates)
}

func TestTokenRefreshFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	cred := credentialWithKey(t, tokenKey{RefreshToken: "revoked", ExpiresAt: now.Unix() - 1})

	r, err := newRefresher(testLogger(), http.DefaultClient, "client-id", "client-secret", &fakeStore{}, cred)
	require.NoError(t, err)
	r.tokenURL = srv.URL
	r.now = func() time.Time { return now }

	_, err = r.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}
