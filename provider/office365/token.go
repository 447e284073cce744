package office365

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

const tokenEndpoint = "https://login.microsoftonline.com/common/oauth2/v2.0/token"

// CredentialStore persists refreshed tokens back to the credential record.
type CredentialStore interface {
	UpdateCredentialKey(ctx context.Context, id int64, key []byte) error
}

// tokenKey is the credential key blob for office365. ExpiresAt is seconds
// since epoch; Microsoft hands out expires_in and we pin it to a timestamp
// when persisting.
type tokenKey struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// refresher owns the office365 credential lifecycle: it compares the stored
// expiry against the clock and exchanges the refresh token when needed,
// persisting the whole new key blob before handing the bearer out.
type refresher struct {
	log          *slog.Logger
	httpClient   *http.Client
	tokenURL     string
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
		return nil, fmt.Errorf("office365: decoding credential key: %w", err)
	}
	return &refresher{
		log:          log,
		httpClient:   httpClient,
		tokenURL:     tokenEndpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		store:        store,
		credID:       cred.ID,
		key:          key,
		now:          time.Now,
	}, nil
}

// Token returns a valid bearer token, refreshing and persisting first when
// the stored one expired.
func (r *refresher) Token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.key.ExpiresAt > r.now().Unix() {
		return r.key.AccessToken, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {r.key.RefreshToken},
		"client_id":     {r.clientID},
		"client_secret": {r.clientSecret},
		"scope":         {"User.Read Calendars.ReadWrite offline_access"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("office365: refreshing token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("office365: refreshing token: status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("office365: decoding token response: %w", err)
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
		return "", fmt.Errorf("office365: persisting refreshed token: %w", err)
	}

	r.key = key
	return key.AccessToken, nil
}
