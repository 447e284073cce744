package google

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// persistingTokenSource wraps the oauth2 refresh cycle so that any token the
// library mints gets written back to the credential store before use. The
// oauth2 package owns the expiry predicate; this type only observes the
// access token changing.
type persistingTokenSource struct {
	ctx    context.Context
	store  CredentialStore
	credID int64
	base   oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

func newPersistingTokenSource(ctx context.Context, store CredentialStore, credID int64, base oauth2.TokenSource, current *oauth2.Token) *persistingTokenSource {
	return &persistingTokenSource{
		ctx:    ctx,
		store:  store,
		credID: credID,
		base:   base,
		last:   current,
	}
}

func (ts *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := ts.base.Token()
	if err != nil {
		return nil, err
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.last != nil && ts.last.AccessToken == tok.AccessToken {
		return tok, nil
	}

	key, err := json.Marshal(tok)
	if err != nil {
		return nil, fmt.Errorf("google: encoding refreshed token: %w", err)
	}
	if err := ts.store.UpdateCredentialKey(ts.ctx, ts.credID, key); err != nil {
		return nil, fmt.Errorf("google: persisting refreshed token: %w", err)
	}
	ts.last = tok
	return tok, nil
}
