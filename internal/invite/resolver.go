// Package invite resolves Discord invite codes to guild identities through
// the public invite endpoint, with a small TTL-bound LRU in front of it.
package invite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"linkpatrol/internal/storage"
)

const (
	// DefaultBaseURL is the invite resolution host.
	DefaultBaseURL = "https://discord.com"

	cacheSize    = 256
	cacheTTL     = 10 * time.Minute
	fetchTimeout = 15 * time.Second
)

// ErrBadInvite means the input could not be parsed as an invite code or URL.
var ErrBadInvite = errors.New("could not parse invite")

// ErrNoGuild means the invite resolved but carried no guild information.
var ErrNoGuild = errors.New("invite has no guild info")

// RateLimitedError is returned on HTTP 429 with the server-advertised delay.
type RateLimitedError struct {
	RetryAfter float64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %.1fs", e.RetryAfter)
}

// HTTPError is any other non-200 response from the invite endpoint.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("invite endpoint returned HTTP %d", e.Status)
}

// Resolved is the guild identity behind an invite.
type Resolved struct {
	GuildID   string
	GuildName string
}

var codePattern = regexp.MustCompile(`(?:discord\.gg/|discordapp\.com/invite/|discord\.com/invite/)?([A-Za-z0-9-]+)$`)

// ParseCode extracts the invite code from a raw code or invite URL.
func ParseCode(raw string) (string, error) {
	m := codePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", ErrBadInvite
	}
	return m[1], nil
}

type Resolver struct {
	store   storage.Store
	client  *http.Client
	baseURL string
	cache   *expirable.LRU[string, Resolved]
	now     func() time.Time
}

// New builds a resolver and warms its cache from the persisted invite table,
// skipping entries past their TTL.
func New(store storage.Store) *Resolver {
	r := &Resolver{
		store:   store,
		client:  &http.Client{Timeout: fetchTimeout},
		baseURL: DefaultBaseURL,
		cache:   expirable.NewLRU[string, Resolved](cacheSize, nil, cacheTTL),
		now:     time.Now,
	}

	entries, err := store.InviteEntries()
	if err != nil {
		log.Println("[WARN] Failed to warm invite cache:", err)
		return r
	}
	cutoff := r.now().Add(-cacheTTL).Unix()
	for _, e := range entries {
		if e.FetchedAt >= cutoff {
			r.cache.Add(e.Code, Resolved{GuildID: e.GuildID, GuildName: e.GuildName})
		}
	}
	return r
}

type inviteResponse struct {
	Guild *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"guild"`
}

type rateLimitBody struct {
	RetryAfter float64 `json:"retry_after"`
}

// Resolve converts an invite code or URL to a guild identity. Cache hits
// within the TTL avoid the upstream call entirely.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Resolved, error) {
	code, err := ParseCode(raw)
	if err != nil {
		return Resolved{}, err
	}

	if hit, ok := r.cache.Get(code); ok {
		return hit, nil
	}

	url := fmt.Sprintf("%s/api/v10/invites/%s?with_counts=false", r.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Resolved{}, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Resolved{}, fmt.Errorf("invite request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		limited := rateLimitBody{RetryAfter: 5}
		if err := json.NewDecoder(resp.Body).Decode(&limited); err != nil {
			limited.RetryAfter = 5
		}
		return Resolved{}, &RateLimitedError{RetryAfter: limited.RetryAfter}
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return Resolved{}, &HTTPError{Status: resp.StatusCode}
	}

	var body inviteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Resolved{}, fmt.Errorf("decode invite response: %w", err)
	}
	if body.Guild == nil || body.Guild.ID == "" {
		return Resolved{}, ErrNoGuild
	}

	resolved := Resolved{GuildID: body.Guild.ID, GuildName: body.Guild.Name}
	r.cache.Add(code, resolved)

	err = r.store.SetInviteEntry(storage.InviteEntry{
		Code:      code,
		GuildID:   resolved.GuildID,
		GuildName: resolved.GuildName,
		FetchedAt: r.now().Unix(),
	})
	if err != nil {
		log.Println("[WARN] Failed to persist invite cache entry:", err)
	}
	return resolved, nil
}
