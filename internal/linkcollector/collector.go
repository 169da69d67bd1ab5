// Package linkcollector fetches the group wall feed, extracts share links,
// and merges them into a per-guild seen-set so each link is reported once.
package linkcollector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"sync"
	"time"

	"linkpatrol/internal/storage"
)

const (
	// DefaultBaseURL is the community wall host.
	DefaultBaseURL = "https://groups.roblox.com"

	softCap = 500
	hardCap = 1000

	fetchTimeout = 15 * time.Second
)

type Collector struct {
	store   storage.Store
	client  *http.Client
	baseURL string
	groupID string
	cookie  string
	pattern *regexp.Regexp
	now     func() time.Time

	mu     sync.Mutex
	guilds map[string]*guildLinks
}

// guildLinks is the in-memory seen-set for one guild, kept in first-seen
// order. Its mutex guarantees at most one in-flight collection per guild.
type guildLinks struct {
	mu      sync.Mutex
	loaded  bool
	entries []storage.SeenLink
	index   map[string]struct{}
}

// New builds a collector for the given group. domain restricts extracted
// links to hosts ending in it (e.g. "roblox.com").
func New(store storage.Store, groupID, cookie, domain string) *Collector {
	return &Collector{
		store:   store,
		client:  &http.Client{Timeout: fetchTimeout},
		baseURL: DefaultBaseURL,
		groupID: groupID,
		cookie:  cookie,
		pattern: regexp.MustCompile(`https?://[^\s]*` + regexp.QuoteMeta(domain) + `/[^\s]*`),
		now:     time.Now,
		guilds:  make(map[string]*guildLinks),
	}
}

func (c *Collector) guild(guildID string) *guildLinks {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.guilds[guildID]
	if !ok {
		g = &guildLinks{index: make(map[string]struct{})}
		c.guilds[guildID] = g
	}
	return g
}

// Collect fetches the wall feed and returns the links not previously seen by
// this guild, in first-occurrence order. An unreachable upstream degrades to
// an empty result with a logged warning.
func (c *Collector) Collect(ctx context.Context, guildID string) ([]string, error) {
	g := c.guild(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.loaded {
		stored, err := c.store.SeenLinks(guildID)
		if err != nil {
			return nil, fmt.Errorf("load seen links: %w", err)
		}
		g.entries = stored
		for _, l := range stored {
			g.index[l.Link] = struct{}{}
		}
		g.loaded = true
	}

	links, err := c.fetchWallLinks(ctx)
	if err != nil {
		log.Println("[WARN] Wall fetch failed:", err)
		return nil, nil
	}

	now := c.now().Unix()
	var fresh []string
	for _, link := range links {
		if _, seen := g.index[link]; seen {
			continue
		}
		fresh = append(fresh, link)
	}

	if len(fresh) == 0 {
		return nil, nil
	}

	// Stage the merged set; the in-memory seen-set only advances once the
	// store write succeeds, so a failed persist leaves the links unseen and
	// reportable on the next call.
	merged := append([]storage.SeenLink(nil), g.entries...)
	for _, link := range fresh {
		merged = append(merged, storage.SeenLink{Link: link, FirstSeen: now})
	}

	// Past the hard cap, evict oldest entries down to the soft cap.
	if len(merged) > hardCap {
		merged = append([]storage.SeenLink(nil), merged[len(merged)-softCap:]...)
	}

	if err := c.store.PutSeenLinks(guildID, merged); err != nil {
		return nil, fmt.Errorf("persist seen links: %w", err)
	}

	g.entries = merged
	g.index = make(map[string]struct{}, len(merged))
	for _, l := range merged {
		g.index[l.Link] = struct{}{}
	}
	return fresh, nil
}

type wallResponse struct {
	Data []struct {
		Body string `json:"body"`
	} `json:"data"`
}

// fetchWallLinks pulls the newest wall posts and extracts matching links,
// deduplicated within the batch while preserving first occurrence.
func (c *Collector) fetchWallLinks(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/v2/groups/%s/wall/posts?sortOrder=Desc&limit=100", c.baseURL, c.groupID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", ".ROBLOSECURITY="+c.cookie)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("wall endpoint returned HTTP %d", resp.StatusCode)
	}

	var wall wallResponse
	if err := json.NewDecoder(resp.Body).Decode(&wall); err != nil {
		return nil, fmt.Errorf("decode wall response: %w", err)
	}

	seen := make(map[string]struct{})
	var links []string
	for _, post := range wall.Data {
		for _, link := range c.pattern.FindAllString(post.Body, -1) {
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}
	}
	return links, nil
}
