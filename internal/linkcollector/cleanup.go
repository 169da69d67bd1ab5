package linkcollector

import (
	"context"
	"log"
	"time"
)

const (
	cleanupEvery = 6 * time.Hour
	linkMaxAge   = 24 * time.Hour
)

// RunCleanup drops seen links older than a day, every six hours, until ctx
// is done.
func RunCleanup(ctx context.Context, c *Collector) error {
	ticker := time.NewTicker(cleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.CleanupOnce()
		}
	}
}

// CleanupOnce performs a single global cleanup pass across all guilds.
func (c *Collector) CleanupOnce() {
	cutoff := c.now().Add(-linkMaxAge).Unix()

	guildIDs, err := c.store.SeenLinkGuilds()
	if err != nil {
		log.Println("[ERR] Cleanup failed to list guilds:", err)
		return
	}

	for _, gid := range guildIDs {
		g := c.guild(gid)
		g.mu.Lock()
		if !g.loaded {
			stored, err := c.store.SeenLinks(gid)
			if err != nil {
				log.Printf("[ERR] Cleanup failed to load links for guild %s: %v", gid, err)
				g.mu.Unlock()
				continue
			}
			g.entries = stored
			for _, l := range stored {
				g.index[l.Link] = struct{}{}
			}
			g.loaded = true
		}

		kept := g.entries[:0:0]
		for _, l := range g.entries {
			if l.FirstSeen >= cutoff {
				kept = append(kept, l)
				continue
			}
			delete(g.index, l.Link)
		}
		if len(kept) != len(g.entries) {
			dropped := len(g.entries) - len(kept)
			g.entries = kept
			if err := c.store.PutSeenLinks(gid, g.entries); err != nil {
				log.Printf("[ERR] Cleanup failed to persist links for guild %s: %v", gid, err)
			} else {
				log.Printf("[INFO] Cleanup dropped %d stale links for guild %s", dropped, gid)
			}
		}
		g.mu.Unlock()
	}
}
