package banlist

import (
	"context"
	"log"
	"time"
)

// RunSweeper deletes expired temp bans every minute until ctx is done.
// Each pass is idempotent, so missed intervals are harmless.
func RunSweeper(ctx context.Context, s *Service) error {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SweepExpired()
		}
	}
}

// SweepExpired removes every temp ban whose expiry has passed and logs one
// audit line per expiry.
func (s *Service) SweepExpired() {
	now := s.now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	for uid, t := range s.tempBans {
		if t.ExpiresAt > now {
			continue
		}
		if err := s.store.DeleteTempBan(uid); err != nil {
			log.Printf("[ERR] Sweep failed to delete temp ban for %s: %v", uid, err)
			continue
		}
		delete(s.tempBans, uid)
		log.Printf("[INFO] Temp ban expired for user %s (expired at %d)", uid, t.ExpiresAt)
	}
}
