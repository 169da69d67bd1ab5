// Package banlist is the authoritative denylist policy over users and guilds.
// It keeps read-mostly in-memory mirrors of the denylist tables and writes
// through to the persistence layer under a single mutex, so readers always
// observe all-or-nothing of each mutation.
package banlist

import (
	"fmt"
	"log"
	"sync"
	"time"

	"linkpatrol/internal/storage"
)

// Status is the outcome of a user denylist lookup.
type Status int

const (
	StatusNone Status = iota
	StatusPermanent
	StatusTemporary
)

type Service struct {
	store storage.Store

	mu        sync.RWMutex
	userBans  map[string]storage.UserBan
	tempBans  map[string]storage.TempBan
	guildBans map[string]storage.GuildBan

	now func() time.Time
}

// New loads the denylist mirrors from the store.
func New(store storage.Store) (*Service, error) {
	s := &Service{
		store:     store,
		userBans:  make(map[string]storage.UserBan),
		tempBans:  make(map[string]storage.TempBan),
		guildBans: make(map[string]storage.GuildBan),
		now:       time.Now,
	}

	users, err := store.UserBans()
	if err != nil {
		return nil, fmt.Errorf("load banned users: %w", err)
	}
	for _, b := range users {
		s.userBans[b.UserID] = b
	}

	temps, err := store.TempBans()
	if err != nil {
		return nil, fmt.Errorf("load temp bans: %w", err)
	}
	for _, b := range temps {
		s.tempBans[b.UserID] = b
	}

	guilds, err := store.GuildBans()
	if err != nil {
		return nil, fmt.Errorf("load banned guilds: %w", err)
	}
	for _, b := range guilds {
		s.guildBans[b.GuildID] = b
	}

	return s, nil
}

// UserStatus reports whether a user is banned. A permanent ban wins over a
// temp ban; an expired temp ban is treated as absent and swept from storage
// on observation.
func (s *Service) UserStatus(userID string) (Status, storage.UserBan, storage.TempBan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.userBans[userID]; ok {
		return StatusPermanent, b, storage.TempBan{}
	}
	if t, ok := s.tempBans[userID]; ok {
		if t.ExpiresAt <= s.now().Unix() {
			delete(s.tempBans, userID)
			if err := s.store.DeleteTempBan(userID); err != nil {
				log.Println("[ERR] Failed to drop expired temp ban:", err)
			}
			return StatusNone, storage.UserBan{}, storage.TempBan{}
		}
		return StatusTemporary, storage.UserBan{}, t
	}
	return StatusNone, storage.UserBan{}, storage.TempBan{}
}

// GuildStatus reports whether a guild is banned.
func (s *Service) GuildStatus(guildID string) (storage.GuildBan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.guildBans[guildID]
	return b, ok
}

// IsGBanned reports whether the user carries the gban flag on either a
// permanent ban or a live temp ban.
func (s *Service) IsGBanned(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.userBans[userID]; ok && b.GBan {
		return true
	}
	if t, ok := s.tempBans[userID]; ok && t.GBan && t.ExpiresAt > s.now().Unix() {
		return true
	}
	return false
}

// AddUserBan upserts a permanent ban; re-adding updates the record.
func (s *Service) AddUserBan(userID, reason string, noAppeal, gban bool) (storage.UserBan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := storage.UserBan{
		UserID:    userID,
		Reason:    reason,
		CreatedAt: s.now().Unix(),
		NoAppeal:  noAppeal,
		GBan:      gban,
	}
	if err := s.store.SetUserBan(b); err != nil {
		return storage.UserBan{}, err
	}
	s.userBans[userID] = b
	return b, nil
}

// AddTempBan upserts a temp ban expiring after the given number of minutes,
// clamped to at least one.
func (s *Service) AddTempBan(userID string, minutes int, reason string, gban bool) (storage.TempBan, error) {
	if minutes < 1 {
		minutes = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := storage.TempBan{
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: s.now().Unix() + int64(minutes)*60,
		GBan:      gban,
	}
	if err := s.store.SetTempBan(b); err != nil {
		return storage.TempBan{}, err
	}
	s.tempBans[userID] = b
	return b, nil
}

// RemoveUserBan lifts both the permanent ban and any temp ban for the user.
func (s *Service) RemoveUserBan(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteUserBan(userID); err != nil {
		return err
	}
	if err := s.store.DeleteTempBan(userID); err != nil {
		return err
	}
	delete(s.userBans, userID)
	delete(s.tempBans, userID)
	return nil
}

// AddGuildBan upserts a guild ban; the name is cached at ban time and may be
// empty when the guild is unknown.
func (s *Service) AddGuildBan(guildID, name, reason string, noAppeal bool) (storage.GuildBan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := storage.GuildBan{
		GuildID:   guildID,
		Name:      name,
		Reason:    reason,
		CreatedAt: s.now().Unix(),
		NoAppeal:  noAppeal,
	}
	if err := s.store.SetGuildBan(b); err != nil {
		return storage.GuildBan{}, err
	}
	s.guildBans[guildID] = b
	return b, nil
}

func (s *Service) RemoveGuildBan(guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteGuildBan(guildID); err != nil {
		return err
	}
	delete(s.guildBans, guildID)
	return nil
}

func (s *Service) UserBans() []storage.UserBan {
	list, err := s.store.UserBans()
	if err != nil {
		log.Println("[ERR] Failed to list banned users:", err)
		return nil
	}
	return list
}

func (s *Service) GuildBans() []storage.GuildBan {
	list, err := s.store.GuildBans()
	if err != nil {
		log.Println("[ERR] Failed to list banned guilds:", err)
		return nil
	}
	return list
}

// RecordRemovedGuild appends to the removed-guilds audit trail.
// Duplicates are expected when the bot is re-added and removed again.
func (s *Service) RecordRemovedGuild(guildID, name string) error {
	return s.store.AppendRemovedGuild(storage.RemovedGuild{
		GuildID:   guildID,
		Name:      name,
		RemovedAt: s.now().Unix(),
	})
}

func (s *Service) RemovedGuilds() []storage.RemovedGuild {
	list, err := s.store.RemovedGuilds()
	if err != nil {
		log.Println("[ERR] Failed to list removed guilds:", err)
		return nil
	}
	return list
}
