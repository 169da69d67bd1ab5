package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// jsonStore keeps one document file per table under a data directory.
// Mutations rewrite the affected table file with a temp-write-sync-rename
// sequence so a crash never leaves a half-written table behind.
type jsonStore struct {
	dir string
	mu  sync.RWMutex

	userBans    map[string]UserBan
	tempBans    map[string]TempBan
	guildBans   map[string]GuildBan
	removed     []RemovedGuild
	seenLinks   map[string][]SeenLink
	invites     map[string]InviteEntry
	maintenance bool
}

const (
	fileUserBans    = "banned_users.json"
	fileTempBans    = "temp_bans.json"
	fileGuildBans   = "banned_guilds.json"
	fileRemoved     = "removed_guilds.json"
	fileSeenLinks   = "seen_links.json"
	fileInviteCache = "invite_cache.json"
	fileMaintenance = "maintenance.json"
)

// OpenJSON opens (or initializes) a document-file store rooted at dir.
func OpenJSON(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrStorageUnavailable, dir, err)
	}

	s := &jsonStore{
		dir:       dir,
		userBans:  make(map[string]UserBan),
		tempBans:  make(map[string]TempBan),
		guildBans: make(map[string]GuildBan),
		seenLinks: make(map[string][]SeenLink),
		invites:   make(map[string]InviteEntry),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *jsonStore) load() error {
	var err error
	if s.userBans, err = loadUserBans(filepath.Join(s.dir, fileUserBans)); err != nil {
		return err
	}
	if s.tempBans, err = loadTempBans(filepath.Join(s.dir, fileTempBans)); err != nil {
		return err
	}
	if s.guildBans, err = loadGuildBans(filepath.Join(s.dir, fileGuildBans)); err != nil {
		return err
	}
	if err = readTable(filepath.Join(s.dir, fileRemoved), &s.removed); err != nil {
		return err
	}
	if err = readTable(filepath.Join(s.dir, fileSeenLinks), &s.seenLinks); err != nil {
		return err
	}
	if s.seenLinks == nil {
		s.seenLinks = make(map[string][]SeenLink)
	}
	if err = readTable(filepath.Join(s.dir, fileInviteCache), &s.invites); err != nil {
		return err
	}
	if s.invites == nil {
		s.invites = make(map[string]InviteEntry)
	}

	var m struct {
		Enabled bool `json:"enabled"`
	}
	if err = readTable(filepath.Join(s.dir, fileMaintenance), &m); err != nil {
		return err
	}
	s.maintenance = m.Enabled
	return nil
}

// readTable reads a table file into out. A missing file means an empty table.
func readTable(path string, out any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrStorageUnavailable, path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrStorageUnavailable, path, err)
	}
	return nil
}

// writeTable writes a table file atomically: temp file, fsync, rename.
func writeTable(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrStorageUnavailable, path, err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrStorageUnavailable, tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: write %s: %v", ErrStorageUnavailable, tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: sync %s: %v", ErrStorageUnavailable, tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: close %s: %v", ErrStorageUnavailable, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %v", ErrStorageUnavailable, path, err)
	}
	return nil
}

// Legacy denylist files were arrays that mixed bare ids with record objects,
// and record fields drifted over time: ids stored as numbers or strings,
// timestamps as floats or null. Loaders accept every shape and normalize to
// records in memory; the table is rewritten in record form on the next
// mutation.

// legacyEntry is the union of all denylist record shapes ever written.
// Numeric fields decode through float64 so fractional epoch timestamps and
// nulls are accepted; the id keeps its raw form for scalarID.
type legacyEntry struct {
	ID        json.RawMessage `json:"id"`
	Name      string          `json:"name"`
	Reason    string          `json:"reason"`
	Timestamp float64         `json:"timestamp"`
	Expires   float64         `json:"expires"`
	NoAppeal  bool            `json:"no_appeal"`
	GBan      bool            `json:"gban"`
}

// decodeLegacyEntry accepts a bare id (number or string) or a record object.
// ok is false for entries with no usable id.
func decodeLegacyEntry(raw json.RawMessage) (id string, e legacyEntry, ok bool) {
	if id, ok := scalarID(raw); ok {
		return id, legacyEntry{Reason: NoReason}, true
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return "", legacyEntry{}, false
	}
	id, ok = scalarID(e.ID)
	if !ok {
		return "", legacyEntry{}, false
	}
	if e.Reason == "" {
		e.Reason = NoReason
	}
	return id, e, true
}

func loadUserBans(path string) (map[string]UserBan, error) {
	var raw []json.RawMessage
	if err := readTable(path, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]UserBan, len(raw))
	for _, item := range raw {
		id, e, ok := decodeLegacyEntry(item)
		if !ok {
			continue
		}
		out[id] = UserBan{
			UserID:    id,
			Reason:    e.Reason,
			CreatedAt: int64(e.Timestamp),
			NoAppeal:  e.NoAppeal,
			GBan:      e.GBan,
		}
	}
	return out, nil
}

func loadTempBans(path string) (map[string]TempBan, error) {
	var raw []json.RawMessage
	if err := readTable(path, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]TempBan, len(raw))
	for _, item := range raw {
		id, e, ok := decodeLegacyEntry(item)
		if !ok {
			continue
		}
		out[id] = TempBan{
			UserID:    id,
			Reason:    e.Reason,
			ExpiresAt: int64(e.Expires),
			NoAppeal:  e.NoAppeal,
			GBan:      e.GBan,
		}
	}
	return out, nil
}

func loadGuildBans(path string) (map[string]GuildBan, error) {
	var raw []json.RawMessage
	if err := readTable(path, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]GuildBan, len(raw))
	for _, item := range raw {
		id, e, ok := decodeLegacyEntry(item)
		if !ok {
			continue
		}
		out[id] = GuildBan{
			GuildID:   id,
			Name:      e.Name,
			Reason:    e.Reason,
			CreatedAt: int64(e.Timestamp),
			NoAppeal:  e.NoAppeal,
		}
	}
	return out, nil
}

// scalarID decodes a legacy bare-id value, numeric or string.
func scalarID(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, true
	}
	return "", false
}

func (s *jsonStore) saveUserBans() error {
	list := make([]UserBan, 0, len(s.userBans))
	for _, b := range s.userBans {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	return writeTable(filepath.Join(s.dir, fileUserBans), list)
}

func (s *jsonStore) saveTempBans() error {
	list := make([]TempBan, 0, len(s.tempBans))
	for _, b := range s.tempBans {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UserID < list[j].UserID })
	return writeTable(filepath.Join(s.dir, fileTempBans), list)
}

func (s *jsonStore) saveGuildBans() error {
	list := make([]GuildBan, 0, len(s.guildBans))
	for _, b := range s.guildBans {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].GuildID < list[j].GuildID })
	return writeTable(filepath.Join(s.dir, fileGuildBans), list)
}

func (s *jsonStore) UserBan(userID string) (UserBan, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.userBans[userID]
	return b, ok, nil
}

func (s *jsonStore) SetUserBan(b UserBan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userBans[b.UserID] = b
	return s.saveUserBans()
}

func (s *jsonStore) DeleteUserBan(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.userBans[userID]; !ok {
		return nil
	}
	delete(s.userBans, userID)
	return s.saveUserBans()
}

func (s *jsonStore) UserBans() ([]UserBan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]UserBan, 0, len(s.userBans))
	for _, b := range s.userBans {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt < list[j].CreatedAt })
	return list, nil
}

func (s *jsonStore) TempBan(userID string) (TempBan, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.tempBans[userID]
	return b, ok, nil
}

func (s *jsonStore) SetTempBan(b TempBan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempBans[b.UserID] = b
	return s.saveTempBans()
}

func (s *jsonStore) DeleteTempBan(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tempBans[userID]; !ok {
		return nil
	}
	delete(s.tempBans, userID)
	return s.saveTempBans()
}

func (s *jsonStore) TempBans() ([]TempBan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]TempBan, 0, len(s.tempBans))
	for _, b := range s.tempBans {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ExpiresAt < list[j].ExpiresAt })
	return list, nil
}

func (s *jsonStore) GuildBan(guildID string) (GuildBan, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.guildBans[guildID]
	return b, ok, nil
}

func (s *jsonStore) SetGuildBan(b GuildBan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guildBans[b.GuildID] = b
	return s.saveGuildBans()
}

func (s *jsonStore) DeleteGuildBan(guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guildBans[guildID]; !ok {
		return nil
	}
	delete(s.guildBans, guildID)
	return s.saveGuildBans()
}

func (s *jsonStore) GuildBans() ([]GuildBan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]GuildBan, 0, len(s.guildBans))
	for _, b := range s.guildBans {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt < list[j].CreatedAt })
	return list, nil
}

func (s *jsonStore) AppendRemovedGuild(r RemovedGuild) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, r)
	return writeTable(filepath.Join(s.dir, fileRemoved), s.removed)
}

func (s *jsonStore) RemovedGuilds() ([]RemovedGuild, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RemovedGuild, len(s.removed))
	copy(out, s.removed)
	return out, nil
}

func (s *jsonStore) SeenLinks(guildID string) ([]SeenLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	links := s.seenLinks[guildID]
	out := make([]SeenLink, len(links))
	copy(out, links)
	return out, nil
}

func (s *jsonStore) PutSeenLinks(guildID string, links []SeenLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(links) == 0 {
		delete(s.seenLinks, guildID)
	} else {
		stored := make([]SeenLink, len(links))
		copy(stored, links)
		s.seenLinks[guildID] = stored
	}
	return writeTable(filepath.Join(s.dir, fileSeenLinks), s.seenLinks)
}

func (s *jsonStore) SeenLinkGuilds() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.seenLinks))
	for gid := range s.seenLinks {
		out = append(out, gid)
	}
	sort.Strings(out)
	return out, nil
}

func (s *jsonStore) InviteEntry(code string) (InviteEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.invites[code]
	return e, ok, nil
}

func (s *jsonStore) SetInviteEntry(e InviteEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites[e.Code] = e
	return writeTable(filepath.Join(s.dir, fileInviteCache), s.invites)
}

func (s *jsonStore) InviteEntries() ([]InviteEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]InviteEntry, 0, len(s.invites))
	for _, e := range s.invites {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].FetchedAt < list[j].FetchedAt })
	return list, nil
}

func (s *jsonStore) Maintenance() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maintenance, nil
}

func (s *jsonStore) SetMaintenance(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maintenance = enabled
	return writeTable(filepath.Join(s.dir, fileMaintenance), struct {
		Enabled bool `json:"enabled"`
	}{enabled})
}

func (s *jsonStore) Close() error {
	return nil
}
