package storage

import (
	"fmt"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// sqliteStore keeps every table in a single embedded database file.
// One connection is shared by all callers behind a process-wide mutex.
type sqliteStore struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS banned_users (
		user_id   TEXT PRIMARY KEY,
		reason    TEXT,
		created_at INTEGER NOT NULL DEFAULT 0,
		no_appeal INTEGER NOT NULL DEFAULT 0,
		gban      INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS temp_bans (
		user_id   TEXT PRIMARY KEY,
		reason    TEXT,
		expires_at INTEGER NOT NULL DEFAULT 0,
		no_appeal INTEGER NOT NULL DEFAULT 0,
		gban      INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS banned_guilds (
		guild_id  TEXT PRIMARY KEY,
		name      TEXT,
		reason    TEXT,
		created_at INTEGER NOT NULL DEFAULT 0,
		no_appeal INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS removed_guilds (
		guild_id   TEXT NOT NULL,
		name       TEXT,
		removed_at INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS seen_links (
		guild_id   TEXT NOT NULL,
		link       TEXT NOT NULL,
		first_seen INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (guild_id, link)
	)`,
	`CREATE TABLE IF NOT EXISTS invite_cache (
		code       TEXT PRIMARY KEY,
		guild_id   TEXT,
		guild_name TEXT,
		fetched_at INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS maintenance (
		id      INTEGER PRIMARY KEY CHECK (id = 1),
		enabled INTEGER NOT NULL DEFAULT 0
	)`,
}

// OpenSQLite opens (or initializes) the embedded relational store at path.
func OpenSQLite(path string) (Store, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageUnavailable, path, err)
	}
	for _, stmt := range sqliteSchema {
		if err := sqlitex.Execute(conn, stmt, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: schema: %v", ErrStorageUnavailable, err)
		}
	}
	return &sqliteStore{conn: conn}, nil
}

func (s *sqliteStore) exec(query string, args ...any) error {
	if err := sqlitex.Execute(s.conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *sqliteStore) query(query string, fn func(stmt *sqlite.Stmt) error, args ...any) error {
	err := sqlitex.Execute(s.conn, query, &sqlitex.ExecOptions{
		Args:       args,
		ResultFunc: fn,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// reasonOrDefault normalizes legacy NULL/empty reason columns.
func reasonOrDefault(reason string) string {
	if reason == "" {
		return NoReason
	}
	return reason
}

func (s *sqliteStore) UserBan(userID string) (UserBan, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b UserBan
	found := false
	err := s.query(
		"SELECT user_id, reason, created_at, no_appeal, gban FROM banned_users WHERE user_id = ?",
		func(stmt *sqlite.Stmt) error {
			found = true
			b = UserBan{
				UserID:    stmt.ColumnText(0),
				Reason:    reasonOrDefault(stmt.ColumnText(1)),
				CreatedAt: stmt.ColumnInt64(2),
				NoAppeal:  stmt.ColumnInt64(3) != 0,
				GBan:      stmt.ColumnInt64(4) != 0,
			}
			return nil
		}, userID)
	return b, found, err
}

func (s *sqliteStore) SetUserBan(b UserBan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec(
		"INSERT OR REPLACE INTO banned_users (user_id, reason, created_at, no_appeal, gban) VALUES (?, ?, ?, ?, ?)",
		b.UserID, b.Reason, b.CreatedAt, boolInt(b.NoAppeal), boolInt(b.GBan))
}

func (s *sqliteStore) DeleteUserBan(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec("DELETE FROM banned_users WHERE user_id = ?", userID)
}

func (s *sqliteStore) UserBans() ([]UserBan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []UserBan
	err := s.query(
		"SELECT user_id, reason, created_at, no_appeal, gban FROM banned_users ORDER BY created_at",
		func(stmt *sqlite.Stmt) error {
			list = append(list, UserBan{
				UserID:    stmt.ColumnText(0),
				Reason:    reasonOrDefault(stmt.ColumnText(1)),
				CreatedAt: stmt.ColumnInt64(2),
				NoAppeal:  stmt.ColumnInt64(3) != 0,
				GBan:      stmt.ColumnInt64(4) != 0,
			})
			return nil
		})
	return list, err
}

func (s *sqliteStore) TempBan(userID string) (TempBan, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b TempBan
	found := false
	err := s.query(
		"SELECT user_id, reason, expires_at, no_appeal, gban FROM temp_bans WHERE user_id = ?",
		func(stmt *sqlite.Stmt) error {
			found = true
			b = TempBan{
				UserID:    stmt.ColumnText(0),
				Reason:    reasonOrDefault(stmt.ColumnText(1)),
				ExpiresAt: stmt.ColumnInt64(2),
				NoAppeal:  stmt.ColumnInt64(3) != 0,
				GBan:      stmt.ColumnInt64(4) != 0,
			}
			return nil
		}, userID)
	return b, found, err
}

func (s *sqliteStore) SetTempBan(b TempBan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec(
		"INSERT OR REPLACE INTO temp_bans (user_id, reason, expires_at, no_appeal, gban) VALUES (?, ?, ?, ?, ?)",
		b.UserID, b.Reason, b.ExpiresAt, boolInt(b.NoAppeal), boolInt(b.GBan))
}

func (s *sqliteStore) DeleteTempBan(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec("DELETE FROM temp_bans WHERE user_id = ?", userID)
}

func (s *sqliteStore) TempBans() ([]TempBan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []TempBan
	err := s.query(
		"SELECT user_id, reason, expires_at, no_appeal, gban FROM temp_bans ORDER BY expires_at",
		func(stmt *sqlite.Stmt) error {
			list = append(list, TempBan{
				UserID:    stmt.ColumnText(0),
				Reason:    reasonOrDefault(stmt.ColumnText(1)),
				ExpiresAt: stmt.ColumnInt64(2),
				NoAppeal:  stmt.ColumnInt64(3) != 0,
				GBan:      stmt.ColumnInt64(4) != 0,
			})
			return nil
		})
	return list, err
}

func (s *sqliteStore) GuildBan(guildID string) (GuildBan, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b GuildBan
	found := false
	err := s.query(
		"SELECT guild_id, name, reason, created_at, no_appeal FROM banned_guilds WHERE guild_id = ?",
		func(stmt *sqlite.Stmt) error {
			found = true
			b = GuildBan{
				GuildID:   stmt.ColumnText(0),
				Name:      stmt.ColumnText(1),
				Reason:    reasonOrDefault(stmt.ColumnText(2)),
				CreatedAt: stmt.ColumnInt64(3),
				NoAppeal:  stmt.ColumnInt64(4) != 0,
			}
			return nil
		}, guildID)
	return b, found, err
}

func (s *sqliteStore) SetGuildBan(b GuildBan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec(
		"INSERT OR REPLACE INTO banned_guilds (guild_id, name, reason, created_at, no_appeal) VALUES (?, ?, ?, ?, ?)",
		b.GuildID, b.Name, b.Reason, b.CreatedAt, boolInt(b.NoAppeal))
}

func (s *sqliteStore) DeleteGuildBan(guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec("DELETE FROM banned_guilds WHERE guild_id = ?", guildID)
}

func (s *sqliteStore) GuildBans() ([]GuildBan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []GuildBan
	err := s.query(
		"SELECT guild_id, name, reason, created_at, no_appeal FROM banned_guilds ORDER BY created_at",
		func(stmt *sqlite.Stmt) error {
			list = append(list, GuildBan{
				GuildID:   stmt.ColumnText(0),
				Name:      stmt.ColumnText(1),
				Reason:    reasonOrDefault(stmt.ColumnText(2)),
				CreatedAt: stmt.ColumnInt64(3),
				NoAppeal:  stmt.ColumnInt64(4) != 0,
			})
			return nil
		})
	return list, err
}

func (s *sqliteStore) AppendRemovedGuild(r RemovedGuild) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec(
		"INSERT INTO removed_guilds (guild_id, name, removed_at) VALUES (?, ?, ?)",
		r.GuildID, r.Name, r.RemovedAt)
}

func (s *sqliteStore) RemovedGuilds() ([]RemovedGuild, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []RemovedGuild
	err := s.query(
		"SELECT guild_id, name, removed_at FROM removed_guilds ORDER BY removed_at",
		func(stmt *sqlite.Stmt) error {
			list = append(list, RemovedGuild{
				GuildID:   stmt.ColumnText(0),
				Name:      stmt.ColumnText(1),
				RemovedAt: stmt.ColumnInt64(2),
			})
			return nil
		})
	return list, err
}

func (s *sqliteStore) SeenLinks(guildID string) ([]SeenLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []SeenLink
	err := s.query(
		"SELECT link, first_seen FROM seen_links WHERE guild_id = ? ORDER BY first_seen",
		func(stmt *sqlite.Stmt) error {
			list = append(list, SeenLink{
				Link:      stmt.ColumnText(0),
				FirstSeen: stmt.ColumnInt64(1),
			})
			return nil
		}, guildID)
	return list, err
}

func (s *sqliteStore) PutSeenLinks(guildID string, links []SeenLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.exec("BEGIN TRANSACTION"); err != nil {
		return err
	}
	if err := s.exec("DELETE FROM seen_links WHERE guild_id = ?", guildID); err != nil {
		s.exec("ROLLBACK")
		return err
	}
	for _, l := range links {
		err := s.exec(
			"INSERT INTO seen_links (guild_id, link, first_seen) VALUES (?, ?, ?)",
			guildID, l.Link, l.FirstSeen)
		if err != nil {
			s.exec("ROLLBACK")
			return err
		}
	}
	return s.exec("COMMIT")
}

func (s *sqliteStore) SeenLinkGuilds() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []string
	err := s.query(
		"SELECT DISTINCT guild_id FROM seen_links ORDER BY guild_id",
		func(stmt *sqlite.Stmt) error {
			list = append(list, stmt.ColumnText(0))
			return nil
		})
	return list, err
}

func (s *sqliteStore) InviteEntry(code string) (InviteEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var e InviteEntry
	found := false
	err := s.query(
		"SELECT code, guild_id, guild_name, fetched_at FROM invite_cache WHERE code = ?",
		func(stmt *sqlite.Stmt) error {
			found = true
			e = InviteEntry{
				Code:      stmt.ColumnText(0),
				GuildID:   stmt.ColumnText(1),
				GuildName: stmt.ColumnText(2),
				FetchedAt: stmt.ColumnInt64(3),
			}
			return nil
		}, code)
	return e, found, err
}

func (s *sqliteStore) SetInviteEntry(e InviteEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec(
		"INSERT OR REPLACE INTO invite_cache (code, guild_id, guild_name, fetched_at) VALUES (?, ?, ?, ?)",
		e.Code, e.GuildID, e.GuildName, e.FetchedAt)
}

func (s *sqliteStore) InviteEntries() ([]InviteEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []InviteEntry
	err := s.query(
		"SELECT code, guild_id, guild_name, fetched_at FROM invite_cache ORDER BY fetched_at",
		func(stmt *sqlite.Stmt) error {
			list = append(list, InviteEntry{
				Code:      stmt.ColumnText(0),
				GuildID:   stmt.ColumnText(1),
				GuildName: stmt.ColumnText(2),
				FetchedAt: stmt.ColumnInt64(3),
			})
			return nil
		})
	return list, err
}

func (s *sqliteStore) Maintenance() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enabled := false
	err := s.query(
		"SELECT enabled FROM maintenance WHERE id = 1",
		func(stmt *sqlite.Stmt) error {
			enabled = stmt.ColumnInt64(0) != 0
			return nil
		})
	return enabled, err
}

func (s *sqliteStore) SetMaintenance(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec(
		"INSERT OR REPLACE INTO maintenance (id, enabled) VALUES (1, ?)",
		boolInt(enabled))
}

func (s *sqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
