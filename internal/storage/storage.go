// Package storage is the persistence layer. It exposes typed operations over
// the named tables and hides whether a deployment keeps them as per-table
// document files or inside a single embedded SQLite database.
package storage

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable wraps unrecoverable persistence I/O failures.
// Missing rows are never an error; reads report absence via their bool result.
var ErrStorageUnavailable = errors.New("storage unavailable")

// NoReason is substituted when a legacy entry carries no reason text.
const NoReason = "No reason recorded"

type UserBan struct {
	UserID    string `json:"id"`
	Reason    string `json:"reason"`
	CreatedAt int64  `json:"timestamp"`
	NoAppeal  bool   `json:"no_appeal"`
	GBan      bool   `json:"gban"`
}

type TempBan struct {
	UserID    string `json:"id"`
	Reason    string `json:"reason"`
	ExpiresAt int64  `json:"expires"`
	NoAppeal  bool   `json:"no_appeal"`
	GBan      bool   `json:"gban"`
}

type GuildBan struct {
	GuildID   string `json:"id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	CreatedAt int64  `json:"timestamp"`
	NoAppeal  bool   `json:"no_appeal"`
}

type RemovedGuild struct {
	GuildID   string `json:"id"`
	Name      string `json:"name"`
	RemovedAt int64  `json:"timestamp"`
}

type SeenLink struct {
	Link      string `json:"link"`
	FirstSeen int64  `json:"timestamp"`
}

type InviteEntry struct {
	Code      string `json:"code"`
	GuildID   string `json:"guild_id"`
	GuildName string `json:"guild_name"`
	FetchedAt int64  `json:"fetched_at"`
}

// Store is the persistence adapter. All implementations are safe for
// concurrent callers and every write is durable before the call returns.
type Store interface {
	UserBan(userID string) (UserBan, bool, error)
	SetUserBan(b UserBan) error
	DeleteUserBan(userID string) error
	UserBans() ([]UserBan, error)

	TempBan(userID string) (TempBan, bool, error)
	SetTempBan(b TempBan) error
	DeleteTempBan(userID string) error
	TempBans() ([]TempBan, error)

	GuildBan(guildID string) (GuildBan, bool, error)
	SetGuildBan(b GuildBan) error
	DeleteGuildBan(guildID string) error
	GuildBans() ([]GuildBan, error)

	AppendRemovedGuild(r RemovedGuild) error
	RemovedGuilds() ([]RemovedGuild, error)

	SeenLinks(guildID string) ([]SeenLink, error)
	PutSeenLinks(guildID string, links []SeenLink) error
	SeenLinkGuilds() ([]string, error)

	InviteEntry(code string) (InviteEntry, bool, error)
	SetInviteEntry(e InviteEntry) error
	InviteEntries() ([]InviteEntry, error)

	Maintenance() (bool, error)
	SetMaintenance(enabled bool) error

	Close() error
}

// Open creates a Store for the given driver ("json" or "sqlite").
// The path is a directory for the json driver and a db file for sqlite.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "json", "":
		return OpenJSON(path)
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
