package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openers lets every behavioral test run against both drivers.
func openers(t *testing.T) map[string]func(t *testing.T) (Store, func() (Store, error)) {
	t.Helper()
	return map[string]func(t *testing.T) (Store, func() (Store, error)){
		"json": func(t *testing.T) (Store, func() (Store, error)) {
			dir := t.TempDir()
			s, err := OpenJSON(dir)
			require.NoError(t, err)
			return s, func() (Store, error) { return OpenJSON(dir) }
		},
		"sqlite": func(t *testing.T) (Store, func() (Store, error)) {
			path := filepath.Join(t.TempDir(), "linkpatrol.db")
			s, err := OpenSQLite(path)
			require.NoError(t, err)
			return s, func() (Store, error) { return OpenSQLite(path) }
		},
	}
}

func TestStore_UserBans(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s, reopen := open(t)

			_, ok, err := s.UserBan("100")
			require.NoError(t, err)
			assert.False(t, ok)

			ban := UserBan{UserID: "100", Reason: "spam", CreatedAt: 1700000000, NoAppeal: true, GBan: true}
			require.NoError(t, s.SetUserBan(ban))

			got, ok, err := s.UserBan("100")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, ban, got)

			// Upsert overwrites
			ban.Reason = "spam again"
			require.NoError(t, s.SetUserBan(ban))
			got, _, err = s.UserBan("100")
			require.NoError(t, err)
			assert.Equal(t, "spam again", got.Reason)

			list, err := s.UserBans()
			require.NoError(t, err)
			require.Len(t, list, 1)

			// Survives reopen
			require.NoError(t, s.Close())
			s, err = reopen()
			require.NoError(t, err)
			defer s.Close()

			got, ok, err = s.UserBan("100")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, ban, got)

			require.NoError(t, s.DeleteUserBan("100"))
			_, ok, err = s.UserBan("100")
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting an absent row is not an error
			require.NoError(t, s.DeleteUserBan("100"))
		})
	}
}

func TestStore_TempBans(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s, _ := open(t)
			defer s.Close()

			ban := TempBan{UserID: "200", Reason: "cooldown", ExpiresAt: 1700003600, GBan: true}
			require.NoError(t, s.SetTempBan(ban))

			got, ok, err := s.TempBan("200")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, ban, got)

			require.NoError(t, s.DeleteTempBan("200"))
			_, ok, err = s.TempBan("200")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_GuildBans(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s, _ := open(t)
			defer s.Close()

			ban := GuildBan{GuildID: "300", Name: "Bad Server", Reason: "raiding", CreatedAt: 1700000000}
			require.NoError(t, s.SetGuildBan(ban))

			got, ok, err := s.GuildBan("300")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, ban, got)

			require.NoError(t, s.DeleteGuildBan("300"))
			_, ok, err = s.GuildBan("300")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_RemovedGuilds(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s, _ := open(t)
			defer s.Close()

			require.NoError(t, s.AppendRemovedGuild(RemovedGuild{GuildID: "1", Name: "First", RemovedAt: 10}))
			require.NoError(t, s.AppendRemovedGuild(RemovedGuild{GuildID: "2", Name: "Second", RemovedAt: 20}))
			// Duplicates are an audit trail, not a set
			require.NoError(t, s.AppendRemovedGuild(RemovedGuild{GuildID: "1", Name: "First", RemovedAt: 30}))

			list, err := s.RemovedGuilds()
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "1", list[0].GuildID)
			assert.Equal(t, "2", list[1].GuildID)
			assert.Equal(t, int64(30), list[2].RemovedAt)
		})
	}
}

func TestStore_SeenLinks(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s, reopen := open(t)

			links, err := s.SeenLinks("g1")
			require.NoError(t, err)
			assert.Empty(t, links)

			set := []SeenLink{
				{Link: "https://www.roblox.com/share?code=AAA", FirstSeen: 100},
				{Link: "https://www.roblox.com/share?code=BBB", FirstSeen: 200},
			}
			require.NoError(t, s.PutSeenLinks("g1", set))
			require.NoError(t, s.PutSeenLinks("g2", set[:1]))

			got, err := s.SeenLinks("g1")
			require.NoError(t, err)
			assert.Equal(t, set, got)

			guilds, err := s.SeenLinkGuilds()
			require.NoError(t, err)
			assert.Equal(t, []string{"g1", "g2"}, guilds)

			// Replacement is wholesale, and order is preserved across reopen
			require.NoError(t, s.PutSeenLinks("g1", set[1:]))
			require.NoError(t, s.Close())
			var e error
			s, e = reopen()
			require.NoError(t, e)
			defer s.Close()

			got, err = s.SeenLinks("g1")
			require.NoError(t, err)
			assert.Equal(t, set[1:], got)
		})
	}
}

func TestStore_InviteEntries(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s, _ := open(t)
			defer s.Close()

			e := InviteEntry{Code: "abc123", GuildID: "400", GuildName: "Some Server", FetchedAt: 1700000000}
			require.NoError(t, s.SetInviteEntry(e))

			got, ok, err := s.InviteEntry("abc123")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, e, got)

			list, err := s.InviteEntries()
			require.NoError(t, err)
			require.Len(t, list, 1)
		})
	}
}

func TestStore_Maintenance(t *testing.T) {
	for name, open := range openers(t) {
		t.Run(name, func(t *testing.T) {
			s, reopen := open(t)

			on, err := s.Maintenance()
			require.NoError(t, err)
			assert.False(t, on)

			require.NoError(t, s.SetMaintenance(true))
			require.NoError(t, s.Close())

			s, err = reopen()
			require.NoError(t, err)
			defer s.Close()

			on, err = s.Maintenance()
			require.NoError(t, err)
			assert.True(t, on)
		})
	}
}

func TestOpenJSON_LegacyShapes(t *testing.T) {
	dir := t.TempDir()

	// Old files mixed bare ids with record objects, and records themselves
	// drifted: numeric ids, float timestamps, null fields.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "banned_users.json"),
		[]byte(`[
			123,
			"456",
			{"id": "789", "reason": "spam", "gban": true},
			{"id": 790, "reason": "numeric id", "timestamp": 1700000000.5},
			{"id": 791, "reason": "no clock", "timestamp": null}
		]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "temp_bans.json"),
		[]byte(`[{"id": 888, "reason": "cooling off", "expires": 1700003600.25, "gban": true}]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "banned_guilds.json"),
		[]byte(`[111, {"id": "222", "name": "Old Server", "reason": ""}, {"id": 333, "name": null, "reason": "raids", "timestamp": 1700000001.9}]`), 0644))

	s, err := OpenJSON(dir)
	require.NoError(t, err)
	defer s.Close()

	for _, id := range []string{"123", "456"} {
		b, ok, err := s.UserBan(id)
		require.NoError(t, err)
		require.True(t, ok, "legacy id %s", id)
		assert.Equal(t, NoReason, b.Reason)
		assert.False(t, b.GBan)
	}

	b, ok, err := s.UserBan("789")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "spam", b.Reason)
	assert.True(t, b.GBan)

	b, ok, err = s.UserBan("790")
	require.NoError(t, err)
	require.True(t, ok, "legacy record with numeric id must be accepted on read")
	assert.Equal(t, "numeric id", b.Reason)
	assert.Equal(t, int64(1700000000), b.CreatedAt)

	b, ok, err = s.UserBan("791")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, b.CreatedAt)

	tb, ok, err := s.TempBan("888")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1700003600), tb.ExpiresAt)
	assert.True(t, tb.GBan)

	g, ok, err := s.GuildBan("111")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, NoReason, g.Reason)

	g, ok, err = s.GuildBan("222")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Old Server", g.Name)
	assert.Equal(t, NoReason, g.Reason)

	g, ok, err = s.GuildBan("333")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "raids", g.Reason)
	assert.Equal(t, int64(1700000001), g.CreatedAt)

	// The next mutation rewrites the table in record form without losses.
	require.NoError(t, s.SetUserBan(UserBan{UserID: "999", Reason: "new", CreatedAt: 5}))
	s2, err := OpenJSON(dir)
	require.NoError(t, err)
	defer s2.Close()
	list, err := s2.UserBans()
	require.NoError(t, err)
	assert.Len(t, list, 6)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("bolt", t.TempDir())
	require.Error(t, err)
}
