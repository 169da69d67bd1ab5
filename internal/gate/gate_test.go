package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkpatrol/internal/banlist"
	"linkpatrol/internal/storage"
)

func newTestGate(t *testing.T, operators ...string) (*Gate, *banlist.Service) {
	t.Helper()
	store, err := storage.OpenJSON(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bans, err := banlist.New(store)
	require.NoError(t, err)
	return New(bans, operators), bans
}

func TestCheck_CleanUserPasses(t *testing.T) {
	g, _ := newTestGate(t)
	assert.Nil(t, g.Check("100", "200"))
	assert.Nil(t, g.Check("100", "")) // DM interaction
}

func TestCheck_PermanentBan(t *testing.T) {
	g, bans := newTestGate(t)
	_, err := bans.AddUserBan("100", "spam", true, false)
	require.NoError(t, err)

	d := g.Check("100", "200")
	require.NotNil(t, d)
	assert.Equal(t, UserBanned, d.Kind)
	assert.Equal(t, "spam", d.Reason)
	assert.True(t, d.NoAppeal)
}

func TestCheck_TempBan(t *testing.T) {
	g, bans := newTestGate(t)
	ban, err := bans.AddTempBan("100", 30, "cooldown", false)
	require.NoError(t, err)

	d := g.Check("100", "")
	require.NotNil(t, d)
	assert.Equal(t, UserTempBanned, d.Kind)
	assert.Equal(t, ban.ExpiresAt, d.ExpiresAt)
	assert.Equal(t, "cooldown", d.Reason)
}

func TestCheck_GuildBan(t *testing.T) {
	g, bans := newTestGate(t)
	_, err := bans.AddGuildBan("200", "Bad Server", "raiding", false)
	require.NoError(t, err)

	d := g.Check("100", "200")
	require.NotNil(t, d)
	assert.Equal(t, GuildBanned, d.Kind)
	assert.Equal(t, "Bad Server", d.GuildName)

	// A guild ban never reaches DM interactions
	assert.Nil(t, g.Check("100", ""))
}

func TestCheck_UserBanWinsOverGuildBan(t *testing.T) {
	g, bans := newTestGate(t)
	_, err := bans.AddUserBan("100", "spam", false, false)
	require.NoError(t, err)
	_, err = bans.AddGuildBan("200", "Bad Server", "raiding", false)
	require.NoError(t, err)

	d := g.Check("100", "200")
	require.NotNil(t, d)
	assert.Equal(t, UserBanned, d.Kind)
}

func TestCheck_OperatorBypassesEverything(t *testing.T) {
	g, bans := newTestGate(t, "900")
	_, err := bans.AddUserBan("900", "even operators get banned", false, false)
	require.NoError(t, err)
	_, err = bans.AddGuildBan("200", "Bad Server", "raiding", false)
	require.NoError(t, err)

	assert.True(t, g.IsOperator("900"))
	assert.Nil(t, g.Check("900", "200"))
	assert.False(t, g.IsOperator("100"))
}

func TestCheck_ExpiredTempBanPasses(t *testing.T) {
	store, err := storage.OpenJSON(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	// Expired long before the check runs
	require.NoError(t, store.SetTempBan(storage.TempBan{UserID: "101", Reason: "old", ExpiresAt: 1}))
	bans, err := banlist.New(store)
	require.NoError(t, err)

	assert.Nil(t, New(bans, nil).Check("101", ""))
}
