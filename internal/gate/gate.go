// Package gate holds the single pre-command predicate: operator bypass,
// permanent and temporary user bans, guild bans. The gate only decides;
// rendering the denial is the dispatcher's job.
package gate

import (
	"linkpatrol/internal/banlist"
)

// Kind classifies a denial.
type Kind int

const (
	UserBanned Kind = iota
	UserTempBanned
	GuildBanned
)

// Denial carries everything the dispatcher needs to render a refusal.
type Denial struct {
	Kind      Kind
	Reason    string
	ExpiresAt int64 // set for UserTempBanned
	NoAppeal  bool
	GuildName string // set for GuildBanned when known
}

type Gate struct {
	bans      *banlist.Service
	operators map[string]struct{}
}

func New(bans *banlist.Service, operatorIDs []string) *Gate {
	ops := make(map[string]struct{}, len(operatorIDs))
	for _, id := range operatorIDs {
		if id != "" {
			ops[id] = struct{}{}
		}
	}
	return &Gate{bans: bans, operators: ops}
}

// IsOperator reports whether the user is in the fixed operator set.
func (g *Gate) IsOperator(userID string) bool {
	_, ok := g.operators[userID]
	return ok
}

// Check returns nil when the command may run, or the denial to render.
// guildID is empty for DM interactions. First match short-circuits:
// operator bypass, permanent ban, temp ban, guild ban.
func (g *Gate) Check(userID, guildID string) *Denial {
	if g.IsOperator(userID) {
		return nil
	}

	status, perm, temp := g.bans.UserStatus(userID)
	switch status {
	case banlist.StatusPermanent:
		return &Denial{
			Kind:     UserBanned,
			Reason:   perm.Reason,
			NoAppeal: perm.NoAppeal,
		}
	case banlist.StatusTemporary:
		return &Denial{
			Kind:      UserTempBanned,
			Reason:    temp.Reason,
			ExpiresAt: temp.ExpiresAt,
			NoAppeal:  temp.NoAppeal,
		}
	}

	if guildID != "" {
		if b, ok := g.bans.GuildStatus(guildID); ok {
			return &Denial{
				Kind:      GuildBanned,
				Reason:    b.Reason,
				NoAppeal:  b.NoAppeal,
				GuildName: b.Name,
			}
		}
	}

	return nil
}
