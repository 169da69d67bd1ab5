package mod

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/command"
	"linkpatrol/internal/invite"
)

func init() {
	command.Register(&BanInviteCommand{})
}

// BanInviteCommand resolves an invite to its guild and bans that guild.
type BanInviteCommand struct{}

func (c *BanInviteCommand) Name() string        { return "ban_invite" }
func (c *BanInviteCommand) Description() string { return "Ban the server behind an invite" }
func (c *BanInviteCommand) OperatorOnly() bool  { return true }

func (c *BanInviteCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "invite",
				Description: "Invite code or URL",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "reason",
				Description: "Reason for the ban",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "no_appeal",
				Description: "Mark the ban as not appealable",
			},
		},
	}
}

func (c *BanInviteCommand) Run(ctx *command.Context) error {
	if err := ctx.Defer(true); err != nil {
		return err
	}

	resolved, err := ctx.Deps.Invites.Resolve(context.Background(), ctx.StringOption("invite"))
	if err != nil {
		var limited *invite.RateLimitedError
		var httpErr *invite.HTTPError
		switch {
		case errors.As(err, &limited):
			return ctx.ReplyEphemeral(fmt.Sprintf("⚠️ Rate-limited by Discord. Retry after %.1fs", limited.RetryAfter))
		case errors.As(err, &httpErr):
			return ctx.ReplyEphemeral(fmt.Sprintf("❌ Failed to resolve invite (HTTP %d).", httpErr.Status))
		case errors.Is(err, invite.ErrBadInvite):
			return ctx.ReplyEphemeral("❌ Could not parse invite.")
		case errors.Is(err, invite.ErrNoGuild):
			return ctx.ReplyEphemeral("❌ Invite returned no guild info.")
		default:
			return ctx.ReplyEphemeral(fmt.Sprintf("❌ Error resolving invite: %v", err))
		}
	}

	reason := ctx.StringOption("reason")
	b, err := ctx.Deps.Bans.AddGuildBan(resolved.GuildID, resolved.GuildName, reason, ctx.BoolOption("no_appeal"))
	if err != nil {
		return err
	}

	if _, err := ctx.Session.State.Guild(b.GuildID); err == nil {
		if err := ctx.Session.GuildLeave(b.GuildID); err != nil {
			log.Printf("[ERR] Failed to leave banned guild %s: %v", b.GuildID, err)
		}
	}

	return ctx.ReplyEphemeral(fmt.Sprintf(
		"✅ Guild **%s** (`%s`) banned.\n**Reason:** %s", b.Name, b.GuildID, reason))
}
