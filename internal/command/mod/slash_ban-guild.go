package mod

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/command"
)

func init() {
	command.Register(&BanGuildCommand{})
	command.Register(&UnbanGuildCommand{})
}

type BanGuildCommand struct{}

func (c *BanGuildCommand) Name() string        { return "ban_guild" }
func (c *BanGuildCommand) Description() string { return "Ban a server from using the bot" }
func (c *BanGuildCommand) OperatorOnly() bool  { return true }

func (c *BanGuildCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "guild_id",
				Description: "Guild ID to ban",
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

func (c *BanGuildCommand) Run(ctx *command.Context) error {
	gid := ctx.StringOption("guild_id")
	if !validID(gid) {
		return ctx.ReplyEphemeral("❌ Invalid guild ID.")
	}
	reason := ctx.StringOption("reason")
	noAppeal := ctx.BoolOption("no_appeal")

	// The name is cached at ban time when the bot is still a member.
	name := ""
	if g, err := ctx.Session.State.Guild(gid); err == nil {
		name = g.Name
	}

	b, err := ctx.Deps.Bans.AddGuildBan(gid, name, reason, noAppeal)
	if err != nil {
		return err
	}

	if name != "" {
		if err := ctx.Session.GuildLeave(gid); err != nil {
			log.Printf("[ERR] Failed to leave banned guild %s: %v", gid, err)
		}
	}

	label := b.Name
	if label == "" {
		label = gid
	}
	return ctx.ReplyEphemeral(fmt.Sprintf("✅ Guild `%s` banned.\n**Reason:** %s", label, reason))
}

type UnbanGuildCommand struct{}

func (c *UnbanGuildCommand) Name() string        { return "unban_guild" }
func (c *UnbanGuildCommand) Description() string { return "Unban a server" }
func (c *UnbanGuildCommand) OperatorOnly() bool  { return true }

func (c *UnbanGuildCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "guild_id",
				Description: "Guild ID to unban",
				Required:    true,
			},
		},
	}
}

func (c *UnbanGuildCommand) Run(ctx *command.Context) error {
	gid := ctx.StringOption("guild_id")
	if !validID(gid) {
		return ctx.ReplyEphemeral("❌ Invalid guild ID.")
	}
	if err := ctx.Deps.Bans.RemoveGuildBan(gid); err != nil {
		return err
	}
	return ctx.ReplyEphemeral(fmt.Sprintf("✅ Guild `%s` unbanned.", gid))
}
