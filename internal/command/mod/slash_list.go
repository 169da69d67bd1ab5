package mod

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/command"
)

func init() {
	command.Register(&ListBannedCommand{})
	command.Register(&ListBannedUsersCommand{})
	command.Register(&ListRemovedCommand{})
}

// Listings under this limit go inline, longer ones become an attachment.
const inlineListLimit = 1800

func replyListing(ctx *command.Context, header, text, filename string) error {
	if len(text) <= inlineListLimit {
		return ctx.ReplyEphemeral(fmt.Sprintf("**%s:**\n%s", header, text))
	}
	return ctx.ReplyFile(filename, text)
}

type ListBannedCommand struct{}

func (c *ListBannedCommand) Name() string        { return "list_banned" }
func (c *ListBannedCommand) Description() string { return "List all banned servers" }
func (c *ListBannedCommand) OperatorOnly() bool  { return true }

func (c *ListBannedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ListBannedCommand) Run(ctx *command.Context) error {
	var lines []string
	for i, b := range ctx.Deps.Bans.GuildBans() {
		name := b.Name
		if name == "" {
			if g, err := ctx.Session.State.Guild(b.GuildID); err == nil {
				name = g.Name
			} else {
				name = "Unknown"
			}
		}
		lines = append(lines, fmt.Sprintf("%d. %s | %s | Reason: %s", i+1, name, b.GuildID, b.Reason))
	}
	text := strings.Join(lines, "\n")
	if text == "" {
		text = "No banned guilds."
	}
	return replyListing(ctx, "Banned guilds", text, "banned_guilds.txt")
}

type ListBannedUsersCommand struct{}

func (c *ListBannedUsersCommand) Name() string        { return "list_banned_users" }
func (c *ListBannedUsersCommand) Description() string { return "List all banned users" }
func (c *ListBannedUsersCommand) OperatorOnly() bool  { return true }

func (c *ListBannedUsersCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ListBannedUsersCommand) Run(ctx *command.Context) error {
	var lines []string
	for i, b := range ctx.Deps.Bans.UserBans() {
		line := fmt.Sprintf("%d. %s | Reason: %s", i+1, b.UserID, b.Reason)
		if b.CreatedAt > 0 {
			line += fmt.Sprintf(" | Banned at: <t:%d:F>", b.CreatedAt)
		}
		if b.GBan {
			line += " | GBAN"
		}
		lines = append(lines, line)
	}
	text := strings.Join(lines, "\n")
	if text == "" {
		text = "No banned users."
	}
	return replyListing(ctx, "Banned users", text, "banned_users.txt")
}

type ListRemovedCommand struct{}

func (c *ListRemovedCommand) Name() string        { return "list_removed" }
func (c *ListRemovedCommand) Description() string { return "List servers the bot was removed from" }
func (c *ListRemovedCommand) OperatorOnly() bool  { return true }

func (c *ListRemovedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ListRemovedCommand) Run(ctx *command.Context) error {
	var lines []string
	for i, r := range ctx.Deps.Bans.RemovedGuilds() {
		name := r.Name
		if name == "" {
			name = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("%d. %s | %s", i+1, name, r.GuildID))
	}
	text := strings.Join(lines, "\n")
	if text == "" {
		text = "No removed guilds."
	}
	return replyListing(ctx, "Removed guilds", text, "removed_guilds.txt")
}
