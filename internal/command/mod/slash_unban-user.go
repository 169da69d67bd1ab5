package mod

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/command"
)

func init() {
	command.Register(&UnbanUserCommand{})
}

type UnbanUserCommand struct{}

func (c *UnbanUserCommand) Name() string        { return "unban_user" }
func (c *UnbanUserCommand) Description() string { return "Unban a user (lifts temp bans too)" }
func (c *UnbanUserCommand) OperatorOnly() bool  { return true }

func (c *UnbanUserCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "user_id",
				Description: "User ID to unban",
				Required:    true,
			},
		},
	}
}

func (c *UnbanUserCommand) Run(ctx *command.Context) error {
	uid := ctx.StringOption("user_id")
	if !validID(uid) {
		return ctx.ReplyEphemeral("❌ Invalid user ID.")
	}
	if err := ctx.Deps.Bans.RemoveUserBan(uid); err != nil {
		return err
	}
	return ctx.ReplyEphemeral(fmt.Sprintf("✅ User `%s` has been unbanned.", uid))
}
