package mod

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/command"
)

func init() {
	command.Register(&TempBanCommand{})
}

type TempBanCommand struct{}

func (c *TempBanCommand) Name() string        { return "tempban" }
func (c *TempBanCommand) Description() string { return "Temporarily ban a user" }
func (c *TempBanCommand) OperatorOnly() bool  { return true }

func (c *TempBanCommand) SlashDefinition() *discordgo.ApplicationCommand {
	minMinutes := float64(1)
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "user_id",
				Description: "User ID to tempban",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "duration_minutes",
				Description: "Duration in minutes",
				Required:    true,
				MinValue:    &minMinutes,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "reason",
				Description: "Reason for the tempban",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "gban",
				Description: "Also refuse servers this user invites the bot to",
			},
		},
	}
}

func (c *TempBanCommand) Run(ctx *command.Context) error {
	uid := ctx.StringOption("user_id")
	if !validID(uid) {
		return ctx.ReplyEphemeral("❌ Invalid user ID.")
	}
	minutes, ok := ctx.IntOption("duration_minutes")
	if !ok {
		return ctx.ReplyEphemeral("❌ Missing duration.")
	}
	reason := ctx.StringOption("reason")
	gban := ctx.BoolOption("gban")

	b, err := ctx.Deps.Bans.AddTempBan(uid, int(minutes), reason, gban)
	if err != nil {
		return err
	}
	return ctx.ReplyEphemeral(fmt.Sprintf(
		"✅ User `%s` tempbanned until <t:%d:F>.\n**Reason:** %s", uid, b.ExpiresAt, reason))
}
