package mod

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/command"
)

func init() {
	command.Register(&BanUserCommand{})
}

type BanUserCommand struct{}

func (c *BanUserCommand) Name() string        { return "ban_user" }
func (c *BanUserCommand) Description() string { return "Ban a user from using the bot" }
func (c *BanUserCommand) OperatorOnly() bool  { return true }

func (c *BanUserCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "user_id",
				Description: "User ID to ban",
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
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "gban",
				Description: "Also refuse servers this user invites the bot to",
			},
		},
	}
}

func (c *BanUserCommand) Run(ctx *command.Context) error {
	uid := ctx.StringOption("user_id")
	if !validID(uid) {
		return ctx.ReplyEphemeral("❌ Invalid user ID.")
	}
	reason := ctx.StringOption("reason")
	noAppeal := ctx.BoolOption("no_appeal")
	gban := ctx.BoolOption("gban")

	b, err := ctx.Deps.Bans.AddUserBan(uid, reason, noAppeal, gban)
	if err != nil {
		return err
	}

	// Best-effort DM; failure is expected when DMs are closed.
	if dm, err := ctx.Session.UserChannelCreate(uid); err == nil {
		msg := fmt.Sprintf("You were banned.\nReason: %s\nGlobal Ban: %v", b.Reason, b.GBan)
		if _, err := ctx.Session.ChannelMessageSend(dm.ID, msg); err != nil {
			log.Printf("[WARN] Could not DM banned user %s: %v", uid, err)
		}
	}

	return ctx.ReplyEphemeral(fmt.Sprintf("✅ User `%s` banned.\n**Reason:** %s\nGBAN=%v", uid, reason, gban))
}
