package core

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/command"
)

func init() {
	command.Register(&OneLinkCommand{})
}

// OneLinkCommand presents only the newest link, as a link button.
type OneLinkCommand struct{}

func (c *OneLinkCommand) Name() string        { return "onelink" }
func (c *OneLinkCommand) Description() string { return "Get the newest share link as a button" }
func (c *OneLinkCommand) OperatorOnly() bool  { return false }

func (c *OneLinkCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *OneLinkCommand) Run(ctx *command.Context) error {
	if err := ctx.Defer(false); err != nil {
		return err
	}

	links, err := ctx.Deps.Links.Collect(context.Background(), ctx.GuildID())
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return ctx.ReplyEphemeral("No new share links found 😢")
	}

	title := "🔗 Newest Share Link"
	color := command.ColorOK
	if ctx.Deps.Flag.Enabled() {
		title = "⚠️ Maintenance Mode 🟠 | " + title
		color = command.ColorMaintenance
	}

	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       title,
		Description: "Click the button below to open the link.",
		Color:       color,
	}, discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label: "Open Link",
				Style: discordgo.LinkButton,
				URL:   links[0],
			},
		},
	})
}
