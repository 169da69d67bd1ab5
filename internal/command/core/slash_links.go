package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/command"
)

func init() {
	command.Register(&LinksCommand{})
}

// feedImageURL is the banner image shown on link feed embeds.
const feedImageURL = "https://pbs.twimg.com/media/GvwdBD4XQAAL-u0.jpg"

type LinksCommand struct{}

func (c *LinksCommand) Name() string        { return "links" }
func (c *LinksCommand) Description() string { return "Get the latest detected share links" }
func (c *LinksCommand) OperatorOnly() bool  { return false }

func (c *LinksCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *LinksCommand) Run(ctx *command.Context) error {
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

	if len(links) > 10 {
		links = links[:10]
	}
	pretty := make([]string, 0, len(links))
	for i, l := range links {
		pretty = append(pretty, fmt.Sprintf("[Click Here (%d)](%s)", i+1, l))
	}

	title := "⚠️ Latest Detected Share Links 🔗"
	description := strings.Join(pretty, "\n\n")
	color := command.ColorOK
	if ctx.Deps.Flag.Enabled() {
		title = "⚠️ Maintenance Mode 🟠 | " + title
		description = "⚠️ The bot is currently in maintenance mode and may experience issues.\n\n" + description
		color = command.ColorMaintenance
	}

	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Image:       &discordgo.MessageEmbedImage{URL: feedImageURL},
		Footer:      &discordgo.MessageEmbedFooter{Text: "DM the operator for bug reports"},
	})
}
