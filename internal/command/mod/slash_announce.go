package mod

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/broadcast"
	"linkpatrol/internal/command"
)

func init() {
	command.Register(&AnnounceCommand{})
}

// AnnounceCommand fans a fixed-title embed out to every connected guild.
// The fan-out runs as a detached task so the interaction gets its reply
// immediately; progress comes back through follow-up messages.
type AnnounceCommand struct{}

func (c *AnnounceCommand) Name() string        { return "announce" }
func (c *AnnounceCommand) Description() string { return "Send a global announcement" }
func (c *AnnounceCommand) OperatorOnly() bool  { return true }

func (c *AnnounceCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "message",
				Description: "Message to announce",
				Required:    true,
			},
		},
	}
}

func (c *AnnounceCommand) Run(ctx *command.Context) error {
	message := ctx.StringOption("message")
	targets := guildTargets(ctx.Session)

	embed := &discordgo.MessageEmbed{
		Title:       "Global Announcement From Developer",
		Description: message,
		Color:       command.ColorOK,
	}

	opts := broadcast.DefaultOptions()
	opts.Fallback = ctx.Deps.Config.BroadcastFallback
	caster := broadcast.New(opts)

	if ctx.Deps.Tasks.Running("announce") {
		return ctx.ReplyEphemeral("⚠️ A broadcast is already running.")
	}
	if err := ctx.ReplyEphemeral(fmt.Sprintf("Broadcast started across %d guilds...", len(targets))); err != nil {
		return err
	}

	session := ctx.Session
	err := ctx.Deps.Tasks.Start("announce", func(taskCtx context.Context) error {
		final := caster.Run(taskCtx, targets, func(sendCtx context.Context, channelID string) error {
			_, err := session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
				Embeds: []*discordgo.MessageEmbed{embed},
			}, discordgo.WithContext(sendCtx))
			return err
		}, func(p broadcast.Progress) {
			status := fmt.Sprintf("📣 Broadcast: %d/%d processed | sent %d | failed %d | skipped %d",
				p.Processed, p.Total, p.Succeeded, p.Failed, p.Skipped)
			if err := ctx.ReplyEphemeral(status); err != nil {
				log.Println("[WARN] Failed to post broadcast progress:", err)
			}
		})
		log.Printf("[INFO] Broadcast finished: sent %d, failed %d, skipped %d of %d",
			final.Succeeded, final.Failed, final.Skipped, final.Total)
		return nil
	})
	if err != nil {
		return ctx.ReplyEphemeral("⚠️ A broadcast is already running.")
	}
	return nil
}

// guildTargets snapshots the connected guilds and their text channels with
// the bot's send permission resolved per channel.
func guildTargets(s *discordgo.Session) []broadcast.Guild {
	var out []broadcast.Guild
	for _, g := range s.State.Guilds {
		target := broadcast.Guild{ID: g.ID, Name: g.Name}
		for _, ch := range g.Channels {
			if ch.Type != discordgo.ChannelTypeGuildText {
				continue
			}
			perms, err := s.State.UserChannelPermissions(s.State.User.ID, ch.ID)
			if err != nil {
				if perms, err = s.UserChannelPermissions(s.State.User.ID, ch.ID); err != nil {
					continue
				}
			}
			target.Channels = append(target.Channels, broadcast.Channel{
				ID:      ch.ID,
				Name:    ch.Name,
				CanSend: perms&discordgo.PermissionSendMessages != 0,
			})
		}
		out = append(out, target)
	}
	return out
}
