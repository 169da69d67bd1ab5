package command

import (
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/banlist"
	"linkpatrol/internal/config"
	"linkpatrol/internal/gate"
	"linkpatrol/internal/invite"
	"linkpatrol/internal/linkcollector"
	"linkpatrol/internal/maintenance"
	"linkpatrol/internal/storage"
	"linkpatrol/pkg/jobmgr"
)

// Command is one slash command. OperatorOnly commands are additionally
// restricted to the operator set after the gate has run.
type Command interface {
	Name() string
	Description() string
	OperatorOnly() bool
	SlashDefinition() *discordgo.ApplicationCommand
	Run(ctx *Context) error
}

// Deps is the service object threaded through every handler; handlers never
// reach for process-level state.
type Deps struct {
	Config  *config.Config
	Store   storage.Store
	Bans    *banlist.Service
	Gate    *gate.Gate
	Links   *linkcollector.Collector
	Invites *invite.Resolver
	Flag    *maintenance.Flag
	Tasks   *jobmgr.Manager

	// Resync re-registers the command tree with Discord; wired by the
	// discord layer to keep this package transport-free.
	Resync func() (int, error)
}

// Context is handed to handlers. It owns the reply state machine: the first
// reply consumes the interaction response slot, everything after goes out as
// a follow-up message.
type Context struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Deps    *Deps

	mu      sync.Mutex
	replied bool
}

// UserID returns the invoking user, whether the interaction came from a
// guild or a DM.
func (c *Context) UserID() string {
	if c.Event.Member != nil && c.Event.Member.User != nil {
		return c.Event.Member.User.ID
	}
	if c.Event.User != nil {
		return c.Event.User.ID
	}
	return ""
}

// GuildID is empty for DM interactions.
func (c *Context) GuildID() string {
	return c.Event.GuildID
}

func (c *Context) options() []*discordgo.ApplicationCommandInteractionDataOption {
	return c.Event.ApplicationCommandData().Options
}

func (c *Context) StringOption(name string) string {
	for _, opt := range c.options() {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

func (c *Context) IntOption(name string) (int64, bool) {
	for _, opt := range c.options() {
		if opt.Name == name {
			return opt.IntValue(), true
		}
	}
	return 0, false
}

func (c *Context) BoolOption(name string) bool {
	for _, opt := range c.options() {
		if opt.Name == name {
			return opt.BoolValue()
		}
	}
	return false
}

// Defer consumes the first-reply slot with a deferred "thinking" response.
func (c *Context) Defer(ephemeral bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replied {
		return nil
	}
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := c.Session.InteractionRespond(c.Event.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		return err
	}
	c.replied = true
	return nil
}

func (c *Context) Reply(content string) error {
	return c.send(&discordgo.InteractionResponseData{Content: content})
}

func (c *Context) ReplyEphemeral(content string) error {
	return c.send(&discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func (c *Context) ReplyEmbed(embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) error {
	return c.send(&discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
}

func (c *Context) ReplyEmbedEphemeral(embed *discordgo.MessageEmbed) error {
	return c.send(&discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

// ReplyFile sends a text attachment, ephemerally.
func (c *Context) ReplyFile(name, contents string) error {
	return c.send(&discordgo.InteractionResponseData{
		Files: []*discordgo.File{{
			Name:        name,
			ContentType: "text/plain",
			Reader:      strings.NewReader(contents),
		}},
		Flags: discordgo.MessageFlagsEphemeral,
	})
}

// send routes through the response slot exactly once, then follow-ups.
func (c *Context) send(data *discordgo.InteractionResponseData) error {
	c.mu.Lock()
	first := !c.replied
	c.replied = true
	c.mu.Unlock()

	if first {
		return c.Session.InteractionRespond(c.Event.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		})
	}

	_, err := c.Session.FollowupMessageCreate(c.Event.Interaction, true, &discordgo.WebhookParams{
		Content:    data.Content,
		Embeds:     data.Embeds,
		Components: data.Components,
		Files:      data.Files,
		Flags:      data.Flags,
	})
	return err
}
