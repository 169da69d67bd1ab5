package core

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/command"
)

func init() {
	command.Register(&UpdateTreeCommand{})
}

type UpdateTreeCommand struct{}

func (c *UpdateTreeCommand) Name() string        { return "update_tree" }
func (c *UpdateTreeCommand) Description() string { return "Resync slash commands with Discord" }
func (c *UpdateTreeCommand) OperatorOnly() bool  { return true }

func (c *UpdateTreeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *UpdateTreeCommand) Run(ctx *command.Context) error {
	if err := ctx.Defer(true); err != nil {
		return err
	}

	total, err := ctx.Deps.Resync()
	if err != nil {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ Failed to sync commands: %v", err))
	}
	return ctx.ReplyEphemeral(fmt.Sprintf("✅ Command tree synced! Total commands: %d", total))
}
