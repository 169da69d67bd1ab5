package core

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/command"
)

func init() {
	command.Register(&MaintenanceCommand{})
}

type MaintenanceCommand struct{}

func (c *MaintenanceCommand) Name() string        { return "maintenance" }
func (c *MaintenanceCommand) Description() string { return "Toggle maintenance mode" }
func (c *MaintenanceCommand) OperatorOnly() bool  { return true }

func (c *MaintenanceCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "state",
				Description: "on or off",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "on", Value: "on"},
					{Name: "off", Value: "off"},
				},
			},
		},
	}
}

func (c *MaintenanceCommand) Run(ctx *command.Context) error {
	state := ctx.StringOption("state")
	if state != "on" && state != "off" {
		return ctx.ReplyEphemeral("Use: /maintenance on | /maintenance off")
	}
	if err := ctx.Deps.Flag.Set(state == "on"); err != nil {
		return err
	}
	return ctx.ReplyEphemeral(fmt.Sprintf("Maintenance set to **%s**", state))
}
