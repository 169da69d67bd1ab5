package command

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/gate"
)

const (
	ColorOK          = 0x00ffcc
	ColorMaintenance = 0xffa500
	ColorDenied      = 0xff0000
)

// Dispatch runs the gate, then the handler, and owns terminal error replies.
// Handler panics and errors become a single generic ephemeral reply; nothing
// internal leaks to the invoker.
func Dispatch(s *discordgo.Session, e *discordgo.InteractionCreate, cmd Command, deps *Deps) {
	ctx := &Context{Session: s, Event: e, Deps: deps}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERR] Panic in command %s: %v", cmd.Name(), r)
			if err := ctx.ReplyEphemeral("Something went wrong while running this command."); err != nil {
				log.Println("[ERR] Failed to send panic reply:", err)
			}
		}
	}()

	if denial := deps.Gate.Check(ctx.UserID(), ctx.GuildID()); denial != nil {
		if err := ctx.ReplyEmbedEphemeral(denialEmbed(denial)); err != nil {
			log.Println("[ERR] Failed to send denial reply:", err)
		}
		return
	}

	if cmd.OperatorOnly() && !deps.Gate.IsOperator(ctx.UserID()) {
		if err := ctx.ReplyEphemeral("This command is operator-only."); err != nil {
			log.Println("[ERR] Failed to send operator-only reply:", err)
		}
		return
	}

	if err := cmd.Run(ctx); err != nil {
		log.Printf("[ERR] Command %s failed: %v", cmd.Name(), err)
		if rerr := ctx.ReplyEphemeral("Service error. Please try again later."); rerr != nil {
			log.Println("[ERR] Failed to send error reply:", rerr)
		}
	}
}

func denialEmbed(d *gate.Denial) *discordgo.MessageEmbed {
	appeal := "\nContact the operator to appeal."
	if d.NoAppeal {
		appeal = "\nThis decision is not appealable."
	}

	switch d.Kind {
	case gate.UserTempBanned:
		return &discordgo.MessageEmbed{
			Title: "⏳ You are temporarily banned",
			Description: fmt.Sprintf("**Reason:** %s\nExpires: <t:%d:F>%s",
				d.Reason, d.ExpiresAt, appeal),
			Color: ColorMaintenance,
		}
	case gate.GuildBanned:
		name := d.GuildName
		if name == "" {
			name = "Unknown"
		}
		return &discordgo.MessageEmbed{
			Title: "❌ This server is banned",
			Description: fmt.Sprintf("**Server:** %s\n**Reason:** %s%s",
				name, d.Reason, appeal),
			Color: ColorDenied,
		}
	default:
		return &discordgo.MessageEmbed{
			Title:       "🚫 You are banned from this bot",
			Description: fmt.Sprintf("**Reason:** %s%s", d.Reason, appeal),
			Color:       ColorDenied,
		}
	}
}
