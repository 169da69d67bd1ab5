package discord

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/command"
	"linkpatrol/internal/config"
)

// Bot is a Discord bot
type Bot struct {
	dg   *discordgo.Session
	cfg  *config.Config
	deps *command.Deps
	mu   sync.Mutex
}

// StartBot starts the Discord bot and blocks until ctx is cancelled.
func StartBot(ctx context.Context, cfg *config.Config, deps *command.Deps) error {
	b := &Bot{cfg: cfg, deps: deps}
	deps.Resync = b.resyncCommands
	if err := b.run(ctx, cfg.DiscordToken); err != nil {
		return fmt.Errorf("bot run error: %w", err)
	}
	return nil
}

// run starts the Discord bot
func (b *Bot) run(ctx context.Context, token string) error {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	b.dg = dg

	b.configureIntents()
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onInteractionCreate)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onGuildDelete)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	go keepaliveServer(ctx, b.cfg.ListenPort)

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	return nil
}

// configureIntents configures the Discord intents
func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
}

// onReady is called when the bot is ready
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	botInfo, err := s.User("@me")
	if err != nil {
		log.Println("[WARN] Error retrieving bot user:", err)
		return
	}

	// Leave any banned guilds on startup
	for _, g := range r.Guilds {
		if ban, banned := b.deps.Bans.GuildStatus(g.ID); banned {
			log.Printf("[INFO] Leaving banned guild: %s (%s): %s", g.ID, g.Name, ban.Reason)
			if err := s.GuildLeave(g.ID); err != nil {
				log.Printf("[ERR] Failed to leave guild %s: %v", g.ID, err)
			}
		}
	}

	if b.cfg.InitSlashCommands {
		if _, err := b.resyncCommands(); err != nil {
			log.Println("[ERR] Error registering slash commands:", err)
		}
	} else {
		log.Println("[INFO] Registering slash commands skipped")
	}

	log.Printf("[INFO] ✅ Discord bot %v is running across %d guilds.", botInfo.Username, len(r.Guilds))
}

// onGuildCreate enforces the guild denylist and GBAN on join: a banned guild
// is left immediately, as is any guild whose inviter is globally banned.
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Printf("[INFO] Bot added to guild: %s (%s)", g.Guild.ID, g.Guild.Name)

	if ban, banned := b.deps.Bans.GuildStatus(g.Guild.ID); banned {
		log.Printf("[INFO] Leaving banned guild: %s (%s): %s", g.Guild.ID, g.Guild.Name, ban.Reason)
		if err := s.GuildLeave(g.Guild.ID); err != nil {
			log.Printf("[ERR] Failed to leave guild %s: %v", g.Guild.ID, err)
		}
		return
	}

	if inviter := b.lookupInviter(s, g.Guild.ID); inviter != "" && b.deps.Bans.IsGBanned(inviter) {
		log.Printf("[INFO] Guild %s added by globally banned user %s — leaving", g.Guild.ID, inviter)
		if err := s.GuildLeave(g.Guild.ID); err != nil {
			log.Printf("[ERR] Failed to leave guild %s: %v", g.Guild.ID, err)
		}
		return
	}

	if b.cfg.InitSlashCommands {
		if err := b.registerGuildCommands(g.Guild.ID); err != nil {
			log.Printf("[ERR] Failed to register commands for new guild %s: %v", g.Guild.ID, err)
		}
	}
}

// lookupInviter finds who added the bot via the guild's bot-add audit log.
// Empty when the audit log is unavailable (missing permission, API error).
func (b *Bot) lookupInviter(s *discordgo.Session, guildID string) string {
	audit, err := s.GuildAuditLog(guildID, "", "", int(discordgo.AuditLogActionBotAdd), 5)
	if err != nil {
		log.Printf("[WARN] Audit log unavailable for guild %s: %v", guildID, err)
		return ""
	}
	for _, entry := range audit.AuditLogEntries {
		if entry.TargetID == s.State.User.ID {
			return entry.UserID
		}
	}
	return ""
}

// onGuildDelete is called when the bot is removed from a guild
func (b *Bot) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		// Outage, not a removal
		return
	}

	name := g.Name
	if name == "" && g.BeforeDelete != nil {
		name = g.BeforeDelete.Name
	}
	log.Printf("[INFO] Bot removed from guild: %s (%s)", g.ID, name)

	if err := b.deps.Bans.RecordRemovedGuild(g.ID, name); err != nil {
		log.Printf("[ERR] Failed to record removed guild %s: %v", g.ID, err)
	}
}

// onInteractionCreate routes application commands through the dispatcher
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	cmd, ok := command.Get(name)
	if !ok {
		log.Printf("[WARN] Unknown command: %s", name)
		return
	}

	command.Dispatch(s, i, cmd, b.deps)
}
