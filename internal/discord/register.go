package discord

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"linkpatrol/internal/command"
)

// resyncCommands reconciles the command tree on every connected guild and
// returns the number of registered commands. Wired into command.Deps.Resync.
func (b *Bot) resyncCommands() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	guilds := b.dg.State.Guilds
	if len(guilds) == 0 {
		return 0, fmt.Errorf("no connected guilds")
	}

	for _, g := range guilds {
		if err := b.registerGuildCommands(g.ID); err != nil {
			log.Printf("[ERR] Command sync failed for guild %s: %v", g.ID, err)
		}
	}
	return len(command.All()), nil
}

// registerGuildCommands diffs the wanted tree against what Discord has for
// the guild: obsolete commands are deleted, the rest upserted.
func (b *Bot) registerGuildCommands(guildID string) error {
	appID := b.dg.State.User.ID
	if appID == "" {
		user, err := b.dg.User("@me")
		if err != nil {
			return err
		}
		appID = user.ID
	}

	wanted := make(map[string]*discordgo.ApplicationCommand)
	var defs []*discordgo.ApplicationCommand
	for _, cmd := range command.All() {
		def := cmd.SlashDefinition()
		if def == nil {
			continue
		}
		if def.Type == 0 {
			def.Type = discordgo.ChatApplicationCommand
		}
		wanted[def.Name] = def
		defs = append(defs, def)
	}

	existing, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		log.Printf("[WARN] [%s] Failed to list existing commands, skipping obsolete cleanup: %v", guildID, err)
	}
	for _, old := range existing {
		if _, ok := wanted[old.Name]; !ok {
			log.Printf("[INFO] [%s] Deleting obsolete command: %s", guildID, old.Name)
			if err := b.dg.ApplicationCommandDelete(appID, guildID, old.ID); err != nil {
				log.Printf("[ERR] [%s] Failed to delete %s: %v", guildID, old.Name, err)
			}
		}
	}

	registerWithRateLimit(b.dg, appID, guildID, defs)
	return nil
}

// registerWithRateLimit creates commands at no more than 40 requests/second
func registerWithRateLimit(dg *discordgo.Session, appID, guildID string, cmds []*discordgo.ApplicationCommand) {
	rateLimit := time.Second / 40
	ticker := time.NewTicker(rateLimit)
	defer ticker.Stop()

	var wg sync.WaitGroup

	for _, job := range cmds {
		wg.Add(1)

		go func(cmd *discordgo.ApplicationCommand) {
			defer wg.Done()
			<-ticker.C

			_, err := dg.ApplicationCommandCreate(appID, guildID, cmd)
			if err != nil {
				log.Printf("[ERR] Can't create command %s: %v", cmd.Name, err)
			} else {
				log.Printf("[DONE] Command created: %s", cmd.Name)
			}
		}(job)
	}

	wg.Wait()
}
