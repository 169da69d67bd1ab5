// Package broadcast fans a single payload out across every connected guild:
// one channel per guild, paced sends, and periodic progress reporting.
package broadcast

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Channel is a text channel candidate for delivery.
type Channel struct {
	ID      string
	Name    string
	CanSend bool
}

// Guild is one fan-out target with its text channels in listing order.
type Guild struct {
	ID       string
	Name     string
	Channels []Channel
}

// Progress is a running tally of the fan-out. Processed always ends equal to
// Succeeded + Failed + Skipped.
type Progress struct {
	Processed int
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// SendFunc delivers the payload to one channel. The context carries the
// per-send timeout.
type SendFunc func(ctx context.Context, channelID string) error

type Options struct {
	Keywords      []string      // channel-name keywords, matched lowercased
	Fallback      bool          // fall back to any writable channel
	SendTimeout   time.Duration // per-send ceiling
	SendInterval  time.Duration // fixed pacing between sends
	BurstEvery    int           // extra pause after this many sends
	BurstPause    time.Duration // length of the extra pause
	ProgressEvery int           // progress callback cadence in guilds
}

func DefaultOptions() Options {
	return Options{
		Keywords:      []string{"general", "chat", "main", "bot", "raid", "link"},
		Fallback:      true,
		SendTimeout:   2 * time.Second,
		SendInterval:  150 * time.Millisecond,
		BurstEvery:    20,
		BurstPause:    1200 * time.Millisecond,
		ProgressEvery: 25,
	}
}

type Broadcaster struct {
	opts Options
}

func New(opts Options) *Broadcaster {
	if opts.BurstEvery <= 0 {
		opts.BurstEvery = 20
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 25
	}
	return &Broadcaster{opts: opts}
}

// pickChannel selects the delivery channel for a guild: first writable
// channel whose name contains a keyword, else (when enabled) the first
// writable channel at all. Empty means skip the guild.
func (b *Broadcaster) pickChannel(g Guild) string {
	for _, ch := range g.Channels {
		if !ch.CanSend {
			continue
		}
		name := strings.ToLower(ch.Name)
		for _, kw := range b.opts.Keywords {
			if strings.Contains(name, kw) {
				return ch.ID
			}
		}
	}
	if b.opts.Fallback {
		for _, ch := range g.Channels {
			if ch.CanSend {
				return ch.ID
			}
		}
	}
	return ""
}

// Run delivers to every guild in order. Individual failures never abort the
// fan-out; cancellation is honored at the next send boundary. The final
// progress state is reported before returning, including on cancellation.
func (b *Broadcaster) Run(ctx context.Context, guilds []Guild, send SendFunc, onProgress func(Progress)) Progress {
	p := Progress{Total: len(guilds)}
	limiter := rate.NewLimiter(rate.Every(b.opts.SendInterval), 1)
	lastReported := -1

	report := func() {
		if onProgress != nil && p.Processed != lastReported {
			lastReported = p.Processed
			onProgress(p)
		}
	}

	sends := 0
	for _, g := range guilds {
		if ctx.Err() != nil {
			break
		}

		channelID := b.pickChannel(g)
		if channelID == "" {
			p.Skipped++
			p.Processed++
			if p.Processed%b.opts.ProgressEvery == 0 {
				report()
			}
			continue
		}

		if b.opts.SendInterval > 0 {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}

		sendCtx := ctx
		cancel := context.CancelFunc(func() {})
		if b.opts.SendTimeout > 0 {
			sendCtx, cancel = context.WithTimeout(ctx, b.opts.SendTimeout)
		}
		err := send(sendCtx, channelID)
		cancel()

		if err != nil {
			p.Failed++
		} else {
			p.Succeeded++
		}
		p.Processed++
		sends++

		if b.opts.BurstPause > 0 && sends%b.opts.BurstEvery == 0 {
			if !sleepCtx(ctx, b.opts.BurstPause) {
				break
			}
		}
		if p.Processed%b.opts.ProgressEvery == 0 {
			report()
		}
	}

	report()
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
