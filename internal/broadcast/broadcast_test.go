package broadcast

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastOptions removes all pacing so tests run instantly.
func fastOptions() Options {
	opts := DefaultOptions()
	opts.SendTimeout = 0
	opts.SendInterval = 0
	opts.BurstPause = 0
	return opts
}

func TestPickChannel(t *testing.T) {
	b := New(DefaultOptions())

	tests := []struct {
		name  string
		guild Guild
		want  string
	}{
		{
			name: "keyword match wins over earlier writable channel",
			guild: Guild{Channels: []Channel{
				{ID: "1", Name: "announcements", CanSend: true},
				{ID: "2", Name: "general", CanSend: true},
			}},
			want: "2",
		},
		{
			name: "unwritable keyword channel is passed over",
			guild: Guild{Channels: []Channel{
				{ID: "1", Name: "general", CanSend: false},
				{ID: "2", Name: "bot-spam", CanSend: true},
			}},
			want: "2",
		},
		{
			name: "fallback to first writable when no keyword matches",
			guild: Guild{Channels: []Channel{
				{ID: "1", Name: "announcements", CanSend: false},
				{ID: "2", Name: "welcome", CanSend: true},
			}},
			want: "2",
		},
		{
			name: "nothing writable",
			guild: Guild{Channels: []Channel{
				{ID: "1", Name: "general", CanSend: false},
			}},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.pickChannel(tt.guild))
		})
	}
}

func TestPickChannel_NoFallback(t *testing.T) {
	opts := DefaultOptions()
	opts.Fallback = false
	b := New(opts)

	g := Guild{Channels: []Channel{{ID: "1", Name: "welcome", CanSend: true}}}
	assert.Equal(t, "", b.pickChannel(g))
}

func TestRun_TalliesAndProgress(t *testing.T) {
	// 55 deliverable guilds and 5 with no writable channel.
	var guilds []Guild
	for i := 0; i < 55; i++ {
		guilds = append(guilds, Guild{
			ID:       fmt.Sprintf("g%02d", i),
			Channels: []Channel{{ID: fmt.Sprintf("c%02d", i), Name: "general", CanSend: true}},
		})
	}
	for i := 0; i < 5; i++ {
		guilds = append(guilds, Guild{ID: fmt.Sprintf("quiet%d", i)})
	}

	var sent []string
	var reports []Progress
	b := New(fastOptions())
	final := b.Run(context.Background(), guilds, func(ctx context.Context, channelID string) error {
		sent = append(sent, channelID)
		return nil
	}, func(p Progress) {
		reports = append(reports, p)
	})

	assert.Equal(t, Progress{Processed: 60, Total: 60, Succeeded: 55, Failed: 0, Skipped: 5}, final)
	assert.Len(t, sent, 55)
	// Guild order is the input order
	assert.Equal(t, "c00", sent[0])
	assert.Equal(t, "c54", sent[54])

	// Progress at 25, 50, and the final state once
	require.Len(t, reports, 3)
	assert.Equal(t, 25, reports[0].Processed)
	assert.Equal(t, 50, reports[1].Processed)
	assert.Equal(t, final, reports[2])
}

func TestRun_FailuresDoNotAbort(t *testing.T) {
	guilds := []Guild{
		{ID: "a", Channels: []Channel{{ID: "1", Name: "general", CanSend: true}}},
		{ID: "b", Channels: []Channel{{ID: "2", Name: "general", CanSend: true}}},
		{ID: "c", Channels: []Channel{{ID: "3", Name: "general", CanSend: true}}},
	}

	b := New(fastOptions())
	final := b.Run(context.Background(), guilds, func(ctx context.Context, channelID string) error {
		if channelID == "2" {
			return errors.New("channel gone")
		}
		return nil
	}, nil)

	assert.Equal(t, Progress{Processed: 3, Total: 3, Succeeded: 2, Failed: 1}, final)
}

func TestRun_CancelledMidway(t *testing.T) {
	var guilds []Guild
	for i := 0; i < 10; i++ {
		guilds = append(guilds, Guild{
			ID:       fmt.Sprintf("g%d", i),
			Channels: []Channel{{ID: fmt.Sprintf("c%d", i), Name: "general", CanSend: true}},
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	var reports []Progress
	b := New(fastOptions())
	final := b.Run(ctx, guilds, func(ctx context.Context, channelID string) error {
		if channelID == "c2" {
			cancel()
		}
		return nil
	}, func(p Progress) {
		reports = append(reports, p)
	})

	assert.Equal(t, 3, final.Processed)
	assert.Equal(t, 3, final.Succeeded)
	// Final state is still reported after cancellation
	require.NotEmpty(t, reports)
	assert.Equal(t, final, reports[len(reports)-1])
}

func TestRun_SendTimeoutApplies(t *testing.T) {
	opts := fastOptions()
	opts.SendTimeout = 20 * time.Millisecond

	guilds := []Guild{
		{ID: "a", Channels: []Channel{{ID: "1", Name: "general", CanSend: true}}},
	}

	b := New(opts)
	final := b.Run(context.Background(), guilds, func(ctx context.Context, channelID string) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil)

	assert.Equal(t, 1, final.Failed)
}
