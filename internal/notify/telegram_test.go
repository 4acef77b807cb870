package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/realtime"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sent = append(b.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.sent)
}

func TestTelegram_AnnouncesCreatedEventsOnly(t *testing.T) {
	bot := &fakeBot{}
	tg := newTelegram(bot, 42)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tg.Run(ctx)

	location := "Boulder Hall"
	event := domain.Event{
		ID:          uuid.New(),
		Title:       "Tuesday top-rope",
		StartTime:   time.Date(2030, 1, 1, 18, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2030, 1, 1, 20, 0, 0, 0, time.UTC),
		Location:    &location,
		CreatorName: "Sam",
	}

	require.NoError(t, tg.Publish(ctx, realtime.Change{Table: realtime.TableParticipants, Op: realtime.OpJoined, EventID: event.ID}))
	require.NoError(t, tg.Publish(ctx, realtime.Change{Table: realtime.TableEvents, Op: realtime.OpCreated, EventID: event.ID, Event: &event}))

	require.Eventually(t, func() bool { return bot.count() == 1 }, time.Second, 10*time.Millisecond)

	msg := bot.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "Tuesday top-rope")
	assert.Contains(t, msg.Text, "Boulder Hall")
	assert.Contains(t, msg.Text, "Led by Sam")
}

func TestTelegram_QueueFull(t *testing.T) {
	tg := newTelegram(&fakeBot{}, 1)
	event := domain.Event{ID: uuid.New(), Title: "x"}
	change := realtime.Change{Table: realtime.TableEvents, Op: realtime.OpCreated, EventID: event.ID, Event: &event}

	for i := 0; i < announceQueueSize; i++ {
		require.NoError(t, tg.Publish(context.Background(), change))
	}

	assert.Error(t, tg.Publish(context.Background(), change))
}
