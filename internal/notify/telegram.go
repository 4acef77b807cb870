package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/acg-climbing/sessions-api/internal/domain"
	"github.com/acg-climbing/sessions-api/internal/realtime"
)

const announceQueueSize = 32

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram announces newly created events to a group chat. It is a feed sink:
// other changes are ignored, and sending happens on Run's goroutine so a slow
// Telegram API never holds up a request.
type Telegram struct {
	bot    sender
	chatID int64
	queue  chan tgbotapi.MessageConfig
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("tgbotapi.NewBotAPI -> %w", err)
	}
	bot.Debug = false

	return newTelegram(bot, chatID), nil
}

func newTelegram(bot sender, chatID int64) *Telegram {
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		queue:  make(chan tgbotapi.MessageConfig, announceQueueSize),
	}
}

func (t *Telegram) Publish(_ context.Context, change realtime.Change) error {
	if change.Table != realtime.TableEvents || change.Op != realtime.OpCreated || change.Event == nil {
		return nil
	}

	msg := tgbotapi.NewMessage(t.chatID, announcement(*change.Event))
	msg.DisableWebPagePreview = true

	select {
	case t.queue <- msg:
		return nil
	default:
		return fmt.Errorf("telegram queue full, dropping announcement for %s", change.EventID)
	}
}

func (t *Telegram) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-t.queue:
			if _, err := t.bot.Send(msg); err != nil {
				zap.L().Warn("telegram announcement failed", zap.Error(err))
			}
		}
	}
}

func announcement(e domain.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "New climbing session: %s\n", e.Title)
	fmt.Fprintf(&b, "When: %s - %s\n", e.StartTime.Format("Mon 02 Jan 15:04"), e.EndTime.Format(time.Kitchen))
	if e.Location != nil && *e.Location != "" {
		fmt.Fprintf(&b, "Where: %s\n%s\n", *e.Location, e.MapURL())
	}
	if e.Capacity != nil {
		fmt.Fprintf(&b, "Spots: %d\n", *e.Capacity)
	}
	fmt.Fprintf(&b, "Led by %s", e.CreatorName)

	return b.String()
}
