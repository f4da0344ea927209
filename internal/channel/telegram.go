package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"edobot/internal/domain"
)

// Telegram is an alternate-channel adapter: it long-polls the Bot API and
// translates each text update into the same normalized delivery shape the
// WhatsApp webhook produces, one delivery per update. It also implements
// domain.Messenger so replies for telegram deliveries go back the same way.
type Telegram struct {
	token     string
	allowFrom []int64 // allowed chat IDs (empty = allow all)

	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

type TelegramConfig struct {
	Token     string
	AllowFrom []string // chat IDs as strings
	Logger    *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	var allowed []int64
	for _, s := range cfg.AllowFrom {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			allowed = append(allowed, id)
		}
	}
	return &Telegram{
		token:     cfg.Token,
		allowFrom: allowed,
		logger:    cfg.Logger,
	}
}

// Run connects to Telegram and publishes normalized deliveries until the
// context is cancelled.
func (t *Telegram) Run(ctx context.Context, bus domain.DeliveryBus) error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram adapter stopping")
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update, bus)
		}
	}
}

func (t *Telegram) handleUpdate(update tgbotapi.Update, bus domain.DeliveryBus) {
	if update.Message == nil {
		return
	}
	msg := update.Message
	if !t.allowed(msg.Chat.ID) {
		t.logger.Warn("telegram message from disallowed chat", "chat_id", msg.Chat.ID)
		return
	}

	now := time.Now()
	received := now
	if msg.Date > 0 {
		received = time.Unix(int64(msg.Date), 0)
	}

	bus.Publish(domain.Delivery{
		Transport:  domain.TransportTelegram,
		ReceivedAt: now,
		Messages: []domain.InboundMessage{{
			// Updates have no platform message id in the WhatsApp sense;
			// synthesize one so dedup still applies across re-polls.
			MessageID:  fmt.Sprintf("telegram:%d", update.UpdateID),
			From:       strconv.FormatInt(msg.Chat.ID, 10),
			ChannelID:  domain.TransportTelegram,
			Type:       "text",
			Text:       msg.Text,
			ReceivedAt: received,
		}},
	})
}

func (t *Telegram) allowed(chatID int64) bool {
	if len(t.allowFrom) == 0 {
		return true
	}
	for _, id := range t.allowFrom {
		if id == chatID {
			return true
		}
	}
	return false
}

// SendText implements domain.Messenger for telegram chat IDs.
func (t *Telegram) SendText(ctx context.Context, to, text string) error {
	if t.bot == nil {
		return fmt.Errorf("telegram bot not connected")
	}
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", to, err)
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
