// Package telegram adapts a Telegram bot into a listener channel.
// Replies render as legacy-Markdown messages and option lists become
// inline keyboards; pressing a button feeds the button text back through
// the same handler as if it had been typed.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"castbot.app/castbot/internal/listener"
)

const (
	longPollTimeout = 60
	keyboardWidth   = 3
)

// Command menus: each slash command answers with a fixed option
// keyboard, and the chosen option is handled as a plain message.
var commandMenus = map[string]struct {
	prompt  string
	options []string
}{
	"play_rate": {"Playback rate:", []string{"0.75", "1", "1.25", "1.5", "1.75", "2"}},
	"volume":    {"Volume:", []string{"0", "10", "25", "50", "75", "90", "100"}},
	"seek":      {"Seek:", []string{"-5", "-10", "-15", "-30", "+5", "+10", "+15", "+30"}},
}

type Listener struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger

	mu         sync.Mutex
	lastChatID int64
}

func New(token string, logger *slog.Logger) (*Listener, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{bot: bot, logger: logger}, nil
}

func (*Listener) Name() string { return "telegram" }

// Start long-polls for updates until ctx is done. Updates arrive
// serially, so handlers run one at a time.
func (l *Listener) Start(ctx context.Context, handle listener.Handler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = longPollTimeout
	updates := l.bot.GetUpdatesChan(cfg)

	go func() {
		<-ctx.Done()
		l.bot.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			l.handleCallback(ctx, update.CallbackQuery, handle)
		case update.Message != nil:
			l.handleMessage(ctx, update.Message, handle)
		}
	}
	return ctx.Err()
}

func (l *Listener) handleMessage(ctx context.Context, msg *tgbotapi.Message, handle listener.Handler) {
	l.rememberChat(msg.Chat.ID)

	if msg.IsCommand() {
		l.handleCommand(msg)
		return
	}
	handle(ctx, l, listener.Inbound{Text: msg.Text, ReplyTo: msg.Chat.ID})
}

func (l *Listener) handleCommand(msg *tgbotapi.Message) {
	menu, ok := commandMenus[msg.Command()]
	if !ok {
		l.logger.Debug("telegram_unknown_command", slog.String("command", msg.Command()))
		return
	}
	err := l.Send(listener.Outbound{
		Text:    menu.prompt,
		ReplyTo: msg.Chat.ID,
		Options: menu.options,
	})
	if err != nil {
		l.logger.Warn("telegram_menu_failed", slog.String("command", msg.Command()), slog.String("err", err.Error()))
	}
}

// handleCallback acknowledges the button press and replays its payload
// through the regular message path.
func (l *Listener) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, handle listener.Handler) {
	if _, err := l.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		l.logger.Warn("telegram_callback_ack_failed", slog.String("err", err.Error()))
	}

	var chatID int64
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
		l.rememberChat(chatID)
	}
	handle(ctx, l, listener.Inbound{Text: cb.Data, ReplyTo: chatID})
}

func (l *Listener) Send(msg listener.Outbound) error {
	chatID := l.chatIDFor(msg.ReplyTo)
	if chatID == 0 {
		return fmt.Errorf("telegram: no chat to reply to")
	}

	out := tgbotapi.NewMessage(chatID, msg.Text)
	out.ParseMode = tgbotapi.ModeMarkdown
	out.DisableWebPagePreview = true
	if len(msg.Options) > 0 {
		out.ReplyMarkup = optionKeyboard(msg.Options)
	}

	if _, err := l.bot.Send(out); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

// optionKeyboard lays options out in rows of keyboardWidth buttons. The
// button payload is the option text itself.
func optionKeyboard(options []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for start := 0; start < len(options); start += keyboardWidth {
		end := start + keyboardWidth
		if end > len(options) {
			end = len(options)
		}
		var row []tgbotapi.InlineKeyboardButton
		for _, option := range options[start:end] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(option, option))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (l *Listener) chatIDFor(replyTo any) int64 {
	if id, ok := replyTo.(int64); ok && id != 0 {
		return id
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastChatID
}

func (l *Listener) rememberChat(chatID int64) {
	l.mu.Lock()
	l.lastChatID = chatID
	l.mu.Unlock()
}

var _ listener.Listener = (*Listener)(nil)
