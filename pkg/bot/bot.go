// Package bot handles the interactive command surface: it long-polls
// Telegram for commands and button presses and answers them with
// reports built from cached or fresh data.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/satishjaiswal/hyperliquid-position/pkg/format"
	"github.com/satishjaiswal/hyperliquid-position/pkg/hyperliquid"
	"github.com/satishjaiswal/hyperliquid-position/pkg/portfolio"
	"github.com/satishjaiswal/hyperliquid-position/pkg/service"
	"github.com/satishjaiswal/hyperliquid-position/pkg/telegram"
)

const (
	pollTimeout  = 10 * time.Second
	pollInterval = time.Second
	errorBackoff = 5 * time.Second
	fillsLimit   = 10
	ordersLimit  = 10
)

// Interactive fetches serve from the cache when it is fresh; the
// scheduled monitor keeps it warm.
var interactivePolicy = service.FetchPolicy{UseCache: true}

type Bot struct {
	tg              *telegram.Client
	svc             *service.PositionService
	exchange        hyperliquid.Client
	priceSymbols    []string
	refreshInterval time.Duration
	logger          *logrus.Logger

	startedAt    time.Time
	lastUpdateID int64
	handlers     map[string]func(context.Context) error
}

func New(tg *telegram.Client, svc *service.PositionService, exchange hyperliquid.Client, priceSymbols []string, refreshInterval time.Duration, logger *logrus.Logger) *Bot {
	b := &Bot{
		tg:              tg,
		svc:             svc,
		exchange:        exchange,
		priceSymbols:    priceSymbols,
		refreshInterval: refreshInterval,
		logger:          logger,
		startedAt:       time.Now(),
	}
	b.handlers = map[string]func(context.Context) error{
		"/start":      b.handleMenu,
		"/menu":       b.handleMenu,
		"/help":       b.handleHelp,
		"/position":   b.handlePosition,
		"/prices":     b.handlePrices,
		"/fills":      b.handleFills,
		"/openorders": b.handleOpenOrders,
		"/status":     b.handleStatus,
	}
	return b
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("Telegram bot started, listening for commands")

	for {
		delay := pollInterval
		if err := b.poll(ctx); err != nil {
			if ctx.Err() != nil {
				b.logger.Info("Telegram bot stopped")
				return
			}
			b.logger.WithError(err).Error("Bot polling failed")
			delay = errorBackoff
		}

		select {
		case <-ctx.Done():
			b.logger.Info("Telegram bot stopped")
			return
		case <-time.After(delay):
		}
	}
}

func (b *Bot) poll(ctx context.Context) error {
	updates, err := b.tg.GetUpdates(ctx, b.lastUpdateID+1, pollTimeout)
	if err != nil {
		return err
	}

	for _, update := range updates {
		b.lastUpdateID = update.UpdateID
		b.processUpdate(ctx, update)
	}
	return nil
}

func (b *Bot) processUpdate(ctx context.Context, update telegram.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, *update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, *update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg telegram.Message) {
	if !b.tg.AuthorizedChat(msg.Chat.ID) {
		b.logger.WithField("chat_id", msg.Chat.ID).Warn("Ignoring message from unauthorized chat")
		return
	}

	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		b.logger.WithField("text", text).Debug("Ignoring non-command message")
		return
	}

	b.logger.WithField("command", text).Info("Received command")
	b.dispatch(ctx, strings.ToLower(strings.Fields(text)[0]))
}

func (b *Bot) handleCallback(ctx context.Context, cb telegram.CallbackQuery) {
	b.logger.WithField("data", cb.Data).Info("Received callback")

	if err := b.tg.AnswerCallbackQuery(ctx, cb.ID, ""); err != nil {
		b.logger.WithError(err).Warn("Failed to answer callback query")
	}
	b.dispatch(ctx, strings.ToLower(cb.Data))
}

func (b *Bot) dispatch(ctx context.Context, command string) {
	handler, ok := b.handlers[command]
	if !ok {
		b.reply(ctx, "❓ Unknown command. Use /menu to see what I can do.")
		return
	}
	if err := handler(ctx); err != nil {
		b.logger.WithError(err).WithField("command", command).Error("Command failed")
		b.reply(ctx, "⚠️ Something went wrong fetching that data. Please try again.")
	}
}

// reply logs delivery failures and moves on; a missed answer must not
// take the poll loop down.
func (b *Bot) reply(ctx context.Context, text string) {
	if err := b.tg.SendMessage(ctx, text); err != nil {
		b.logger.WithError(err).Error("Failed to deliver reply")
	}
}

func (b *Bot) handleMenu(ctx context.Context) error {
	keyboard := &telegram.InlineKeyboard{
		InlineKeyboard: [][]telegram.Button{
			{
				{Text: "📈 Prices", CallbackData: "/prices"},
				{Text: "📊 Position", CallbackData: "/position"},
			},
			{
				{Text: "📑 Fills", CallbackData: "/fills"},
				{Text: "🧾 Open Orders", CallbackData: "/openorders"},
			},
			{
				{Text: "ℹ️ Help", CallbackData: "/help"},
			},
		},
	}

	text := "🤖 *Hyperliquid Bot Menu*\n\n👇 *Select a command:*"
	return b.tg.SendMessageWithKeyboard(ctx, text, keyboard)
}

func (b *Bot) handleHelp(ctx context.Context) error {
	return b.tg.SendMessage(ctx, format.HelpMessage(b.priceSymbols, b.refreshInterval))
}

func (b *Bot) handlePosition(ctx context.Context) error {
	positions, account, err := b.svc.PositionsAndAccount(ctx, interactivePolicy)
	if err != nil {
		return err
	}
	metrics := portfolio.Calculate(positions, account)
	return b.tg.SendMessage(ctx, format.PositionsMessage(positions, account, metrics))
}

func (b *Bot) handlePrices(ctx context.Context) error {
	book, err := b.svc.Prices(ctx, b.priceSymbols, interactivePolicy)
	if err != nil {
		return err
	}
	return b.tg.SendMessage(ctx, format.PricesMessage(book, b.priceSymbols))
}

func (b *Bot) handleFills(ctx context.Context) error {
	fills, err := b.svc.Fills(ctx, fillsLimit, interactivePolicy)
	if err != nil {
		return err
	}
	return b.tg.SendMessage(ctx, format.FillsMessage(fills))
}

func (b *Bot) handleOpenOrders(ctx context.Context) error {
	orders, err := b.svc.OpenOrders(ctx, ordersLimit, interactivePolicy)
	if err != nil {
		return err
	}
	return b.tg.SendMessage(ctx, format.OrdersMessage(orders))
}

func (b *Bot) handleStatus(ctx context.Context) error {
	exchangeOK := b.exchange.Ping(ctx) == nil
	telegramOK := b.tg.Ping(ctx) == nil

	msg := format.StatusMessage(exchangeOK, telegramOK, b.svc.CacheStats(), time.Since(b.startedAt))
	return b.tg.SendMessage(ctx, msg)
}
