// Package monitor runs the scheduled refresh loop: it fetches fresh
// position data on a fixed interval, prints a console summary, and
// pushes Telegram alerts when the portfolio changes in a way worth
// telling someone about.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/satishjaiswal/hyperliquid-position/internal/obs"
	"github.com/satishjaiswal/hyperliquid-position/pkg/format"
	"github.com/satishjaiswal/hyperliquid-position/pkg/models"
	"github.com/satishjaiswal/hyperliquid-position/pkg/portfolio"
	"github.com/satishjaiswal/hyperliquid-position/pkg/service"
	"github.com/satishjaiswal/hyperliquid-position/pkg/telegram"
)

const (
	// periodicEvery cycles a full summary goes out regardless of
	// changes (hourly at the default 5 minute cadence).
	periodicEvery = 12
	// cleanupEvery cycles the cache is swept for expired entries.
	cleanupEvery = 10
)

// A PnL move is significant when it exceeds $100 or 5% of the previous
// absolute PnL.
var (
	pnlAlertAbs = decimal.NewFromInt(100)
	pnlAlertPct = decimal.NewFromInt(5)
	hundred     = decimal.NewFromInt(100)
)

// The monitor always refetches; its job is to observe fresh state. The
// results still land in the cache to keep the bot's answers warm.
var monitorPolicy = service.FetchPolicy{UseCache: true, ForceRefresh: true}

type Monitor struct {
	svc     *service.PositionService
	tg      *telegram.Client
	console format.ConsoleWriter
	logger  *logrus.Logger

	refreshInterval time.Duration
	retryDelay      time.Duration

	cycles        int
	haveBaseline  bool
	lastPositions []models.Position
	lastAccount   models.AccountSummary
}

func New(svc *service.PositionService, tg *telegram.Client, console format.ConsoleWriter, refreshInterval, retryDelay time.Duration, logger *logrus.Logger) *Monitor {
	if retryDelay <= 0 {
		retryDelay = time.Minute
	}
	return &Monitor{
		svc:             svc,
		tg:              tg,
		console:         console,
		logger:          logger,
		refreshInterval: refreshInterval,
		retryDelay:      retryDelay,
	}
}

// Run executes monitoring cycles until the context is cancelled. A
// failed cycle only shortens the wait before the next attempt; recovery
// is retry, not abort.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("Position monitor started")

	for {
		delay := m.refreshInterval
		if err := m.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				m.logger.Info("Position monitor stopped")
				return
			}
			obs.MonitorCycles.WithLabelValues("error").Inc()
			m.logger.WithError(err).Error("Monitor cycle failed")
			delay = m.retryDelay
		} else {
			obs.MonitorCycles.WithLabelValues("ok").Inc()
		}

		select {
		case <-ctx.Done():
			m.logger.Info("Position monitor stopped")
			return
		case <-time.After(delay):
		}
	}
}

func (m *Monitor) cycle(ctx context.Context) error {
	m.cycles++
	m.logger.WithField("cycle", m.cycles).Info("Starting monitor cycle")

	positions, account, err := m.svc.PositionsAndAccount(ctx, monitorPolicy)
	if err != nil {
		return err
	}

	metrics := portfolio.Calculate(positions, account)

	m.console.Separator()
	m.console.Info(fmt.Sprintf("Monitor update #%d - %s", m.cycles, time.Now().Format("15:04:05")))
	m.console.Summary(positions, account, metrics)

	m.checkAndSendUpdates(ctx, positions, account, metrics)

	m.lastPositions = positions
	m.lastAccount = account
	m.haveBaseline = true

	if m.cycles%cleanupEvery == 0 {
		m.svc.CleanupCache()
	}
	return nil
}

func (m *Monitor) checkAndSendUpdates(ctx context.Context, positions []models.Position, account models.AccountSummary, metrics portfolio.Metrics) {
	if m.cycles%periodicEvery == 0 {
		msg := fmt.Sprintf("🕐 *Periodic Update* - %s\n\n", time.Now().Format("15:04"))
		msg += format.PositionsMessage(positions, account, metrics)
		m.send(ctx, msg)
		return
	}

	// No alerts until there is a previous cycle to compare against.
	if !m.haveBaseline {
		return
	}

	if opened := m.detectOpened(positions); len(opened) > 0 {
		m.send(ctx, openedMessage(opened))
	}
	if closed := m.detectClosed(positions); len(closed) > 0 {
		m.send(ctx, closedMessage(closed))
	}
	if changes := m.detectPnLChanges(positions); len(changes) > 0 {
		m.send(ctx, pnlChangeMessage(changes))
	}
}

func (m *Monitor) send(ctx context.Context, msg string) {
	if err := m.tg.SendMessage(ctx, msg); err != nil {
		m.logger.WithError(err).Warn("Failed to deliver monitor update")
	}
}

func (m *Monitor) detectOpened(current []models.Position) []models.Position {
	known := make(map[string]bool, len(m.lastPositions))
	for _, p := range m.lastPositions {
		known[p.Symbol] = true
	}

	var opened []models.Position
	for _, p := range current {
		if !known[p.Symbol] {
			opened = append(opened, p)
		}
	}
	return opened
}

func (m *Monitor) detectClosed(current []models.Position) []models.Position {
	live := make(map[string]bool, len(current))
	for _, p := range current {
		live[p.Symbol] = true
	}

	var closed []models.Position
	for _, p := range m.lastPositions {
		if !live[p.Symbol] {
			closed = append(closed, p)
		}
	}
	return closed
}

type pnlChange struct {
	position  models.Position
	change    decimal.Decimal
	changePct decimal.Decimal
}

func (m *Monitor) detectPnLChanges(current []models.Position) []pnlChange {
	previous := make(map[string]models.Position, len(m.lastPositions))
	for _, p := range m.lastPositions {
		previous[p.Symbol] = p
	}

	var changes []pnlChange
	for _, p := range current {
		last, ok := previous[p.Symbol]
		if !ok {
			continue
		}

		change := p.UnrealizedPnL.Sub(last.UnrealizedPnL)
		changePct := decimal.Zero
		if !last.UnrealizedPnL.IsZero() {
			changePct = change.Div(last.UnrealizedPnL.Abs()).Mul(hundred)
		}

		if change.Abs().GreaterThan(pnlAlertAbs) || changePct.Abs().GreaterThan(pnlAlertPct) {
			changes = append(changes, pnlChange{position: p, change: change, changePct: changePct})
		}
	}
	return changes
}

func sideEmoji(side models.PositionSide) string {
	if side == models.PositionSideLong {
		return "📈"
	}
	return "📉"
}

func openedMessage(opened []models.Position) string {
	var b strings.Builder
	plural := ""
	if len(opened) > 1 {
		plural = "s"
	}
	fmt.Fprintf(&b, "🆕 *New Position%s*\n\n", plural)

	for _, p := range opened {
		fmt.Fprintf(&b, "%s *%s* %s\n", sideEmoji(p.Side), p.Symbol, p.Side)
		fmt.Fprintf(&b, "   Size: %s @ $%s\n", p.Size.StringFixed(4), p.EntryPrice.StringFixed(4))
		fmt.Fprintf(&b, "   Leverage: %sx\n\n", p.Leverage.StringFixed(1))
	}
	return strings.TrimSpace(b.String())
}

func closedMessage(closed []models.Position) string {
	var b strings.Builder
	plural := ""
	if len(closed) > 1 {
		plural = "s"
	}
	fmt.Fprintf(&b, "🔒 *Position%s Closed*\n\n", plural)

	for _, p := range closed {
		pnlEmoji := "🔴"
		if p.IsProfitable() {
			pnlEmoji = "🟢"
		}
		fmt.Fprintf(&b, "%s *%s* %s\n", sideEmoji(p.Side), p.Symbol, p.Side)
		fmt.Fprintf(&b, "   %s Final P&L: $%s\n\n", pnlEmoji, p.UnrealizedPnL.StringFixed(2))
	}
	return strings.TrimSpace(b.String())
}

func pnlChangeMessage(changes []pnlChange) string {
	var b strings.Builder
	plural := ""
	if len(changes) > 1 {
		plural = "s"
	}
	fmt.Fprintf(&b, "📊 *Significant P&L Change%s*\n\n", plural)

	for _, c := range changes {
		changeEmoji := "🔴"
		if c.change.Sign() > 0 {
			changeEmoji = "🟢"
		}
		fmt.Fprintf(&b, "%s *%s* %s\n", sideEmoji(c.position.Side), c.position.Symbol, c.position.Side)
		fmt.Fprintf(&b, "   %s Change: $%s", changeEmoji, c.change.StringFixed(2))
		if !c.changePct.IsZero() {
			fmt.Fprintf(&b, " (%s%%)", c.changePct.StringFixed(1))
		}
		fmt.Fprintf(&b, "\n   Current P&L: $%s\n\n", c.position.UnrealizedPnL.StringFixed(2))
	}
	return strings.TrimSpace(b.String())
}
