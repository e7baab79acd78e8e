package service

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/telebot.v3"

	"keibaboard/internal/logger"
)

// NotificationService sends settlement reports to the operator over
// Telegram. It is optional: settlement never depends on it, and send
// failures are logged, not propagated.
type NotificationService struct {
	bot     *telebot.Bot
	mu      sync.Mutex
	adminID int64
}

// NewNotificationService creates a new notification service
func NewNotificationService() (*NotificationService, error) {
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}

	b, err := telebot.NewBot(telebot.Settings{
		Token: botToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	// Get admin ID from environment
	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	var adminID int64
	if adminIDStr != "" {
		adminID, _ = strconv.ParseInt(adminIDStr, 10, 64)
	}

	return &NotificationService{
		bot:     b,
		adminID: adminID,
	}, nil
}

// SendSettlementSummary reports a completed settlement run to the admin.
func (s *NotificationService) SendSettlementSummary(result *SettlementResult) {
	if s.adminID == 0 {
		logger.Debugf("admin id not set, skipping settlement summary race_id=%s", result.RaceID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.bot.Send(&telebot.User{ID: s.adminID}, formatSettlementSummary(result))
	if err != nil {
		logger.Errorf("failed to send settlement summary race_id=%s error=%v", result.RaceID, err)
	} else {
		logger.Debugf("settlement summary sent race_id=%s", result.RaceID)
	}
}

// formatSettlementSummary renders the admin-facing settlement report.
func formatSettlementSummary(result *SettlementResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏁 Race %s settled\n\n", result.RaceID)
	fmt.Fprintf(&b, "Bets: %d\n", result.Bets)
	fmt.Fprintf(&b, "Winners paid: %d\n", result.Winners)
	fmt.Fprintf(&b, "Total paid: %s", formatMoney(result.TotalPaid))
	if result.Skipped > 0 {
		fmt.Fprintf(&b, "\nAlready settled: %d", result.Skipped)
	}
	return b.String()
}

// formatMoney formats an amount of the board currency.
func formatMoney(amount int64) string {
	return fmt.Sprintf("%d G", amount)
}
