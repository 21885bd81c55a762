package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"proptrack/server/internal/gap"
	"proptrack/server/internal/models"
)

type Service struct {
	logger *logrus.Logger
	client *http.Client
	config *models.TelegramConfig
}

func NewService(config *models.TelegramConfig, logger *logrus.Logger) *Service {
	return &Service{
		logger: logger,
		config: config,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Service) UpdateConfig(config *models.TelegramConfig) {
	s.config = config
}

// SendMessage sends a message to the configured Telegram chat
func (s *Service) SendMessage(message string) error {
	if !s.config.IsEnabled {
		return nil
	}

	if s.config.BotToken == "" {
		return errors.New("Telegram bot token is not configured")
	}

	if s.config.ChatID == "" {
		return errors.New("Telegram chat ID is not configured")
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.config.BotToken)
	payload := map[string]interface{}{
		"chat_id":                  s.config.ChatID,
		"text":                     message,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %v", err)
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found - please check your token from @BotFather")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// SendAlert sends a titled alert message
func (s *Service) SendAlert(alertType, message string) error {
	return s.SendMessage(fmt.Sprintf("<b>%s</b>\n\n%s", alertType, message))
}

// SendIngestFailureAlert reports a failed ingestion run
func (s *Service) SendIngestFailureAlert(errorMessage string) error {
	return s.SendAlert(
		"Data Ingest Failed",
		fmt.Sprintf("Failed to ingest property sales data:\n\n<code>%s</code>", errorMessage),
	)
}

// SendGapWideningAlert fires when the affordability gap grew by more
// than the threshold since the previous run. Returns nil when no alert
// is needed.
func (s *Service) SendGapWideningAlert(currentGap, previousGap, threshold int) error {
	change := currentGap - previousGap
	if change <= threshold {
		return nil
	}

	return s.SendAlert(
		"Gap Widening Alert",
		fmt.Sprintf(
			"Affordability gap increased by %s this month.\n\nCurrent gap: %s\nPrevious gap: %s",
			gap.FormatCurrency(change), gap.FormatCurrency(currentGap), gap.FormatCurrency(previousGap),
		),
	)
}
