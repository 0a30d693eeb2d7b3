package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// WhatsappService talks to a WAHA-compatible WhatsApp HTTP gateway.
// It is used by the payment reminder task for members who prefer
// WhatsApp over email.
type WhatsappService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewWhatsappService() *WhatsappService {
	url := os.Getenv("WAHA_BASE_URL")
	if url == "" {
		url = "http://waha:3000"
	}
	return &WhatsappService{
		baseURL: url,
		apiKey:  os.Getenv("WAHA_API_KEY"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *WhatsappService) makeRequest(method, endpoint string, payload interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", s.baseURL, endpoint), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (s *WhatsappService) sendText(chatId, text string) error {
	return s.makeRequest("POST", "/api/sendText", map[string]string{
		"chatId":  chatId,
		"text":    text,
		"session": "default",
	})
}

// NormalizeChatID normalizes WhatsApp chat IDs by adding required suffixes
// and standardizing the country code
func NormalizeChatID(chatId string) string {
	chatId = strings.TrimSpace(chatId)

	// Group IDs are already complete
	if strings.HasSuffix(chatId, "@g.us") {
		return chatId
	}

	chatId = strings.TrimSuffix(chatId, "@c.us")

	// Standardize local numbers starting with '0' to the country code
	countryCode := os.Getenv("WHATSAPP_COUNTRY_CODE")
	if countryCode == "" {
		countryCode = "91"
	}
	if strings.HasPrefix(chatId, "0") {
		chatId = countryCode + strings.TrimPrefix(chatId, "0")
	}

	return chatId + "@c.us"
}

// SendMessage delivers a text message to a phone number or group ID
func (s *WhatsappService) SendMessage(chatId, text string) error {
	chatId = NormalizeChatID(chatId)

	if err := s.sendText(chatId, text); err != nil {
		return &DependencyDegraded{Dependency: "whatsapp gateway", Err: err}
	}

	return nil
}
