package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"trip-dispatch-service/internal/domain"
)

type mailRequest struct {
	To      string                     `json:"to"`
	From    string                     `json:"from"`
	Subject string                     `json:"subject"`
	Payload domain.NotificationPayload `json:"payload"`
}

type mailResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// MailNotifier delivers dispatch notifications through an HTTP mail API.
//
// One Send is one attempt: no internal retries, the dispatch queue owns the
// backoff schedule and attempt bookkeeping.
type MailNotifier struct {
	client  *http.Client
	baseURL string
	apiKey  string
	sender  string
}

func NewMailNotifier(baseURL, apiKey, sender string) (*MailNotifier, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("mail notifier: base URL is empty")
	}

	return &MailNotifier{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		sender:  sender,
	}, nil
}

// Send posts the payload to the provider's email address and returns the
// delivery reference issued by the mail API.
func (n *MailNotifier) Send(ctx context.Context, payload domain.NotificationPayload) (string, error) {
	body := mailRequest{
		To:      payload.PartnerEmail,
		From:    n.sender,
		Subject: fmt.Sprintf("Dispatch: %s on %s", payload.TripTitle, payload.Date),
		Payload: payload,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("send mail: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/messages", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("send mail: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send mail: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("send mail: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var decoded mailResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("send mail: decode response: %w", err)
	}

	if decoded.MessageID == "" {
		return "", fmt.Errorf("send mail: provider returned no message id (error=%q)", decoded.Error)
	}

	return decoded.MessageID, nil
}
