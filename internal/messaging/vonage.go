package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// VonageSender posts messages to the Vonage messages API. Messenger sends are
// keyed by page id; anything else falls back to the WhatsApp payload shape.
type VonageSender struct {
	BaseURL   string
	APIKey    string
	APISecret string
	PageID    string
	From      string
	Client    *http.Client
}

type party struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Number string `json:"number,omitempty"`
}

type messagePayload struct {
	From    party `json:"from"`
	To      party `json:"to"`
	Message struct {
		Content struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

func (v VonageSender) SendText(ctx context.Context, recipient, channel, text string) error {
	if v.Client == nil {
		v.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if v.BaseURL == "" {
		v.BaseURL = "https://api.nexmo.com/v0.1/messages"
	}

	var payload messagePayload
	if channel == ChannelMessenger {
		payload.From = party{Type: ChannelMessenger, ID: v.PageID}
		payload.To = party{Type: ChannelMessenger, ID: recipient}
	} else {
		payload.From = party{Type: ChannelWhatsApp, Number: v.From}
		payload.To = party{Type: ChannelWhatsApp, Number: recipient}
	}
	payload.Message.Content.Type = "text"
	payload.Message.Content.Text = text

	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.BaseURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(v.APIKey, v.APISecret)

	resp, err := v.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("messaging send failed: " + resp.Status)
	}
	return nil
}
