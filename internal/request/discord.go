package request

import (
	"bytes"
	"context"
	"fmt"
	"github.com/goccy/go-json"
	"net/http"
	"strings"
)

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

type DiscordWebhook struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

func getDiscordColor(status string) int {
	switch status {
	case "success":
		return 3066993
	case "error":
		return 15158332
	case "warning":
		return 15844367
	default:
		return 0
	}
}

func getDiscordHeader(event string) string {
	switch event {
	case "download_complete":
		return "[Porlarr] Download Completed"
	case "client_unreachable":
		return "[Porlarr] Client Unreachable"
	default:
		evs := strings.Split(event, "_")
		for i, ev := range evs {
			if ev != "" {
				evs[i] = strings.ToUpper(ev[:1]) + ev[1:]
			}
		}
		return "[Porlarr] " + strings.Join(evs, " ")
	}
}

// Discord posts event embeds to a webhook. A zero webhook URL disables it.
type Discord struct {
	webhookURL string
	client     *Client
}

func NewDiscord(webhookURL string, options ...ClientOption) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     New(options...),
	}
}

func (d *Discord) Enabled() bool {
	return d != nil && d.webhookURL != ""
}

func (d *Discord) Send(ctx context.Context, event, status, message string) error {
	if !d.Enabled() {
		return nil
	}

	webhook := DiscordWebhook{
		Embeds: []DiscordEmbed{
			{
				Title:       getDiscordHeader(event),
				Description: message,
				Color:       getDiscordColor(status),
			},
		},
	}

	payload, err := json.Marshal(webhook)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := d.client.MakeRequest(req); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}
