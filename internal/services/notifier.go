package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cavestore/orderbot/internal/logger"
	"go.uber.org/zap"
)

const (
	discordAPIBase      = "https://discord.com/api/v10"
	notifierHTTPTimeout = 10 * time.Second
)

// DiscordNotifier delivers notifications over the Discord REST API. Every
// call is best-effort with a bounded timeout; callers decide whether a
// failure matters.
type DiscordNotifier struct {
	token  string
	client *http.Client
}

func NewDiscordNotifier(token string) *DiscordNotifier {
	return &DiscordNotifier{
		token:  token,
		client: &http.Client{Timeout: notifierHTTPTimeout},
	}
}

func (dn *DiscordNotifier) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, discordAPIBase+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bot "+dn.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := dn.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("discord responded with status %d", res.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// DirectMessage opens (or reuses) the DM channel with the user and posts the
// text into it.
func (dn *DiscordNotifier) DirectMessage(ctx context.Context, userID int64, text string) error {
	var channel struct {
		ID string `json:"id"`
	}

	payload := map[string]string{"recipient_id": strconv.FormatInt(userID, 10)}
	if err := dn.post(ctx, "/users/@me/channels", payload, &channel); err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}

	if err := dn.post(ctx, "/channels/"+channel.ID+"/messages", map[string]string{"content": text}, nil); err != nil {
		return fmt.Errorf("failed to send DM: %w", err)
	}

	return nil
}

// Broadcast posts the text into a named channel.
func (dn *DiscordNotifier) Broadcast(ctx context.Context, channelID string, text string) error {
	if err := dn.post(ctx, "/channels/"+channelID+"/messages", map[string]string{"content": text}, nil); err != nil {
		return fmt.Errorf("failed to post to channel %s: %w", channelID, err)
	}

	return nil
}

// LogNotifier is the tokenless fallback: deliveries land in the log instead
// of the chat platform.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (ln *LogNotifier) DirectMessage(_ context.Context, userID int64, text string) error {
	logger.Log.Info("direct message (log only)", zap.Int64("userID", userID), zap.String("text", text))
	return nil
}

func (ln *LogNotifier) Broadcast(_ context.Context, channelID string, text string) error {
	logger.Log.Info("broadcast (log only)", zap.String("channelID", channelID), zap.String("text", text))
	return nil
}
