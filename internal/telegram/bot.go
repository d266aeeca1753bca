package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BeliaevAndrey/vibeBot/internal/utils"

	"go.uber.org/zap"
)

const (
	DefaultAPIURL = "https://api.telegram.org"

	// MaxMessageLength is the Bot API limit for one message, in characters.
	MaxMessageLength = 4096

	defaultPollTimeout = 30 * time.Second
	pollErrorDelay     = 5 * time.Second

	// pollSlack is added on top of the long poll for the HTTP round trip.
	pollSlack = 15 * time.Second
)

// Bot is a minimal Telegram Bot API client: long polling in, plain text out.
type Bot struct {
	token       string
	logger      *zap.Logger
	APIURL      string
	PollTimeout time.Duration
	HTTPClient  *http.Client
}

func New(token string, logger *zap.Logger) (*Bot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("telegram bot token is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		token:       token,
		logger:      logger,
		APIURL:      DefaultAPIURL,
		PollTimeout: defaultPollTimeout,
		HTTPClient:  &http.Client{Timeout: defaultPollTimeout + pollSlack},
	}, nil
}

// SetPollTimeout changes the getUpdates long poll duration and stretches the
// HTTP client timeout so a long poll never outlives its own request.
func (b *Bot) SetPollTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	b.PollTimeout = d
	if b.HTTPClient == nil {
		b.HTTPClient = &http.Client{}
	}
	b.HTTPClient.Timeout = d + pollSlack
}

// GetMe verifies the token and returns the bot account.
func (b *Bot) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := b.call(ctx, http.MethodGet, "getMe", nil, &me); err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}
	return &me, nil
}

// GetUpdates long-polls for updates starting at offset.
func (b *Bot) GetUpdates(ctx context.Context, offset int) ([]Update, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("timeout", strconv.Itoa(int(b.PollTimeout/time.Second)))
	query.Set("allowed_updates", `["message"]`)

	var updates []Update
	if err := b.call(ctx, http.MethodGet, "getUpdates?"+query.Encode(), nil, &updates); err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	return updates, nil
}

// SendMessage sends text as plain text, split into chunks the API accepts.
// chatID is a numeric chat id or an @channel name.
func (b *Bot) SendMessage(ctx context.Context, chatID, text string) error {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return errors.New("chat id is required")
	}

	for i, chunk := range SplitMessage(text, MaxMessageLength) {
		body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: chunk})
		if err != nil {
			return err
		}
		if err := b.call(ctx, http.MethodPost, "sendMessage", body, nil); err != nil {
			return fmt.Errorf("send message part %d to %s: %w", i+1, chatID, err)
		}
	}
	return nil
}

// Poll fetches updates until ctx is done and runs handler for each one in its
// own goroutine. It returns after every started handler has finished.
func (b *Bot) Poll(ctx context.Context, handler func(context.Context, Update)) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	offset := 0
	for {
		updates, err := b.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.logger.Warn("polling updates failed", zap.Error(err))
			if err := utils.WaitFor(ctx, pollErrorDelay); err != nil {
				return nil
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			wg.Add(1)
			go func(u Update) {
				defer wg.Done()
				handler(ctx, u)
			}(update)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (b *Bot) call(ctx context.Context, method, endpoint string, body []byte, result any) error {
	target := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(b.APIURL, "/"), b.token, endpoint)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of the error text.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return urlErr.Err
		}
		return err
	}
	defer resp.Body.Close()

	var decoded apiResponse[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if !decoded.OK {
		return fmt.Errorf("telegram api error %d: %s", decoded.ErrorCode, decoded.Description)
	}

	if result == nil || len(decoded.Result) == 0 {
		return nil
	}
	return json.Unmarshal(decoded.Result, result)
}

// SplitMessage cuts text into parts of at most limit runes, preferring to
// break after a newline.
func SplitMessage(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i >= limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
