// Package telegram delivers text reports to a Telegram chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Sender posts messages to a chat.
type Sender interface {
	// Send concatenates header and body, splits the result into chunks and
	// posts them in order. It stops at the first failed chunk.
	Send(ctx context.Context, header, body string) (*SendResult, error)
}

// SendResult summarizes a completed send.
type SendResult struct {
	Chunks int `json:"chunks"`
	Sent   int `json:"sent"`
}

// SendError is the first chunk the chat API rejected. Later chunks were not attempted.
type SendError struct {
	Chunk       int
	Code        int
	Description string
	Err         error
}

func (e *SendError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("telegram: chunk %d rejected (%d): %s", e.Chunk, e.Code, e.Description)
	}
	return fmt.Sprintf("telegram: chunk %d failed: %s", e.Chunk, e.Description)
}

func (e *SendError) Unwrap() error { return e.Err }

// Config configures the notifier.
type Config struct {
	Token       string
	ChatID      string
	APIEndpoint string // fmt pattern with token and method, e.g. tgbotapi.APIEndpoint
	ChunkSize   int
	HTTPClient  *http.Client
}

// Notifier sends chunked messages through the Bot API.
type Notifier struct {
	bot       *tgbotapi.BotAPI
	chatID    int64
	channel   string
	chunkSize int
}

// NewNotifier authenticates the bot and returns a Notifier for one chat.
// ChatID may be numeric or an @channel username.
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, eris.New("telegram: bot token is required")
	}
	if cfg.ChatID == "" {
		return nil, eris.New("telegram: chat id is required")
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, hc)
	if err != nil {
		return nil, eris.Wrap(err, "telegram: init bot")
	}

	n := &Notifier{bot: bot, chunkSize: cfg.ChunkSize}
	if n.chunkSize <= 0 {
		n.chunkSize = DefaultChunkSize
	}
	if id, err := strconv.ParseInt(cfg.ChatID, 10, 64); err == nil {
		n.chatID = id
	} else {
		n.channel = cfg.ChatID
	}

	zap.L().Debug("telegram: bot authorized", zap.String("bot", bot.Self.UserName))
	return n, nil
}

// Send implements Sender.
func (n *Notifier) Send(ctx context.Context, header, body string) (*SendResult, error) {
	chunks := SplitMessage(header+body, n.chunkSize)
	res := &SendResult{Chunks: len(chunks)}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "telegram: send cancelled")
		}

		if _, err := n.bot.Send(n.message(chunk)); err != nil {
			sendErr := &SendError{Chunk: i, Description: err.Error(), Err: err}
			var apiErr *tgbotapi.Error
			if errors.As(err, &apiErr) {
				sendErr.Code = apiErr.Code
				sendErr.Description = apiErr.Message
			}
			zap.L().Error("telegram: message send failed",
				zap.Int("chunk", i),
				zap.Int("chunks", len(chunks)),
				zap.Error(err),
			)
			return res, sendErr
		}
		res.Sent++
	}

	return res, nil
}

func (n *Notifier) message(text string) tgbotapi.MessageConfig {
	if n.channel != "" {
		return tgbotapi.NewMessageToChannel(n.channel, text)
	}
	return tgbotapi.NewMessage(n.chatID, text)
}
