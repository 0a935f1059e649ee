package telegram

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxCaptionBytes = 1024

type Options struct {
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Debug      bool
	// Endpoint overrides tgbotapi.APIEndpoint; it keeps the bot%s/%s verbs.
	Endpoint string
}

// Client sends generated images to a chat. The bot session is opened on the
// first send so constructing a Client never touches the network.
type Client struct {
	token      string
	endpoint   string
	debug      bool
	httpClient *http.Client
	logger     *slog.Logger

	bot *tgbotapi.BotAPI
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		token:      strings.TrimSpace(opts.Token),
		endpoint:   endpoint,
		debug:      opts.Debug,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}, nil
}

func (c *Client) connect() (*tgbotapi.BotAPI, error) {
	if c.bot != nil {
		return c.bot, nil
	}

	bot, err := tgbotapi.NewBotAPIWithClient(c.token, c.endpoint, c.httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	bot.Debug = c.debug
	c.bot = bot

	c.logger.Debug("telegram connected", "username", bot.Self.UserName)
	return bot, nil
}

// SendPhoto uploads data as a photo with caption truncated to Telegram's limit.
func (c *Client) SendPhoto(chatID int64, data []byte, mimeType string, caption string) error {
	if len(data) == 0 {
		return errors.New("empty image")
	}

	bot, err := c.connect()
	if err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  fileName(mimeType),
		Bytes: data,
	})
	if caption != "" {
		photo.Caption = truncateByBytes(caption, maxCaptionBytes)
	}

	if _, err := bot.Send(photo); err != nil {
		return fmt.Errorf("telegram send photo: %w", err)
	}
	return nil
}

func fileName(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	switch mimeType {
	case "image/png", "":
		return "image.png"
	case "image/jpeg":
		return "image.jpg"
	}
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		return "image" + exts[0]
	}
	return "image.png"
}

func truncateByBytes(text string, maxBytes int) string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return text
	}

	var buf strings.Builder
	buf.Grow(maxBytes)
	for _, r := range text {
		runeBytes := utf8.RuneLen(r)
		if runeBytes < 0 {
			runeBytes = len(string(r))
		}

		if buf.Len()+runeBytes > maxBytes {
			break
		}
		buf.WriteRune(r)
	}
	return buf.String()
}
