package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"exam-bot/api/internal/util"
)

const (
	lookupTimeout   = 10 * time.Second
	downloadTimeout = 30 * time.Second
	sendTimeout     = 15 * time.Second

	maxPhotoBytes = 20 << 20 // лимит getFile в Bot API
)

var (
	errNoToken       = errors.New("TELEGRAM_BOT_TOKEN is empty")
	errPhotoTooLarge = fmt.Errorf("photo exceeds %d bytes", maxPhotoBytes)
)

// Client is the part of the Bot API the router uses: sending a reply and
// downloading a photo. It makes no request until one of them is called, so
// a missing token only fails the call that needs it.
type Client struct {
	token        string
	lookup       *tgbotapi.BotAPI
	sender       *tgbotapi.BotAPI
	fileEndpoint string
	httpc        *http.Client
}

// NewClient builds a client for the public Bot API.
func NewClient(token string) *Client {
	return NewClientWithEndpoints(token, tgbotapi.APIEndpoint, tgbotapi.FileEndpoint)
}

// NewClientWithEndpoints takes Bot API URL formats in the tgbotapi style:
// apiEndpoint gets token and method, fileEndpoint gets token and file path.
func NewClientWithEndpoints(token, apiEndpoint, fileEndpoint string) *Client {
	return &Client{
		token:        token,
		lookup:       newBot(token, apiEndpoint, lookupTimeout),
		sender:       newBot(token, apiEndpoint, sendTimeout),
		fileEndpoint: fileEndpoint,
		httpc:        &http.Client{Timeout: downloadTimeout},
	}
}

// newBot avoids tgbotapi.NewBotAPI, which calls getMe on construction.
func newBot(token, endpoint string, timeout time.Duration) *tgbotapi.BotAPI {
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: timeout},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(endpoint)
	return bot
}

// Send posts one text message.
func (c *Client) Send(_ context.Context, out OutboundResponse) error {
	if c.token == "" {
		return errNoToken
	}
	if _, err := c.sender.Send(tgbotapi.NewMessage(out.ChatID, clip(out.Text))); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Download resolves fileID with getFile and fetches the file contents.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	if c.token == "" {
		return nil, errNoToken
	}
	file, err := c.lookup.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("getFile: %w", err)
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("getFile: empty file_path for %s", fileID)
	}
	return c.download(ctx, fmt.Sprintf(c.fileEndpoint, c.token, file.FilePath))
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("download status %d: %s", resp.StatusCode, util.Truncate(b, 200))
	}
	// лишний байт отличает файл ровно на лимит от обрезанного
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxPhotoBytes {
		return nil, errPhotoTooLarge
	}
	return b, nil
}
