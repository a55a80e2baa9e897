package yandex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"exam-bot/api/internal/util"
)

const iamEndpoint = "https://iam.api.cloud.yandex.net/iam/v1/tokens"

// IamClient exchanges an OAuth token for an IAM token and caches it.
type IamClient struct {
	httpc    *http.Client
	oauth    string
	endpoint string

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewIamClient(oauth string) *IamClient {
	return &IamClient{
		httpc:    &http.Client{Timeout: 10 * time.Second},
		oauth:    oauth,
		endpoint: iamEndpoint,
	}
}

func (c *IamClient) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiry.Add(-time.Minute)) {
		return c.token, nil
	}

	body := map[string]string{"yandexPassportOauthToken": c.oauth}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("iam %d: %s", resp.StatusCode, util.Truncate(x, 300))
	}

	var out struct {
		IamToken string `json:"iamToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	c.token = out.IamToken
	// IAM-токен живёт 12 ч, обновляем заранее
	c.expiry = time.Now().Add(11 * time.Hour)
	return c.token, nil
}

// Invalidate forgets the cached token, e.g. after a 401.
func (c *IamClient) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
