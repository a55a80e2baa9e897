package yandex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"exam-bot/api/internal/ocr"
	"exam-bot/api/internal/util"
)

const visionEndpoint = "https://vision.api.cloud.yandex.net/vision/v1/batchAnalyze"

// Engine is a Yandex Vision text detector. It authenticates with an API key
// when one is set and with an IAM token derived from the OAuth token
// otherwise.
type Engine struct {
	apiKey   string
	iamc     *IamClient
	folderID string
	endpoint string
	httpc    *http.Client
	log      *zap.Logger
}

type Options struct {
	APIKey     string
	OAuthToken string
	FolderID   string
	// Endpoint overrides the batchAnalyze URL.
	Endpoint string
}

func New(o Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		apiKey:   o.APIKey,
		folderID: o.FolderID,
		endpoint: o.Endpoint,
		httpc:    &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
	if e.endpoint == "" {
		e.endpoint = visionEndpoint
	}
	if o.OAuthToken != "" {
		e.iamc = NewIamClient(o.OAuthToken)
	}
	return e
}

func (e *Engine) Name() string { return "yandex" }

type request struct {
	FolderID     string        `json:"folderId,omitempty"`
	AnalyzeSpecs []analyzeSpec `json:"analyze_specs"`
}

type analyzeSpec struct {
	Content  string    `json:"content"`
	MimeType string    `json:"mimeType"`
	Features []feature `json:"features"`
}

type feature struct {
	Type                string              `json:"type"`
	TextDetectionConfig textDetectionConfig `json:"text_detection_config"`
}

type textDetectionConfig struct {
	LanguageCodes []string `json:"language_codes"`
}

func (e *Engine) ExtractText(ctx context.Context, image []byte) (ocr.Text, error) {
	if e.apiKey == "" && e.iamc == nil {
		return ocr.Text{}, e.fail("auth", errors.New("neither VISION_API_KEY nor YC_OAUTH_TOKEN is set"))
	}

	payload, _ := json.Marshal(request{
		FolderID: e.folderID,
		AnalyzeSpecs: []analyzeSpec{{
			Content:  base64.StdEncoding.EncodeToString(image),
			MimeType: util.SniffMimeForOCR(image),
			Features: []feature{{
				Type: "TEXT_DETECTION",
				// "*": язык Vision определяет сам
				TextDetectionConfig: textDetectionConfig{LanguageCodes: []string{"*"}},
			}},
		}},
	})

	body, status, err := e.post(ctx, payload)
	if err != nil {
		return ocr.Text{}, e.fail("request", err)
	}
	if status == http.StatusUnauthorized && e.apiKey == "" {
		// один ретрай с обновлённым IAM-токеном
		e.iamc.Invalidate()
		if body, status, err = e.post(ctx, payload); err != nil {
			return ocr.Text{}, e.fail("request", err)
		}
	}
	if status != http.StatusOK {
		return ocr.Text{}, e.fail("request", fmt.Errorf("yandex vision %d: %s", status, util.Truncate(body, 500)))
	}

	rec, err := parseResponse(body)
	if err != nil {
		return ocr.Text{}, e.fail("parse", err)
	}
	txt := ocr.NewText(textOf(rec))
	e.log.Debug("vision recognized", zap.Int("chars", len(txt.Trimmed)), zap.String("shape", fmt.Sprintf("%T", rec)))
	return txt, nil
}

func (e *Engine) post(ctx context.Context, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Api-Key "+e.apiKey)
	} else {
		tok, err := e.iamc.Token(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("iam token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("x-folder-id", e.folderID)
	}

	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return b, resp.StatusCode, nil
}

func (e *Engine) fail(op string, err error) error {
	return &ocr.ExtractionError{Engine: e.Name(), Op: op, Err: err}
}
