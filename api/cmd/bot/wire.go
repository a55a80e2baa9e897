package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"exam-bot/api/internal/answer"
	"exam-bot/api/internal/classify"
	"exam-bot/api/internal/config"
	"exam-bot/api/internal/llm"
	"exam-bot/api/internal/llm/gemini"
	"exam-bot/api/internal/llm/openai"
	"exam-bot/api/internal/llm/yandexgpt"
	"exam-bot/api/internal/ocr"
	"exam-bot/api/internal/ocr/yandex"
	"exam-bot/api/internal/prompts"
	"exam-bot/api/internal/telegram"
)

// buildRouter wires the whole pipeline. Missing credentials do not fail
// here; the affected call fails later and the user gets the matching reply.
func buildRouter(ctx context.Context, cfg *config.Config, log *zap.Logger) (*telegram.Router, func(), error) {
	completer, cleanup, err := newCompleter(cfg)
	if err != nil {
		return nil, nil, err
	}

	templates := prompts.New(promptStore(ctx, cfg, log), cfg.PromptsBucket, cfg.PromptsKey, log.Named("prompts"))

	visionKey := cfg.VisionAPIKey
	if visionKey == "" {
		visionKey = cfg.YCAPIKey
	}
	vision := yandex.New(yandex.Options{
		APIKey:     visionKey,
		OAuthToken: cfg.YCOAuthToken,
		FolderID:   cfg.YCFolderID,
	}, log.Named("vision"))

	tg := telegram.NewClient(cfg.TelegramBotToken)

	log.Info("pipeline ready",
		zap.String("completer", completer.Name()),
		zap.Bool("prompts_remote", cfg.PromptsBucket != ""),
	)

	return &telegram.Router{
		Sender:      tg,
		Transcriber: ocr.NewTranscriber(tg, vision, log.Named("ocr")),
		Classifier: classify.New(log.Named("classify"),
			classify.NewModel(completer, templates),
			classify.NewHeuristic(),
		),
		Answerer: answer.New(completer, templates, log.Named("answer")),
		Log:      log.Named("router"),
	}, cleanup, nil
}

func newCompleter(cfg *config.Config) (llm.Completer, func(), error) {
	noop := func() {}
	switch cfg.LLMProvider {
	case "", "yandexgpt":
		return yandexgpt.New(cfg.YCAPIKey, cfg.ModelURI), noop, nil
	case "openai":
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), noop, nil
	case "gemini":
		g := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
		return g, func() { _ = g.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

// promptStore returns nil when object storage is not configured, which
// makes the provider serve the built-in templates.
func promptStore(ctx context.Context, cfg *config.Config, log *zap.Logger) prompts.ObjectGetter {
	if cfg.PromptsBucket == "" {
		return nil
	}
	client, err := prompts.NewS3Client(ctx, prompts.S3Options{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		log.Warn("prompt store disabled", zap.Error(err))
		return nil
	}
	return client
}
