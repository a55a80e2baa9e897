package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"exam-bot/api/internal/config"
	"exam-bot/api/internal/httpserver"
	"exam-bot/api/internal/logging"
	"exam-bot/api/internal/telegram"
	"exam-bot/api/internal/webhook"
)

// Long polling держит запрос 30 с, клиент должен ждать дольше.
const botAPITimeout = 40 * time.Second

type app struct {
	cfg *config.Config
	log *zap.Logger
	// botEndpoint переопределяет tgbotapi.APIEndpoint (тесты).
	botEndpoint string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "bot",
		Short:         "Telegram bot answering Operating Systems exam questions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.AddCommand(a.serveCmd(), a.pollCmd(), a.setWebhookCmd())
	return root
}

func (a *app) serveCmd() *cobra.Command {
	var path string
	var register bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Telegram webhook over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			router, cleanup, err := buildRouter(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer cleanup()

			if path == "" {
				path = webhookPath(a.cfg.TelegramBotToken)
			}
			if register {
				if err := a.registerWebhook(path); err != nil {
					return err
				}
			}

			h := webhook.New(router, a.cfg.WebhookSecret, a.log.Named("webhook"))
			mux := httpserver.NewMux(path, h, "ok")
			a.log.Info("webhook mounted", zap.String("path", path))
			return httpserver.Serve(ctx, "0.0.0.0:"+a.cfg.Port, mux, a.log)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "webhook path (default derived from the bot token)")
	cmd.Flags().BoolVar(&register, "register", false, "call setWebhook with WEBHOOK_URL before serving")
	return cmd
}

func (a *app) pollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Fetch updates with long polling instead of a webhook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			router, cleanup, err := buildRouter(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer cleanup()

			bot, err := a.newBot()
			if err != nil {
				return err
			}
			// при активном вебхуке getUpdates отвечает 409
			if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
				return fmt.Errorf("deleteWebhook: %w", err)
			}
			a.log.Info("polling started", zap.String("bot", bot.Self.UserName))

			runPolling(ctx, bot, a.log, func(upd tgbotapi.Update) {
				msg, ok := telegram.FromUpdate(upd)
				if !ok {
					return
				}
				if err := router.Route(ctx, msg); err != nil {
					a.log.Error("reply not delivered", zap.Int("update_id", upd.UpdateID), zap.Error(err))
				}
			})
			return nil
		},
	}
}

func (a *app) setWebhookCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "set-webhook",
		Short: "Register WEBHOOK_URL with Telegram",
		RunE: func(*cobra.Command, []string) error {
			if path == "" {
				path = webhookPath(a.cfg.TelegramBotToken)
			}
			return a.registerWebhook(path)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "webhook path (default derived from the bot token)")
	return cmd
}

func (a *app) registerWebhook(path string) error {
	base := strings.TrimSpace(a.cfg.WebhookURL)
	if base == "" {
		return fmt.Errorf("WEBHOOK_URL is empty")
	}
	bot, err := a.newBot()
	if err != nil {
		return err
	}
	public := strings.TrimRight(base, "/") + path
	if _, err := bot.MakeRequest("setWebhook", webhookParams(public, a.cfg.WebhookSecret)); err != nil {
		return fmt.Errorf("setWebhook: %w", err)
	}
	a.log.Info("webhook registered", zap.String("url", public))
	return nil
}

// newBot calls getMe, so it fails fast on a bad token.
func (a *app) newBot() (*tgbotapi.BotAPI, error) {
	endpoint := a.botEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(a.cfg.TelegramBotToken, endpoint, &http.Client{Timeout: botAPITimeout})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return bot, nil
}

func webhookParams(url, secret string) tgbotapi.Params {
	p := tgbotapi.Params{}
	p["url"] = url
	p.AddNonEmpty("secret_token", secret)
	p.AddBool("drop_pending_updates", true)
	_ = p.AddInterface("allowed_updates", []string{"message", "edited_message"})
	return p
}

// секретный путь вебхука: не угадывается и не раскрывает токен
func webhookPath(token string) string {
	return "/webhook/" + shortHash(token)
}

// shortHash: хэш в стиле FNV-1a, но с исходным seed 1469598103934665603
// (не канонический offset basis), чтобы пути вебхука не менялись.
func shortHash(s string) string {
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
