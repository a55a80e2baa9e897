package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"exam-bot/api/internal/answer"
	"exam-bot/api/internal/classify"
	"exam-bot/api/internal/ocr"
)

type Sender interface {
	Send(ctx context.Context, out OutboundResponse) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, variants []ocr.ImageVariant) (ocr.Text, error)
}

type Classifier interface {
	Classify(ctx context.Context, text string) classify.Result
}

type Answerer interface {
	GenerateAnswer(ctx context.Context, question string) (string, error)
}

// Outcome names the terminal state a message ended in.
type Outcome string

const (
	OutcomeStart           Outcome = "start"
	OutcomeUnsupported     Outcome = "unsupported"
	OutcomeNoText          Outcome = "no_text"
	OutcomePhotoError      Outcome = "photo_error"
	OutcomeNotQuestion     Outcome = "not_question"
	OutcomeAnswered        Outcome = "answered"
	OutcomeGenerationError Outcome = "generation_error"
	OutcomeFailure         Outcome = "failure"
)

// Router takes one inbound message through OCR, classification and answer
// generation and sends exactly one reply for it.
type Router struct {
	Sender      Sender
	Transcriber Transcriber
	Classifier  Classifier
	Answerer    Answerer
	Log         *zap.Logger
}

// Route decides the reply and sends it. Only the error of that single send
// is returned.
func (r *Router) Route(ctx context.Context, msg InboundMessage) error {
	log := r.logger().With(zap.String("request_id", uuid.NewString()), zap.Int64("chat_id", msg.ChatID))

	text, outcome := r.decide(ctx, log, msg)
	log.Info("message routed", zap.String("outcome", string(outcome)))

	return r.Sender.Send(ctx, OutboundResponse{ChatID: msg.ChatID, Text: text})
}

func (r *Router) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// decide never panics: anything unexpected becomes the generic failure reply.
func (r *Router) decide(ctx context.Context, log *zap.Logger, msg InboundMessage) (text string, outcome Outcome) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("routing panicked", zap.Any("panic", p), zap.Stack("stack"))
			text, outcome = FailureText, OutcomeFailure
		}
	}()

	switch p := msg.Payload.(type) {
	case TextPayload:
		if isHelpCommand(p.Content) {
			return StartText, OutcomeStart
		}
		return r.classify(ctx, log, p.Content)
	case PhotoPayload:
		return r.extract(ctx, log, p)
	case UnsupportedPayload, nil:
		return UnsupportedText, OutcomeUnsupported
	default:
		log.Error("unknown payload", zap.String("type", fmt.Sprintf("%T", p)))
		return FailureText, OutcomeFailure
	}
}

func isHelpCommand(s string) bool {
	return strings.HasPrefix(s, "/start") || strings.HasPrefix(s, "/help")
}

func (r *Router) extract(ctx context.Context, log *zap.Logger, p PhotoPayload) (string, Outcome) {
	txt, err := r.Transcriber.Transcribe(ctx, p.Candidates)
	if err != nil {
		var ee *ocr.ExtractionError
		if errors.As(err, &ee) {
			log.Warn("photo extraction failed", zap.Error(err))
			return PhotoErrorText, OutcomePhotoError
		}
		log.Error("photo extraction failed unexpectedly", zap.Error(err))
		return FailureText, OutcomeFailure
	}
	if txt.Empty() {
		return NoTextFoundText, OutcomeNoText
	}
	log.Debug("photo text extracted", zap.Int("chars", len(txt.Trimmed)))
	return r.classify(ctx, log, txt.Trimmed)
}

func (r *Router) classify(ctx context.Context, log *zap.Logger, text string) (string, Outcome) {
	res := r.Classifier.Classify(ctx, text)
	log.Debug("classified", zap.Bool("is_question", res.IsQuestion), zap.String("source", string(res.Source)))
	if !res.IsQuestion {
		return NonQuestionText, OutcomeNotQuestion
	}
	return r.generate(ctx, log, text)
}

func (r *Router) generate(ctx context.Context, log *zap.Logger, text string) (string, Outcome) {
	reply, err := r.Answerer.GenerateAnswer(ctx, text)
	if err != nil {
		var ge *answer.GenerationError
		if errors.As(err, &ge) {
			log.Warn("answer generation failed", zap.Error(err))
			return GenerationErrorText, OutcomeGenerationError
		}
		log.Error("answer generation failed unexpectedly", zap.Error(err))
		return FailureText, OutcomeFailure
	}
	return reply, OutcomeAnswered
}
