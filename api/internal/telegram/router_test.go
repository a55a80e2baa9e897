package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"exam-bot/api/internal/answer"
	"exam-bot/api/internal/classify"
	"exam-bot/api/internal/llm"
	"exam-bot/api/internal/ocr"
	"exam-bot/api/internal/prompts"
)

type recordingSender struct {
	sent []OutboundResponse
	err  error
}

func (s *recordingSender) Send(_ context.Context, out OutboundResponse) error {
	s.sent = append(s.sent, out)
	return s.err
}

type fakeTranscriber struct {
	text  string
	err   error
	calls [][]ocr.ImageVariant
}

func (f *fakeTranscriber) Transcribe(_ context.Context, v []ocr.ImageVariant) (ocr.Text, error) {
	f.calls = append(f.calls, v)
	if f.err != nil {
		return ocr.Text{}, f.err
	}
	return ocr.NewText(f.text), nil
}

type fakeClassifier struct {
	res   classify.Result
	calls []string
	panic bool
}

func (f *fakeClassifier) Classify(_ context.Context, text string) classify.Result {
	f.calls = append(f.calls, text)
	if f.panic {
		panic("nil map")
	}
	return f.res
}

type fakeAnswerer struct {
	reply string
	err   error
	calls []string
}

func (f *fakeAnswerer) GenerateAnswer(_ context.Context, q string) (string, error) {
	f.calls = append(f.calls, q)
	return f.reply, f.err
}

type fixture struct {
	sender *recordingSender
	ocr    *fakeTranscriber
	cls    *fakeClassifier
	ans    *fakeAnswerer
	router *Router
}

func newFixture() *fixture {
	f := &fixture{
		sender: &recordingSender{},
		ocr:    &fakeTranscriber{},
		cls:    &fakeClassifier{res: classify.Result{IsQuestion: true, Source: classify.SourceModel}},
		ans:    &fakeAnswerer{reply: "Ответ"},
	}
	f.router = &Router{Sender: f.sender, Transcriber: f.ocr, Classifier: f.cls, Answerer: f.ans, Log: zap.NewNop()}
	return f
}

func text(s string) InboundMessage { return InboundMessage{ChatID: 42, Payload: TextPayload{Content: s}} }

func photo(n int) InboundMessage {
	var v []ocr.ImageVariant
	for i := 0; i < n; i++ {
		v = append(v, ocr.ImageVariant{FileID: string(rune('a' + i)), Width: 100 * (i + 1)})
	}
	return InboundMessage{ChatID: 42, Payload: PhotoPayload{Candidates: v}}
}

func TestRoute_Table(t *testing.T) {
	defer goleak.VerifyNone(t)

	extractionErr := &ocr.ExtractionError{Engine: "yandex", Op: "request", Err: errors.New("503")}
	generationErr := &answer.GenerationError{Provider: "yandexgpt", Err: llm.ErrNoAlternatives}

	cases := []struct {
		name  string
		msg   InboundMessage
		setup func(f *fixture)
		want  string
	}{
		{name: "start", msg: text("/start"), want: StartText},
		{name: "help", msg: text("/help me"), want: HelpText},
		{name: "unsupported", msg: InboundMessage{ChatID: 42, Payload: UnsupportedPayload{}}, want: UnsupportedText},
		{name: "nil payload", msg: InboundMessage{ChatID: 42}, want: UnsupportedText},
		{name: "not a question", msg: text("how's the weather"), setup: func(f *fixture) {
			f.cls.res = classify.Result{IsQuestion: false, Source: classify.SourceHeuristic}
		}, want: NonQuestionText},
		{name: "answered", msg: text("что такое процесс?"), want: "Ответ"},
		{name: "generation error", msg: text("что такое процесс?"), setup: func(f *fixture) {
			f.ans.err = generationErr
		}, want: GenerationErrorText},
		{name: "unexpected answer error", msg: text("что такое процесс?"), setup: func(f *fixture) {
			f.ans.err = errors.New("surprise")
		}, want: FailureText},
		{name: "photo answered", msg: photo(1), setup: func(f *fixture) {
			f.ocr.text = "Что такое семафор?"
		}, want: "Ответ"},
		{name: "photo without text", msg: photo(1), setup: func(f *fixture) {
			f.ocr.text = "  \n"
		}, want: NoTextFoundText},
		{name: "photo extraction error", msg: photo(2), setup: func(f *fixture) {
			f.ocr.err = extractionErr
		}, want: PhotoErrorText},
		{name: "photo unexpected error", msg: photo(2), setup: func(f *fixture) {
			f.ocr.err = errors.New("surprise")
		}, want: FailureText},
		{name: "classifier panic", msg: text("что такое поток?"), setup: func(f *fixture) {
			f.cls.panic = true
		}, want: FailureText},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			if tc.setup != nil {
				tc.setup(f)
			}
			require.NoError(t, f.router.Route(context.Background(), tc.msg))
			require.Len(t, f.sender.sent, 1, "exactly one reply per message")
			assert.Equal(t, OutboundResponse{ChatID: 42, Text: tc.want}, f.sender.sent[0])
		})
	}
}

func TestRoute_CommandsSkipClassification(t *testing.T) {
	for _, s := range []string{"/start", "/help", "/start почему происходит deadlock?"} {
		f := newFixture()
		require.NoError(t, f.router.Route(context.Background(), text(s)))
		assert.Empty(t, f.cls.calls)
		assert.Empty(t, f.ans.calls)
		assert.Equal(t, StartText, f.sender.sent[0].Text)
	}
}

func TestRoute_PhotoPassesAllVariantsOnce(t *testing.T) {
	f := newFixture()
	f.ocr.text = "  Как работает планировщик?  "
	msg := photo(3)

	require.NoError(t, f.router.Route(context.Background(), msg))
	require.Len(t, f.ocr.calls, 1)
	assert.Equal(t, msg.Payload.(PhotoPayload).Candidates, f.ocr.calls[0])
	assert.Equal(t, []string{"Как работает планировщик?"}, f.cls.calls)
	assert.Equal(t, []string{"Как работает планировщик?"}, f.ans.calls)
}

func TestRoute_ExtractedCommandIsClassified(t *testing.T) {
	f := newFixture()
	f.ocr.text = "/start"
	f.cls.res = classify.Result{IsQuestion: false}

	require.NoError(t, f.router.Route(context.Background(), photo(1)))
	assert.Equal(t, []string{"/start"}, f.cls.calls)
	assert.Equal(t, NonQuestionText, f.sender.sent[0].Text)
}

func TestRoute_SendErrorPropagates(t *testing.T) {
	f := newFixture()
	f.sender.err = errors.New("telegram send: 502")

	err := f.router.Route(context.Background(), text("/start"))
	require.Error(t, err)
	assert.Len(t, f.sender.sent, 1)
}

type staticTemplates prompts.Templates

func (s staticTemplates) Templates(context.Context) prompts.Templates { return prompts.Templates(s) }

type scriptedLLM struct {
	classifyErr error
	answer      string
	calls       []llm.Request
}

func (s *scriptedLLM) Name() string { return "scripted" }

func (s *scriptedLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	s.calls = append(s.calls, req)
	if req.JSON {
		return llm.Response{}, s.classifyErr
	}
	return llm.Response{Alternatives: []llm.Alternative{{Text: s.answer}}}, nil
}

// The real classifier and answerer wired together, with the model tier of
// classification failing.
func TestRoute_HeuristicScenarios(t *testing.T) {
	tmpl := staticTemplates{ClassificationPrompt: "classify", GenerationPrompt: "Answer: {{QUESTION}}"}

	newRouter := func(m *scriptedLLM, s *recordingSender) *Router {
		return &Router{
			Sender:      s,
			Transcriber: &fakeTranscriber{},
			Classifier:  classify.New(nil, classify.NewModel(m, tmpl), classify.NewHeuristic()),
			Answerer:    answer.New(m, tmpl, nil),
		}
	}

	t.Run("deadlock question is answered", func(t *testing.T) {
		m := &scriptedLLM{classifyErr: errors.New("timeout"), answer: "Взаимоблокировка возникает, когда..."}
		s := &recordingSender{}
		require.NoError(t, newRouter(m, s).Route(context.Background(), text("почему происходит deadlock?")))

		require.Len(t, s.sent, 1)
		assert.Equal(t, "Взаимоблокировка возникает, когда...", s.sent[0].Text)
		require.Len(t, m.calls, 2)
		assert.Equal(t, "Answer: почему происходит deadlock?", m.calls[1].Messages[1].Text)
	})

	t.Run("weather is not a question", func(t *testing.T) {
		m := &scriptedLLM{classifyErr: errors.New("timeout")}
		s := &recordingSender{}
		require.NoError(t, newRouter(m, s).Route(context.Background(), text("how's the weather")))

		require.Len(t, s.sent, 1)
		assert.Equal(t, NonQuestionText, s.sent[0].Text)
		assert.Len(t, m.calls, 1)
	})
}
