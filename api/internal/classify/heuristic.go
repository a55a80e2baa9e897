package classify

import (
	"context"
	"strings"
)

var defaultIndicators = []string{
	"?", "вопрос", "объясните", "расскажите", "что такое", "как", "почему", "опишите", "сравните",
	"what", "why", "how", "explain", "describe",
}

var defaultKeywords = []string{
	"операционная система", "процесс", "поток", "память", "файловая система", "deadlock",
	"взаимное исключение", "синхронизация", "виртуальная память", "планирование", "диспетчеризация",
	"семафор", "мьютекс", "прерывани",
	"process", "thread", "memory", "scheduling", "semaphore", "mutex", "file system", "kernel",
}

// Heuristic is the keyword rule: a text is a question when it contains a
// question indicator and a domain keyword. Matching is case-insensitive
// substring search. "ос" is left out of the keywords: it is a substring of
// "вопрос".
type Heuristic struct {
	indicators []string
	keywords   []string
}

func NewHeuristic() *Heuristic {
	return NewHeuristicWith(defaultIndicators, defaultKeywords)
}

func NewHeuristicWith(indicators, keywords []string) *Heuristic {
	return &Heuristic{
		indicators: lowerAll(indicators),
		keywords:   lowerAll(keywords),
	}
}

func (h *Heuristic) Source() Source { return SourceHeuristic }

func (h *Heuristic) Classify(_ context.Context, text string) (Result, error) {
	s := strings.ToLower(text)
	if !containsAny(s, h.indicators) {
		return Result{IsQuestion: false}, nil
	}
	return Result{IsQuestion: containsAny(s, h.keywords)}, nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
