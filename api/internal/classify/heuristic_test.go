package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristic(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"почему происходит deadlock?", true},
		{"Что такое виртуальная память", true},
		{"ОБЪЯСНИТЕ ПЛАНИРОВАНИЕ ПРОЦЕССОВ", true},
		{"What is a thread?", true},
		{"Как устроена ОС?", false},
		{"Что такое ОС?", false},
		{"как дела в ОС-группе", false},
		{"Как ОС планирует процессы?", true},
		{"what is a deadlock?", true},
		{"how's the weather", false},
		{"вопрос про погоду", false},
		{"процесс пошёл", false},
		{"?", false},
		{"", false},
	}
	h := NewHeuristic()
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			res, err := h.Classify(context.Background(), tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.IsQuestion)
		})
	}
}

func TestHeuristicWith_CustomSets(t *testing.T) {
	h := NewHeuristicWith([]string{"?"}, []string{"Paging"})
	res, _ := h.Classify(context.Background(), "paging?")
	assert.True(t, res.IsQuestion)
	res, _ = h.Classify(context.Background(), "paging")
	assert.False(t, res.IsQuestion)
}
