package prompts

import "strings"

// Placeholder is replaced with the question text in the generation prompt.
const Placeholder = "{{QUESTION}}"

type Templates struct {
	ClassificationPrompt string `json:"classification_prompt"`
	GenerationPrompt     string `json:"generation_prompt"`
}

var defaultTemplates = Templates{
	ClassificationPrompt: `Ты классификатор сообщений для бота, который отвечает на экзаменационные вопросы по курсу «Операционные системы».
Определи, является ли сообщение пользователя вопросом (или заданием) по операционным системам:
процессы и потоки, планирование, синхронизация, взаимоблокировки, память и виртуальная память,
файловые системы, ввод-вывод, прерывания, ядро.
Верни строго JSON без пояснений вокруг:
{"is_question": true|false, "explanation": "одно короткое предложение"}`,
	GenerationPrompt: "Ответь на следующий вопрос по операционным системам: " + Placeholder,
}

// Defaults returns the compiled-in template pair.
func Defaults() Templates { return defaultTemplates }

// Substitute puts question into every placeholder of tmpl. A template
// without the placeholder is returned as is.
func Substitute(tmpl, question string) string {
	return strings.ReplaceAll(tmpl, Placeholder, question)
}

func (t Templates) complete() bool {
	return strings.TrimSpace(t.ClassificationPrompt) != "" && strings.TrimSpace(t.GenerationPrompt) != ""
}
