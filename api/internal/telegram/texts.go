package telegram

// Replies are in Russian: the bot serves the "Операционные системы" exam.
const (
	StartText           = "Я помогу ответить на экзаменационный вопрос по «Операционным системам».\nПрисылайте вопрос — фото или текстом."
	HelpText            = StartText
	NonQuestionText     = "Я не могу понять вопрос.\nПришлите экзаменационный вопрос по «Операционным системам» — фото или текстом."
	GenerationErrorText = "Я не смог подготовить ответ на экзаменационный вопрос."
	PhotoErrorText      = "Я не могу обработать эту фотографию."
	NoTextFoundText     = "Не удалось распознать текст на фотографии."
	UnsupportedText     = "Я могу обработать только текстовое сообщение или фотографию."
	FailureText         = "Произошла ошибка при обработке сообщения."
)

// Telegram rejects messages longer than 4096 characters.
const maxMessageRunes = 4096

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageRunes {
		return s
	}
	return string(r[:maxMessageRunes-1]) + "…"
}
