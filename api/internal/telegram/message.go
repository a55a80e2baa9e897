package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"exam-bot/api/internal/ocr"
)

// InboundMessage is one chat message reduced to what routing needs.
type InboundMessage struct {
	ChatID  int64
	Payload Payload
}

// Payload is one of TextPayload, PhotoPayload or UnsupportedPayload.
type Payload interface {
	isPayload()
}

type TextPayload struct {
	Content string
}

// PhotoPayload lists the sizes of one photo from smallest to largest.
type PhotoPayload struct {
	Candidates []ocr.ImageVariant
}

type UnsupportedPayload struct{}

func (TextPayload) isPayload()        {}
func (PhotoPayload) isPayload()       {}
func (UnsupportedPayload) isPayload() {}

type OutboundResponse struct {
	ChatID int64
	Text   string
}

// FromUpdate extracts the message of an update, preferring a new message over
// an edited one. ok is false when the update carries no message at all.
func FromUpdate(upd tgbotapi.Update) (InboundMessage, bool) {
	msg := upd.Message
	if msg == nil {
		msg = upd.EditedMessage
	}
	if msg == nil || msg.Chat == nil {
		return InboundMessage{}, false
	}
	in := InboundMessage{ChatID: msg.Chat.ID}
	switch {
	case msg.Text != "":
		in.Payload = TextPayload{Content: msg.Text}
	case len(msg.Photo) > 0:
		variants := make([]ocr.ImageVariant, 0, len(msg.Photo))
		for _, ph := range msg.Photo {
			variants = append(variants, ocr.ImageVariant{
				FileID:       ph.FileID,
				FileUniqueID: ph.FileUniqueID,
				Width:        ph.Width,
				Height:       ph.Height,
				FileSize:     ph.FileSize,
			})
		}
		in.Payload = PhotoPayload{Candidates: variants}
	default:
		in.Payload = UnsupportedPayload{}
	}
	return in, true
}
