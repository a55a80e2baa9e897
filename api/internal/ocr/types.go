package ocr

import (
	"fmt"
	"strings"
)

// ImageVariant is one resolution of a photo as the chat platform offers it.
type ImageVariant struct {
	FileID       string
	FileUniqueID string
	Width        int
	Height       int
	FileSize     int
}

// Text is the result of recognition. Trimmed is what callers act on; an
// empty Trimmed means the image carried no text.
type Text struct {
	Raw     string
	Trimmed string
}

func NewText(raw string) Text {
	return Text{Raw: raw, Trimmed: strings.TrimSpace(raw)}
}

func (t Text) Empty() bool { return t.Trimmed == "" }

// ExtractionError reports that text could not be obtained from an image:
// the download, the OCR call or the decoding of its response failed.
type ExtractionError struct {
	Engine string
	Op     string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Engine, e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
