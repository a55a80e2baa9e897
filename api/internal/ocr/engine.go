package ocr

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Engine recognizes text in raw image bytes.
type Engine interface {
	Name() string
	ExtractText(ctx context.Context, image []byte) (Text, error)
}

// Fetcher resolves a file id to the file contents.
type Fetcher interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Transcriber turns a photo into text: it downloads the best variant and
// runs a single OCR request on it.
type Transcriber struct {
	files  Fetcher
	engine Engine
	log    *zap.Logger
}

func NewTranscriber(files Fetcher, engine Engine, log *zap.Logger) *Transcriber {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transcriber{files: files, engine: engine, log: log}
}

// Best returns the highest-fidelity variant, which is the last one.
func Best(variants []ImageVariant) (ImageVariant, bool) {
	if len(variants) == 0 {
		return ImageVariant{}, false
	}
	return variants[len(variants)-1], true
}

// Transcribe extracts text from the best of variants. Every failure is an
// *ExtractionError; an empty result is not a failure.
func (t *Transcriber) Transcribe(ctx context.Context, variants []ImageVariant) (Text, error) {
	ph, ok := Best(variants)
	if !ok {
		return Text{}, &ExtractionError{Engine: t.engine.Name(), Op: "select", Err: errors.New("photo has no variants")}
	}
	img, err := t.files.Download(ctx, ph.FileID)
	if err != nil {
		return Text{}, &ExtractionError{Engine: t.engine.Name(), Op: "download", Err: err}
	}
	t.log.Debug("photo downloaded",
		zap.String("file_id", ph.FileID),
		zap.Int("width", ph.Width), zap.Int("height", ph.Height), zap.Int("bytes", len(img)))

	txt, err := t.engine.ExtractText(ctx, img)
	if err != nil {
		var ee *ExtractionError
		if errors.As(err, &ee) {
			return Text{}, err
		}
		return Text{}, &ExtractionError{Engine: t.engine.Name(), Op: "recognize", Err: err}
	}
	return txt, nil
}
