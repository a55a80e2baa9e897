package yandex

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// batchAnalyze and recognizeText responses share nothing but the idea of a
// text annotation, so both are decoded into one permissive struct and then
// reduced to a recognition variant.
type response struct {
	Results []struct {
		Results []struct {
			TextDetection *annotation `json:"textDetection,omitempty"`
			Error         *rpcStatus  `json:"error,omitempty"`
		} `json:"results"`
		Error *rpcStatus `json:"error,omitempty"`
	} `json:"results,omitempty"`

	Result *struct {
		TextAnnotation *annotation `json:"textAnnotation,omitempty"`
	} `json:"result,omitempty"`
}

type rpcStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type annotation struct {
	FullText string  `json:"fullText,omitempty"`
	Pages    []page  `json:"pages,omitempty"`
	Blocks   []block `json:"blocks,omitempty"`
}

type page struct {
	Blocks []block `json:"blocks"`
}

type block struct {
	Lines []line `json:"lines"`
}

type line struct {
	Text  string `json:"text,omitempty"`
	Words []word `json:"words,omitempty"`
}

type word struct {
	Text string `json:"text"`
}

// recognition is one of fullText or pageTree.
type recognition interface {
	isRecognition()
}

type fullText struct{ text string }

type pageTree struct{ pages []page }

func (fullText) isRecognition() {}
func (pageTree) isRecognition() {}

var errNoAnnotation = errors.New("response has no text annotation")

// parseResponse reduces a raw OCR response to a recognition. A non-empty
// fullText wins over the page hierarchy.
func parseResponse(b []byte) (recognition, error) {
	var r response
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	ann, err := r.annotation()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ann.FullText) != "" {
		return fullText{text: ann.FullText}, nil
	}
	if len(ann.Pages) == 0 && len(ann.Blocks) > 0 {
		return pageTree{pages: []page{{Blocks: ann.Blocks}}}, nil
	}
	return pageTree{pages: ann.Pages}, nil
}

func (r *response) annotation() (*annotation, error) {
	if r.Result != nil && r.Result.TextAnnotation != nil {
		return r.Result.TextAnnotation, nil
	}
	if len(r.Results) == 0 {
		return nil, errNoAnnotation
	}
	outer := r.Results[0]
	if outer.Error != nil {
		return nil, fmt.Errorf("vision error %d: %s", outer.Error.Code, outer.Error.Message)
	}
	if len(outer.Results) == 0 {
		return nil, errNoAnnotation
	}
	inner := outer.Results[0]
	if inner.Error != nil {
		return nil, fmt.Errorf("vision error %d: %s", inner.Error.Code, inner.Error.Message)
	}
	if inner.TextDetection == nil {
		return nil, errNoAnnotation
	}
	return inner.TextDetection, nil
}

// textOf renders a recognition as plain text.
func textOf(rec recognition) string {
	switch r := rec.(type) {
	case fullText:
		return r.text
	case pageTree:
		return joinPages(r.pages)
	default:
		panic(fmt.Sprintf("yandex: unknown recognition %T", rec))
	}
}

// joinPages joins words with spaces and lines, blocks and pages with
// newlines. A line without words falls back to its own text.
func joinPages(pages []page) string {
	var lines []string
	for _, p := range pages {
		for _, b := range p.Blocks {
			for _, l := range b.Lines {
				s := l.Text
				if len(l.Words) > 0 {
					ws := make([]string, 0, len(l.Words))
					for _, w := range l.Words {
						if t := strings.TrimSpace(w.Text); t != "" {
							ws = append(ws, t)
						}
					}
					s = strings.Join(ws, " ")
				}
				if s = strings.TrimSpace(s); s != "" {
					lines = append(lines, s)
				}
			}
		}
	}
	return strings.Join(lines, "\n")
}
