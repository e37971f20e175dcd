// Package server exposes the detection pipeline over WebSocket: transcript
// segments come in, validated detections with slide positions go out to
// every connected client.
package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/FocuswithJustin/VerseFinder/core/detect"
	"github.com/FocuswithJustin/VerseFinder/core/slides"
	"github.com/FocuswithJustin/VerseFinder/internal/capture"
	"github.com/FocuswithJustin/VerseFinder/internal/logging"
)

// segmentWindow is how many trailing transcript segments are kept and
// re-scanned with each new one. References split across a segment boundary
// ("turn to John chapter three" / "verse sixteen") only assemble when the
// halves are seen together; the capture layer drops the resulting repeats.
const segmentWindow = 2

// SegmentMessage is an inbound transcript segment.
type SegmentMessage struct {
	Type string `json:"type"` // "segment"
	Text string `json:"text"`
}

// SlidePosition is the resolved deck location for a detection.
type SlidePosition struct {
	PresentationID string `json:"presentation_id"`
	SlideIndex     int    `json:"slide_index"`
}

// DetectionMessage is an outbound detection broadcast.
type DetectionMessage struct {
	Type       string         `json:"type"` // "detection"
	Reference  string         `json:"reference"`
	BookCode   string         `json:"book_code"`
	Chapter    int            `json:"chapter"`
	VerseStart int            `json:"verse_start"`
	VerseEnd   int            `json:"verse_end,omitempty"`
	Confidence string         `json:"confidence"`
	Slide      *SlidePosition `json:"slide,omitempty"`
	DetectedAt string         `json:"detected_at"`
}

// Pipeline joins the detector, the capture log, and the slide map. The
// capture store may be nil, in which case nothing is persisted and every
// detection is broadcast.
type Pipeline struct {
	detector *detect.Detector
	store    *capture.Store
	slideMap *slides.Map

	mu     sync.Mutex
	recent []string
}

// NewPipeline builds a pipeline. slideMap may be nil when no library is
// loaded; detections then carry no slide position.
func NewPipeline(detector *detect.Detector, store *capture.Store, slideMap *slides.Map) *Pipeline {
	return &Pipeline{detector: detector, store: store, slideMap: slideMap}
}

// Process runs one transcript segment through the pipeline and returns the
// detections to broadcast. The segment is scanned together with the rolling
// window of recent segments; duplicates from the overlap are suppressed by
// the capture store's dedup window.
func (p *Pipeline) Process(ctx context.Context, text string) ([]DetectionMessage, error) {
	p.mu.Lock()
	p.recent = append(p.recent, text)
	if len(p.recent) > segmentWindow {
		p.recent = p.recent[len(p.recent)-segmentWindow:]
	}
	combined := strings.Join(p.recent, " ")
	p.mu.Unlock()

	var out []DetectionMessage
	for _, v := range p.detector.Detect(combined) {
		if p.store != nil {
			_, recorded, err := p.store.Record(ctx, v)
			if err != nil {
				return out, err
			}
			if !recorded {
				continue
			}
		}
		out = append(out, p.toMessage(v))
		logging.DetectionEvent(v.Reference.String(), v.Confidence.String())
	}
	return out, nil
}

// ResetWindow clears the rolling segment window, for use when the audio
// source restarts.
func (p *Pipeline) ResetWindow() {
	p.mu.Lock()
	p.recent = nil
	p.mu.Unlock()
}

func (p *Pipeline) toMessage(v detect.DetectedVerse) DetectionMessage {
	msg := DetectionMessage{
		Type:       "detection",
		Reference:  v.Reference.String(),
		BookCode:   v.Reference.BookCode,
		Chapter:    v.Reference.Chapter,
		VerseStart: v.Reference.VerseStart,
		VerseEnd:   v.Reference.VerseEnd,
		Confidence: v.Confidence.String(),
		DetectedAt: v.DetectedAt.UTC().Format(time.RFC3339),
	}
	if p.slideMap != nil {
		if pos, ok := p.slideMap.Lookup(v.Reference); ok {
			msg.Slide = &SlidePosition{
				PresentationID: pos.PresentationID,
				SlideIndex:     pos.SlideIndex,
			}
		}
	}
	return msg
}
