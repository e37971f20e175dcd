package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/VerseFinder/core/books"
	"github.com/FocuswithJustin/VerseFinder/core/detect"
	"github.com/FocuswithJustin/VerseFinder/core/slides"
	"github.com/FocuswithJustin/VerseFinder/internal/capture"
)

func newTestPipeline(t *testing.T, withStore bool) *Pipeline {
	t.Helper()
	table := books.NewTable(books.Canonical())
	detector := detect.NewDetector(table)

	slideMap := slides.NewMap(table)
	john, _ := table.Lookup("John")
	slideMap.Register(slides.Entry{
		BookCode:           john.Code,
		PresentationID:     "deck-john",
		ChapterVerseCounts: john.ChapterVerseCounts,
	})

	var store *capture.Store
	if withStore {
		var err error
		store, err = capture.Open(filepath.Join(t.TempDir(), "capture.db"), 30*time.Second)
		if err != nil {
			t.Fatalf("capture.Open: %v", err)
		}
		t.Cleanup(func() { store.Close() })
	}
	return NewPipeline(detector, store, slideMap)
}

func TestPipelineProcess(t *testing.T) {
	p := newTestPipeline(t, false)

	msgs, err := p.Process(context.Background(), "turn with me to John 3:16")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.Type != "detection" || m.Reference != "John 3:16" || m.Confidence != "high" {
		t.Errorf("message = %+v", m)
	}
	if m.Slide == nil {
		t.Fatal("no slide position")
	}
	if m.Slide.PresentationID != "deck-john" {
		t.Errorf("PresentationID = %q", m.Slide.PresentationID)
	}
	if m.DetectedAt == "" {
		t.Error("DetectedAt not set")
	}
}

func TestPipelineNoSlideForUnregisteredBook(t *testing.T) {
	p := newTestPipeline(t, false)

	msgs, err := p.Process(context.Background(), "Romans 8:28")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Slide != nil {
		t.Errorf("unexpected slide position %+v", msgs[0].Slide)
	}
}

func TestPipelineCrossSegmentAssembly(t *testing.T) {
	p := newTestPipeline(t, false)
	ctx := context.Background()

	// The reference is split across two segments; it only assembles once
	// both halves are inside the rolling window.
	msgs, err := p.Process(ctx, "turn with me to John chapter three")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("premature detection: %+v", msgs)
	}

	msgs, err = p.Process(ctx, "verse sixteen")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1: %+v", len(msgs), msgs)
	}
	if msgs[0].Reference != "John 3:16" {
		t.Errorf("reference = %q", msgs[0].Reference)
	}
}

func TestPipelineDedupAcrossSegments(t *testing.T) {
	p := newTestPipeline(t, true)
	ctx := context.Background()

	msgs, err := p.Process(ctx, "John 3:16")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}

	// The same reference re-detected from the rolling window overlap is
	// suppressed by the capture store.
	msgs, err = p.Process(ctx, "what a verse")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("duplicate broadcast: %+v", msgs)
	}
}

func TestPipelineResetWindow(t *testing.T) {
	p := newTestPipeline(t, false)
	ctx := context.Background()

	if _, err := p.Process(ctx, "turn with me to John chapter three"); err != nil {
		t.Fatal(err)
	}
	p.ResetWindow()

	msgs, err := p.Process(ctx, "verse sixteen")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("detection assembled across a reset window: %+v", msgs)
	}
}

func TestHubRoundTrip(t *testing.T) {
	hub := NewHub(newTestPipeline(t, false))
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	seg, _ := json.Marshal(SegmentMessage{Type: "segment", Text: "turn to John 3:16"})
	if err := conn.WriteMessage(websocket.TextMessage, seg); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg DetectionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "detection" || msg.Reference != "John 3:16" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Slide == nil || msg.Slide.SlideIndex != 51+25+15 {
		t.Errorf("slide = %+v", msg.Slide)
	}
}

func TestHubIgnoresMalformedMessages(t *testing.T) {
	hub := NewHub(newTestPipeline(t, false))
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Garbage, a wrong type, and an empty segment must all be ignored.
	for _, raw := range []string{"not json", `{"type":"other","text":"John 3:16"}`, `{"type":"segment","text":""}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	seg, _ := json.Marshal(SegmentMessage{Type: "segment", Text: "Genesis 1:1"})
	if err := conn.WriteMessage(websocket.TextMessage, seg); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg DetectionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Reference != "Genesis 1:1" {
		t.Errorf("reference = %q", msg.Reference)
	}
}
