// Command versefinder is the CLI for the verse detection pipeline.
// It provides commands for detecting references in text, indexing the
// presentation library, inspecting the capture log, and running the
// transcript WebSocket server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/VerseFinder/core/books"
	"github.com/FocuswithJustin/VerseFinder/core/detect"
	"github.com/FocuswithJustin/VerseFinder/core/match"
	"github.com/FocuswithJustin/VerseFinder/core/normalize"
	"github.com/FocuswithJustin/VerseFinder/core/slides"
	"github.com/FocuswithJustin/VerseFinder/internal/capture"
	"github.com/FocuswithJustin/VerseFinder/internal/library"
	"github.com/FocuswithJustin/VerseFinder/internal/logging"
	"github.com/FocuswithJustin/VerseFinder/internal/server"
)

const version = "0.1.0"

// CLI defines the command-line interface for versefinder.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat string `name:"log-format" help:"Log format (json, text)" default:"text"`

	// Command groups (noun-first organization)
	Detect    DetectCmd    `cmd:"" help:"Detect verse references in text"`
	Match     MatchCmd     `cmd:"" help:"Resolve a book name, alias, or misspelling"`
	Normalize NormalizeCmd `cmd:"" help:"Show the normalized form of spoken text"`
	Library   LibraryGroup `cmd:"" help:"Presentation library operations"`
	Capture   CaptureGroup `cmd:"" help:"Detection log operations"`
	Listen    ListenCmd    `cmd:"" help:"Run the transcript WebSocket server"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// LibraryGroup contains presentation library operations.
type LibraryGroup struct {
	Index LibraryIndexCmd `cmd:"" help:"Index a library manifest"`
}

// CaptureGroup contains detection log operations.
type CaptureGroup struct {
	List   CaptureListCmd   `cmd:"" help:"List recorded detections"`
	Export CaptureExportCmd `cmd:"" help:"Export the detection log as xz-compressed JSON Lines"`
}

// DetectCmd detects verse references in a text segment.
type DetectCmd struct {
	Text string `arg:"" help:"Transcript text to scan"`
	JSON bool   `help:"Emit detections as JSON"`
}

func (c *DetectCmd) Run() error {
	detector := detect.NewDetector(books.NewTable(books.Canonical()))
	found := detector.Detect(c.Text)

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(found)
	}
	if len(found) == 0 {
		fmt.Println("no references detected")
		return nil
	}
	for _, v := range found {
		fmt.Printf("%s  (%s)\n", v.Reference, v.Confidence)
	}
	return nil
}

// MatchCmd resolves a book name through the exact, ordinal, and fuzzy tiers.
type MatchCmd struct {
	Name string `arg:"" help:"Book name, alias, or misspelling"`
}

func (c *MatchCmd) Run() error {
	table := books.NewTable(books.Canonical())
	book, ok := match.NewMatcher(table).Match(c.Name)
	if !ok {
		return fmt.Errorf("no book matches %q", c.Name)
	}
	fmt.Printf("%s (%s), %d chapters\n", book.Name, book.Code, book.ChapterCount())
	return nil
}

// NormalizeCmd prints the normalized form of spoken text.
type NormalizeCmd struct {
	Text string `arg:"" help:"Spoken-form text"`
}

func (c *NormalizeCmd) Run() error {
	fmt.Println(normalize.Normalize(c.Text))
	return nil
}

// LibraryIndexCmd indexes a presentation library manifest.
type LibraryIndexCmd struct {
	Manifest string `arg:"" help:"Path to the library manifest XML" type:"existingfile"`
}

func (c *LibraryIndexCmd) Run() error {
	table := books.NewTable(books.Canonical())
	ix := library.NewIndexer(table, match.NewMatcher(table), slides.NewMap(table))
	stats, err := ix.IndexFile(c.Manifest)
	if err != nil {
		return fmt.Errorf("indexing library: %w", err)
	}
	fmt.Printf("indexed %d of %d presentations\n", stats.Matched, stats.Presentations)
	for _, p := range ix.Presentations() {
		fmt.Printf("  %-10s %-12s %s\n", p.BookCode, p.ID, p.DisplayName)
	}
	return nil
}

// CaptureListCmd lists recorded detections.
type CaptureListCmd struct {
	DB    string `help:"Path to the capture database" default:"versefinder.db" type:"path"`
	Limit int    `help:"Maximum rows to show (0 = all)" default:"20"`
}

func (c *CaptureListCmd) Run() error {
	store, err := capture.Open(c.DB, -1)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.List(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("no detections recorded")
		return nil
	}
	for _, d := range rows {
		fmt.Printf("%s  %-20s %-6s %s\n",
			d.DetectedAt.Local().Format(time.DateTime), d.Reference, d.Confidence, d.SourceText)
	}
	return nil
}

// CaptureExportCmd exports the detection log.
type CaptureExportCmd struct {
	DB  string `help:"Path to the capture database" default:"versefinder.db" type:"path"`
	Out string `required:"" help:"Output path for the xz archive" type:"path"`
}

func (c *CaptureExportCmd) Run() error {
	store, err := capture.Open(c.DB, -1)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Create(c.Out)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if err := store.ExportXZ(context.Background(), f); err != nil {
		return fmt.Errorf("exporting detections: %w", err)
	}
	fmt.Printf("exported detection log to %s\n", c.Out)
	return nil
}

// ListenCmd runs the transcript WebSocket server.
type ListenCmd struct {
	Addr        string        `help:"Bind address" default:"0.0.0.0"`
	Port        int           `help:"Server port" default:"8321"`
	DB          string        `help:"Path to the capture database (empty disables persistence)" default:"versefinder.db" type:"path"`
	Manifest    string        `help:"Library manifest to index at startup" type:"path"`
	DedupWindow time.Duration `help:"Suppression window for repeated references" default:"30s"`
}

func (c *ListenCmd) Run() error {
	table := books.NewTable(books.Canonical())
	detector := detect.NewDetector(table)
	slideMap := slides.NewMap(table)

	if c.Manifest != "" {
		ix := library.NewIndexer(table, detector.Matcher(), slideMap)
		stats, err := ix.IndexFile(c.Manifest)
		if err != nil {
			return fmt.Errorf("indexing library: %w", err)
		}
		logging.Info("library indexed", "matched", stats.Matched, "seen", stats.Presentations)
	}

	var store *capture.Store
	if c.DB != "" {
		var err error
		store, err = capture.Open(c.DB, c.DedupWindow)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	hub := server.NewHub(server.NewPipeline(detector, store, slideMap))
	return hub.Serve(c.Addr, c.Port)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("versefinder %s\n", version)
	return nil
}

func initLogging() {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("versefinder"),
		kong.Description("VerseFinder - Bible reference detection for live transcripts"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
