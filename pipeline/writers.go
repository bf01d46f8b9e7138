package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/aluiziolira/go-scrape-listings/models"
)

var csvHeader = []string{
	"name", "url", "buildingName", "nearestStation", "price", "layout", "area",
	"access", "note", "gas", "stove", "ac", "structure", "walkMinutes",
	"shigaAccess", "nagoyaAccess", "tokishiAccess", "internet", "images",
}

// CSVWriter writes records to CSV.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends listings to the CSV output. Images are joined by spaces.
func (cw *CSVWriter) Write(listings []models.Listing) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, l := range listings {
		walk := ""
		if l.WalkMinutes != nil {
			walk = strconv.Itoa(*l.WalkMinutes)
		}
		record := []string{
			l.Name,
			l.URL,
			l.BuildingName,
			l.NearestStation,
			l.Price,
			l.Layout,
			l.Area,
			l.Access,
			l.Note,
			l.Gas,
			triStateCell(l.Stove),
			triStateCell(l.AC),
			l.Structure,
			walk,
			l.ShigaAccess,
			l.NagoyaAccess,
			l.TokishiAccess,
			l.Internet,
			strings.Join(l.Images, " "),
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := os.Stat(cw.file.Name())
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

func triStateCell(t models.TriState) string {
	if !t.Known() {
		return ""
	}
	return t.String()
}

// JSONWriter maintains the data.json artifact: a pretty-printed JSON array of
// every listing written so far. Each Write replaces the file atomically.
type JSONWriter struct {
	filename string
	listings []models.Listing
	written  bool
	mu       sync.Mutex
}

// NewJSONWriter prepares the artifact's directory. The file itself is only
// touched on the first Write or on Close.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	return &JSONWriter{
		filename: filename,
		listings: []models.Listing{},
	}, nil
}

// Write appends listings and rewrites the artifact.
func (jw *JSONWriter) Write(listings []models.Listing) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, l := range listings {
		if l.Images == nil {
			l.Images = []string{}
		}
		jw.listings = append(jw.listings, l)
	}
	return jw.flushLocked()
}

// Close writes an empty array if nothing was ever written.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.written {
		return nil
	}
	return jw.flushLocked()
}

// Validate ensures the artifact exists and holds a JSON array.
func (jw *JSONWriter) Validate() error {
	data, err := os.ReadFile(jw.filename)
	if err != nil {
		return fmt.Errorf("read json file: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("json file is empty")
	}
	var probe []json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("json file is not an array: %w", err)
	}
	return nil
}

func (jw *JSONWriter) flushLocked() error {
	dir := filepath.Dir(jw.filename)
	tmp, err := os.CreateTemp(dir, ".listings-*.json")
	if err != nil {
		return fmt.Errorf("create temp json file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	buffer := bufio.NewWriter(tmp)
	encoder := json.NewEncoder(buffer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(jw.listings); err != nil {
		tmp.Close()
		return fmt.Errorf("encode json array: %w", err)
	}
	if err := buffer.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush json writer: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod json file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp json file: %w", err)
	}
	if err := os.Rename(tmpName, jw.filename); err != nil {
		return fmt.Errorf("replace json file: %w", err)
	}
	jw.written = true
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
