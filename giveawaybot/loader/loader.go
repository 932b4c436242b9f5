// Package loader handles bulk import of gift links and winners, both from
// admin command input and as an offline maintenance operation against the
// live store.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/disgoorg/giveaway-bot/giveawaybot/giveaway"
	"golang.org/x/sync/errgroup"
)

// ImportActor is the audit actor recorded for offline imports.
const ImportActor = "importer"

const importWorkers = 4

// ParseCodes splits comma- or newline-separated text into trimmed,
// non-empty codes. Duplicates are kept; the store deduplicates.
func ParseCodes(text string) []string {
	var codes []string
	for _, line := range strings.Split(strings.ReplaceAll(text, ",", "\n"), "\n") {
		if code := strings.TrimSpace(line); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// WinnerRecord is one parsed row of a winners CSV.
type WinnerRecord struct {
	UserID        string
	Username      string
	AllowMultiple bool
}

// ParseWinners reads a CSV with headers user_id,username,allow_multiple.
// Blank and malformed rows are skipped, never fatal.
func ParseWinners(r io.Reader) ([]WinnerRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	userIDCol, ok := cols["user_id"]
	if !ok {
		return nil, fmt.Errorf("csv is missing a user_id column")
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []WinnerRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// malformed row, skip
			continue
		}
		if userIDCol >= len(row) {
			continue
		}
		userID := strings.TrimSpace(row[userIDCol])
		if userID == "" {
			continue
		}
		records = append(records, WinnerRecord{
			UserID:        userID,
			Username:      field(row, "username"),
			AllowMultiple: parseBool(field(row, "allow_multiple")),
		})
	}
	return records, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Importer drives the allocation engine from files, so imported rows get
// the same dedup rules and audit entries as live admin commands. It runs
// against the same store the bot uses; the bot does not need to stop.
type Importer struct {
	engine *giveaway.Engine
}

func NewImporter(engine *giveaway.Engine) *Importer {
	return &Importer{engine: engine}
}

// ImportCodes loads one-code-per-line (or comma-separated) text from path.
func (i *Importer) ImportCodes(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	added, err := i.engine.AddCodes(ctx, ParseCodes(string(data)), ImportActor)
	if err != nil {
		return 0, err
	}

	slog.Info("Gift links imported",
		slog.String("type", "import"),
		slog.String("path", path),
		slog.Int("added", added))
	return added, nil
}

// ImportWinners loads a winners CSV from path. Each row is its own
// transaction; already-registered users are skipped and not counted.
func (i *Importer) ImportWinners(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := ParseWinners(f)
	if err != nil {
		return 0, err
	}

	var added atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(importWorkers)
	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			ok, err := i.engine.AddWinner(ctx, rec.UserID, rec.Username, rec.AllowMultiple, ImportActor)
			if err != nil {
				return err
			}
			if ok {
				added.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(added.Load()), err
	}

	slog.Info("Winners imported",
		slog.String("type", "import"),
		slog.String("path", path),
		slog.Int("rows", len(records)),
		slog.Int64("added", added.Load()))
	return int(added.Load()), nil
}
