// Package csvcodec converts between roster files and records.
//
// The format is plain comma-separated text with a header line:
//
//	ID,Name,Regular,Midterm,Final,Total
//	19001,John,94,78,89,87
//
// Fields are never quoted or escaped, so a comma inside a name splits it.
package csvcodec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/gradebook/internal/model"
)

// Header is the first line written by Encode.
const Header = "ID,Name,Regular,Midterm,Final,Total"

// MinFields is the smallest number of fields a record line may carry.
const MinFields = 5

const expectedFormat = "ID,Name,Regular,Midterm,Final\n19001,John,94,78,89\n..."

// FormatError reports a roster that cannot be decoded.
type FormatError struct {
	Source string
	// Line is 1-based; zero means the input as a whole.
	Line   int
	Fields int
	Reason string
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString(e.Source)
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// Hint returns the user-facing description of the expected format.
func (e *FormatError) Hint() string {
	return fmt.Sprintf("%s\nFile format error! Expected format:\n%s", e.Source, expectedFormat)
}

// Decode parses roster lines. The first line is a header and is skipped
// without inspection. A trailing carriage return is dropped and blank lines
// are ignored; other whitespace is kept as field content.
func Decode(source string, lines []string) ([]model.Record, error) {
	if len(lines) == 0 {
		return nil, &FormatError{Source: source, Reason: "file is empty"}
	}
	records := make([]model.Record, 0, len(lines)-1)
	for i, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < MinFields {
			return nil, &FormatError{
				Source: source,
				Line:   i + 2,
				Fields: len(fields),
				Reason: fmt.Sprintf("expected at least %d fields, got %d", MinFields, len(fields)),
			}
		}
		records = append(records, model.RecordFromFields(fields))
	}
	return records, nil
}

// DecodeReader reads every line from r and decodes them.
func DecodeReader(source string, r io.Reader) ([]model.Record, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return Decode(source, lines)
}

// Encode renders records as roster lines, header first.
func Encode(records []model.Record) []string {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, Header)
	for _, rec := range records {
		lines = append(lines, strings.Join(rec.Fields(), ","))
	}
	return lines
}

// EncodeWriter writes the encoded roster to w, one line per record.
func EncodeWriter(w io.Writer, records []model.Record) error {
	writer := bufio.NewWriter(w)
	for _, line := range Encode(records) {
		if _, err := fmt.Fprintln(writer, line); err != nil {
			return fmt.Errorf("failed to write roster: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush roster: %w", err)
	}
	return nil
}

// ReadFile decodes the roster stored at path.
func ReadFile(path string) ([]model.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only roster.
			_ = cerr
		}
	}()
	return DecodeReader(path, file)
}

const defaultFileMode os.FileMode = 0o644

// WriteFile writes the roster to path through a temp file in the same
// directory, so a failed save never truncates the previous file. An existing
// file keeps its permissions; a new one gets 0644.
func WriteFile(path string, records []model.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create roster dir: %w", err)
	}
	mode := defaultFileMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat roster: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "roster-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp roster: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := tmpFile.Chmod(mode); err != nil {
		return fmt.Errorf("failed to set roster mode: %w", err)
	}
	if err := EncodeWriter(tmpFile, records); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close roster: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}
	return nil
}
