package csvcodec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/gradebook/internal/model"
)

func TestDecodeAppendsTotalSlot(t *testing.T) {
	records, err := Decode("grades.csv", []string{
		"ID,Name,Regular,Midterm,Final",
		"19001,John,94,78,89",
		"19002,Alice,88,92,95,91\r",
	})
	require.NoError(t, err)
	assert.Equal(t, []model.Record{
		{ID: "19001", Name: "John", Regular: "94", Midterm: "78", Final: "89"},
		{ID: "19002", Name: "Alice", Regular: "88", Midterm: "92", Final: "95", Total: "91"},
	}, records)
}

func TestDecodeIgnoresHeaderContent(t *testing.T) {
	records, err := Decode("x", []string{"whatever", "1,a,,,"})
	require.NoError(t, err)
	assert.Equal(t, []model.Record{{ID: "1", Name: "a"}}, records)
}

func TestDecodeTruncatesExtraFields(t *testing.T) {
	records, err := Decode("x", []string{Header, "1,a,2,3,4,5,6,7"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "5", records[0].Total)
}

func TestDecodeHeaderOnly(t *testing.T) {
	records, err := Decode("x", []string{Header})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDecodeEmptyInput(t *testing.T) {
	_, err := Decode("empty.csv", nil)
	var ferr *FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "empty.csv", ferr.Source)
	assert.Zero(t, ferr.Line)
}

func TestDecodeShortLine(t *testing.T) {
	_, err := Decode("grades.csv", []string{Header, "1,a,2,3,4", "2,b,3"})
	var ferr *FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, 3, ferr.Line)
	assert.Equal(t, 3, ferr.Fields)
	assert.EqualError(t, err, "grades.csv: line 3: expected at least 5 fields, got 3")
	assert.Contains(t, ferr.Hint(), "File format error!")
}

func TestDecodeSkipsBlankLines(t *testing.T) {
	records, err := Decode("x", []string{Header, "", "1,a,2,3,4", "   "})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestEncode(t *testing.T) {
	lines := Encode([]model.Record{
		{ID: "19001", Name: "John", Regular: "94", Midterm: "78", Final: "89", Total: "87"},
		{ID: "New"},
	})
	assert.Equal(t, []string{
		Header,
		"19001,John,94,78,89,87",
		"New,,,,,",
	}, lines)
}

func TestRoundTrip(t *testing.T) {
	records := []model.Record{
		{ID: "19001", Name: "John", Regular: "94", Midterm: "78", Final: "89", Total: "87"},
		{ID: "New"},
		{ID: "19003", Name: "Bob", Regular: "abc", Final: "80"},
		{},
	}
	decoded, err := Decode("mem", Encode(records))
	require.NoError(t, err)
	assert.Equal(t, records, decoded)
}

func TestRoundTripKeepsFieldWhitespace(t *testing.T) {
	records := []model.Record{
		{ID: " 7", Name: "Ann Lee", Regular: "90", Midterm: "80", Final: "70", Total: "4 "},
	}
	decoded, err := Decode("mem", Encode(records))
	require.NoError(t, err)
	assert.Equal(t, records, decoded)
}

func TestWriteFileKeepsExistingMode(t *testing.T) {
	dir := t.TempDir()
	records := []model.Record{{ID: "1", Name: "a"}}

	fresh := filepath.Join(dir, "fresh.csv")
	require.NoError(t, WriteFile(fresh, records))
	info, err := os.Stat(fresh)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	existing := filepath.Join(dir, "existing.csv")
	require.NoError(t, os.WriteFile(existing, []byte(Header+"\n"), 0o600))
	require.NoError(t, os.Chmod(existing, 0o640))
	require.NoError(t, WriteFile(existing, records))
	info, err = os.Stat(existing)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestWriteAndReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "grades.csv")
	records := []model.Record{
		{ID: "19001", Name: "John", Regular: "94", Midterm: "78", Final: "89", Total: "87"},
	}
	require.NoError(t, WriteFile(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Header+"\n19001,John,94,78,89,87\n", string(data))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDecodeReader(t *testing.T) {
	records, err := DecodeReader("r", strings.NewReader("ID,Name\n1,a,2,3,4\n"))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
