package sample

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// validName reports whether a name can be stored in the unquoted roster format.
func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, ",\r\n")
}

// LoadNames reads one student name per line. Blank lines are skipped; a name
// containing a comma is rejected.
func LoadNames(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open names: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only name list.
			_ = cerr
		}
	}()

	var names []string
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		if !validName(name) {
			return nil, fmt.Errorf("%s: line %d: name %q must not contain a comma", path, line, name)
		}
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read names: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("name list is empty")
	}
	return names, nil
}
