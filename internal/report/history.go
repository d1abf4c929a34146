package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/gradebook/internal/model"
)

const historyTimeLayout = "2006-01-02 15:04:05"

// RenderHistory prints journaled saves, one per line.
func RenderHistory(w io.Writer, saves []model.SaveSummary, maxWidth int) error {
	if len(saves) == 0 {
		_, err := fmt.Fprintln(w, "No saves recorded.")
		return err
	}
	headers := []string{"ID", "Saved", "Rows", "Weights", "Path"}
	rows := make([][]string, 0, len(saves))
	for _, s := range saves {
		rows = append(rows, []string{
			strconv.FormatInt(s.SaveID, 10),
			s.SavedAt.Local().Format(historyTimeLayout),
			strconv.Itoa(s.Rows),
			s.Weights.String(),
			s.Path,
		})
	}
	rightAlign := map[int]bool{0: true, 2: true}
	for _, line := range formatTable(headers, rows, rightAlign, maxWidth) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
