package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes a sweep series as two columns: the swept field's value
// and the collision probability. The header names the swept field so the
// file is self-describing.
func WriteCSV(w io.Writer, field string, points []Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{field, "probability"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, p := range points {
		record := []string{
			fmt.Sprintf("%g", p.Value),
			fmt.Sprintf("%.6e", p.Probability),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
