package report

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
	"github.com/KaramelBytes/clusterbench-cli/internal/utils"
)

// WriteJSON stores v as indented JSON at path.
func WriteJSON(path string, v any) error {
	return utils.WriteJSON(path, v)
}

// WriteMarkdown stores a rendered report at path.
func WriteMarkdown(path, md string) error {
	return utils.SafeWriteFile(path, []byte(md))
}

// WriteCSV exports ds with a header row in column order. Missing values are
// written as empty cells.
func WriteCSV(path string, ds *dataset.Dataset) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ds.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(ds.Columns))
	for _, r := range ds.Rows {
		for i, c := range ds.Columns {
			rec[i] = dataset.Stringify(r[c])
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
