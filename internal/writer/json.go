package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/insightdelivered/extrato-analyzer/internal/models"
)

// JSONWriter writes the full processing result, findings included.
type JSONWriter struct {
	Indent bool
}

// WriteToFile writes the result as JSON to the given path.
func (w *JSONWriter) WriteToFile(path string, res *models.ProcessingResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, res)
}

// Write encodes res to out.
func (w *JSONWriter) Write(out io.Writer, res *models.ProcessingResult) error {
	enc := json.NewEncoder(out)
	if w.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode JSON result: %w", err)
	}
	return nil
}
