package gotable

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ExportEncoder writes a result set as delimited text.
type ExportEncoder struct {
	// Delimiter separates fields, ',' when zero.
	Delimiter rune
	// UseCRLF terminates lines with \r\n.
	UseCRLF bool
}

// CSV is the default encoder.
var CSV = ExportEncoder{Delimiter: ','}

// TSV writes tab separated values.
var TSV = ExportEncoder{Delimiter: '\t'}

func (e ExportEncoder) delimiter() rune {
	if e.Delimiter == 0 {
		return ','
	}

	return e.Delimiter
}

// Extension returns the file extension matching the delimiter.
func (e ExportEncoder) Extension() string {
	if e.delimiter() == '\t' {
		return "tsv"
	}

	return "csv"
}

// ContentType returns the MIME type matching the delimiter.
func (e ExportEncoder) ContentType() string {
	if e.delimiter() == '\t' {
		return "text/tab-separated-values"
	}

	return "text/csv"
}

// Encode writes schema as the header row followed by one line per record with
// values in schema order. Missing values become empty fields.
func (e ExportEncoder) Encode(w io.Writer, schema []string, records []Record) error {
	writer := csv.NewWriter(w)
	writer.Comma = e.delimiter()
	writer.UseCRLF = e.UseCRLF

	if err := writer.Write(schema); err != nil {
		return fmt.Errorf("cannot write export header: %w", err)
	}

	line := make([]string, len(schema))
	for i, rec := range records {
		for j, column := range schema {
			line[j] = rec.String(column)
		}
		if err := writer.Write(line); err != nil {
			return fmt.Errorf("cannot write export row %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("cannot flush export: %w", err)
	}

	return nil
}

// ExportFilename returns export-YYYY-MM-DD-HH-mm-ss.<ext> for now in UTC.
func ExportFilename(now time.Time, ext string) string {
	return fmt.Sprintf("export-%s.%s", now.UTC().Format("2006-01-02-15-04-05"), ext)
}

// WriteExport sends records as a file download: force-download headers, then
// the encoded body. The writer is flushed before returning.
func (e ExportEncoder) WriteExport(w http.ResponseWriter, now time.Time, schema []string, records []Record) error {
	filename := ExportFilename(now, e.Extension())

	w.Header().Set("Content-Type", e.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)

	if err := e.Encode(w, schema, records); err != nil {
		return err
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	return nil
}
