// Package staging writes extracted API records to local newline-delimited JSON files
// before they are uploaded to the object store.
package staging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"go.uber.org/zap"
)

// FileName returns the staged file name for a single date, e.g. "apifootball_get_events_2022-08-27.json".
func FileName(prefix, date string) string {
	return fmt.Sprintf("%s_%s.json", prefix, date)
}

// Pattern returns the wildcard matching every staged file written with prefix.
func Pattern(prefix string) string {
	return prefix + "_*"
}

// WriteNDJSON writes one compact JSON document per record, in input order.
func WriteNDJSON(w io.Writer, records []json.RawMessage) error {
	bw := bufio.NewWriter(w)
	var line bytes.Buffer
	for i, rec := range records {
		line.Reset()
		if err := json.Compact(&line, rec); err != nil {
			return fmt.Errorf("failed to compact record %d: %w", i, err)
		}
		line.WriteByte('\n')
		if _, err := bw.Write(line.Bytes()); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteFile creates (or truncates) path and writes records to it as NDJSON.
func WriteFile(path string, records []json.RawMessage) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	if err := WriteNDJSON(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close staging file: %w", err)
	}
	return nil
}

// Remove deletes a local staging file. A file that is already gone is logged, not returned.
func Remove(logger *zap.Logger, path string) error {
	err := os.Remove(path)
	switch {
	case err == nil:
		logger.Info("local file deleted", zap.String("path", path))
		return nil
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("local file not found", zap.String("path", path))
		return nil
	default:
		return fmt.Errorf("failed to delete staging file: %w", err)
	}
}
