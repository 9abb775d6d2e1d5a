package backup

import (
	"archive/zip"
	"bufio"
	"bytes"
	"io"
	"iter"

	"encoding/json/v2"

	"github.com/daylistapp/daylist-server/internal/errors"
)

// ErrFileNotFound indicates a file was not found in the backup archive.
var ErrFileNotFound = errors.NotFound("file not found in backup")

// openFile finds and opens a file from a zip archive.
func openFile(zr *zip.ReadCloser, path string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == path {
			return f.Open()
		}
	}
	return nil, ErrFileNotFound
}

// jsonlWriter streams entities as JSONL to a zip archive.
type jsonlWriter struct {
	w     io.Writer
	count int
}

// newJSONLWriter creates a JSONL writer for a path within the zip.
func newJSONLWriter(zw *zip.Writer, path string) (*jsonlWriter, error) {
	w, err := zw.Create(path)
	if err != nil {
		return nil, err
	}
	return &jsonlWriter{w: w}, nil
}

// write encodes a single entity as a JSON line.
func (w *jsonlWriter) write(entity any) error {
	if err := json.MarshalWrite(w.w, entity); err != nil {
		return err
	}
	if _, err := w.w.Write([]byte{'\n'}); err != nil {
		return err
	}
	w.count++
	return nil
}

// readJSONL streams entities of type T from a JSONL file in the
// archive. The iterator closes the file when exhausted or abandoned.
func readJSONL[T any](zr *zip.ReadCloser, path string) (iter.Seq2[T, error], error) {
	rc, err := openFile(zr, path)
	if err != nil {
		return nil, err
	}

	return func(yield func(T, error) bool) {
		defer rc.Close()

		scanner := bufio.NewScanner(rc)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var entity T
			if err := json.UnmarshalRead(bytes.NewReader(line), &entity); err != nil {
				var zero T
				if !yield(zero, err) {
					return
				}
				continue
			}
			if !yield(entity, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}, nil
}
