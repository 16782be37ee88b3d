package trace

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

//go:generate mockgen -destination ./mocks/writer.go -package mock_trace . Writer

// Writer is an append-only sink for per-tick layout lines
type Writer interface {
	WriteLine(line string) error
}

// FormatLine renders one trace line: the tick number, each region in address order, and the
// terminating "Return" marker, separated by single spaces and ending in a newline
func FormatLine(tick int, regions []fmt.Stringer) string {
	var builder strings.Builder
	builder.WriteString(strconv.Itoa(tick))
	for _, region := range regions {
		builder.WriteByte(' ')
		builder.WriteString(region.String())
	}
	builder.WriteString(" Return\n")
	return builder.String()
}

// StreamWriter appends trace lines to an arbitrary io.Writer
type StreamWriter struct {
	out io.Writer
}

var _ Writer = &StreamWriter{}

func NewStreamWriter(out io.Writer) *StreamWriter {
	return &StreamWriter{out: out}
}

func (w *StreamWriter) WriteLine(line string) error {
	_, err := io.WriteString(w.out, line)
	if err != nil {
		return errors.Wrap(err, "failed to append trace line")
	}
	return nil
}

// FileWriter appends trace lines to a file that it owns
type FileWriter struct {
	StreamWriter
	path string
	file *os.File
}

var _ Writer = &FileWriter{}

// OpenFile opens path for appending, creating it if needed. Existing content is kept.
func OpenFile(path string) (*FileWriter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open trace file %s", path)
	}

	return &FileWriter{
		StreamWriter: StreamWriter{out: file},
		path:         path,
		file:         file,
	}, nil
}

func (w *FileWriter) Path() string { return w.path }

func (w *FileWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil
	if err != nil {
		return errors.Wrapf(err, "failed to close trace file %s", w.path)
	}
	return nil
}

// RemoveStale deletes a trace left behind by a previous run. A missing file is not an error.
func RemoveStale(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return errors.Wrapf(err, "could not delete %s", path)
}
