package process

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/partsim/memutils"
)

// ErrMalformedLine marks every error produced while parsing process input
var ErrMalformedLine = errors.New("malformed process line")

// ErrDuplicateID is returned from ParseAll when two lines share a process id
var ErrDuplicateID = errors.New("duplicate process id")

var fieldNames = [...]string{"id", "arrival_time", "memory_required", "runtime"}

// ParseError describes a single input line that could not be turned into a Process
type ParseError struct {
	// Line is the 1-based line number within the input, or 0 when parsing a lone line
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d %q: %s", e.Line, e.Text, e.Reason)
	}
	return fmt.Sprintf("%q: %s", e.Text, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedLine
}

func newParseError(text, reason string, args ...any) *ParseError {
	return &ParseError{Text: text, Reason: fmt.Sprintf(reason, args...)}
}

// Parse reads a process from a line of the form "id arrival_time memory_required runtime"
func Parse(line string) (Process, error) {
	fields := strings.Fields(line)
	if len(fields) != len(fieldNames) {
		return Process{}, newParseError(line, "expected %d fields, found %d", len(fieldNames), len(fields))
	}

	var values [len(fieldNames)]int
	for i, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return Process{}, newParseError(line, "%s %q is not an integer", fieldNames[i], field)
		}
		values[i] = value
	}

	if err := memutils.CheckNonNegative(values[1], fieldNames[1]); err != nil {
		return Process{}, newParseError(line, "%s", err.Error())
	}
	if err := memutils.CheckPositive(values[2], fieldNames[2]); err != nil {
		return Process{}, newParseError(line, "%s", err.Error())
	}
	if err := memutils.CheckNonNegative(values[3], fieldNames[3]); err != nil {
		return Process{}, newParseError(line, "%s", err.Error())
	}

	return New(values[0], values[1], values[2], values[3]), nil
}

// ParseAll reads one process per non-blank line. Any malformed line fails the whole read.
func ParseAll(r io.Reader) ([]Process, error) {
	var processes []Process
	seen := make(map[int]int)

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		p, err := Parse(text)
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				parseErr.Line = lineNumber
			}
			return nil, err
		}

		if firstLine, ok := seen[p.ID]; ok {
			return nil, errors.Wrapf(ErrDuplicateID, "process %d on line %d was already declared on line %d", p.ID, lineNumber, firstLine)
		}
		seen[p.ID] = lineNumber

		processes = append(processes, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read process input")
	}

	return processes, nil
}
