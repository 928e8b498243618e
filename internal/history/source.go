package history

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

const defaultSourceName = "default"

var errInvalidLine = errors.New("history: invalid line position")

// Source is a line history backend. The default in-memory source is used
// until the shell binds a file-backed or otherwise custom one with Add.
type Source interface {
	// Write appends line and returns its resulting position.
	Write(line string) (int, error)

	// GetLine returns the line at the given position.
	GetLine(pos int) (string, error)

	// Len returns the number of lines currently held.
	Len() int
}

// memory is the default, process-lifetime-only history source.
type memory struct {
	lines []string
}

// NewInMemoryHistory returns a Source that keeps its lines in memory only:
// nothing is read from or written to disk, and the history is lost once the
// process exits.
func NewInMemoryHistory(lines ...string) Source {
	return &memory{lines: lines}
}

func (h *memory) Write(line string) (int, error) {
	h.lines = append(h.lines, line)
	return len(h.lines), nil
}

func (h *memory) GetLine(pos int) (string, error) {
	if pos < 0 || pos >= len(h.lines) {
		return "", errInvalidLine
	}

	return h.lines[pos], nil
}

func (h *memory) Len() int {
	return len(h.lines)
}

// fileHistory is a Source backed by a newline-delimited file, appended to
// on every Write and read in full once at bind time.
type fileHistory struct {
	file  string
	lines []string
}

// NewSourceFromFile creates a new command history source writing to and
// reading from a file.
func NewSourceFromFile(path string) Source {
	lines, _ := openHist(path)
	return &fileHistory{file: path, lines: lines}
}

func openHist(path string) (lines []string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	return lines, scanner.Err()
}

func (h *fileHistory) Write(line string) (int, error) {
	block := strings.TrimRight(line, "\n")

	if len(h.lines) == 0 || h.lines[len(h.lines)-1] != block {
		h.lines = append(h.lines, block)
	}

	f, err := os.OpenFile(h.file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return h.Len(), err
	}
	defer f.Close()

	_, err = f.WriteString(block + "\n")

	return h.Len(), err
}

func (h *fileHistory) GetLine(pos int) (string, error) {
	if pos < 0 || pos >= len(h.lines) {
		return "", errInvalidLine
	}

	return h.lines[pos], nil
}

func (h *fileHistory) Len() int {
	return len(h.lines)
}
