package common

import (
	"bytes"
	"strings"
	"sync"
)

// NewLineWriter creates a LineWriter which remembers the last maxLines lines.
// Longer lines than maxLineLength bytes are cut.
func NewLineWriter(maxLines, maxLineLength int) *LineWriter {
	return &LineWriter{
		lines:         NewRing[string](maxLines),
		maxLineLength: maxLineLength,
	}
}

// LineWriter is an io.Writer which splits everything written to it into
// lines, like the output of a child process.
type LineWriter struct {
	OnNewLine func(string)

	current       []byte
	truncated     bool
	maxLineLength int
	lines         *Ring[string]

	mutex sync.Mutex
}

// Write never fails.
func (this *LineWriter) Write(p []byte) (n int, err error) {
	this.mutex.Lock()
	var completed []string
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		chunk := p
		if i >= 0 {
			chunk = p[:i]
		}
		this.append(chunk)
		n += len(chunk)
		if i < 0 {
			break
		}
		completed = append(completed, this.takeLine())
		n++
		p = p[i+1:]
	}
	this.mutex.Unlock()

	this.emit(completed...)
	return n, nil
}

// Flush completes a pending line which was not terminated by a newline yet.
func (this *LineWriter) Flush() {
	this.mutex.Lock()
	if len(this.current) == 0 && !this.truncated {
		this.mutex.Unlock()
		return
	}
	line := this.takeLine()
	this.mutex.Unlock()

	this.emit(line)
}

// Lines returns the remembered lines, the oldest first.
func (this *LineWriter) Lines() []string {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return this.lines.Values()
}

func (this *LineWriter) String() string {
	return strings.Join(this.Lines(), "\n")
}

func (this *LineWriter) append(chunk []byte) {
	if this.maxLineLength > 0 {
		if left := this.maxLineLength - len(this.current); len(chunk) > left {
			chunk = chunk[:max(left, 0)]
			this.truncated = true
		}
	}
	this.current = append(this.current, chunk...)
}

func (this *LineWriter) takeLine() string {
	result := strings.TrimSuffix(string(this.current), "\r")
	this.current = this.current[:0]
	this.truncated = false
	this.lines.Add(result)
	return result
}

func (this *LineWriter) emit(lines ...string) {
	if v := this.OnNewLine; v != nil {
		for _, line := range lines {
			v(line)
		}
	}
}
