package kfmt

import (
	"bytes"
	"io"
)

// PrefixWriter is an io.Writer that wraps another io.Writer and injects a
// prefix at the beginning of each line.
type PrefixWriter struct {
	// Sink receives the prefixed output.
	Sink io.Writer

	// Prefix is written before the first byte of every line.
	Prefix []byte

	// midLine is set while the last byte passed to Sink was not a newline.
	midLine bool
}

// SetPrefix replaces the injected prefix. The next write starts a new line.
func (w *PrefixWriter) SetPrefix(prefix []byte) {
	w.Prefix = prefix
	w.midLine = false
}

// Write sends p to the sink one line at a time, injecting the prefix before
// each line. The prefix is only written once a byte of the line follows, so
// a trailing newline does not leave a dangling prefix behind. The returned
// count does not include injected prefixes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) != 0 {
		if !w.midLine {
			w.Sink.Write(w.Prefix)
			w.midLine = true
		}

		line := p
		if eol := bytes.IndexByte(p, '\n'); eol != -1 {
			line = p[:eol+1]
		}

		n, err := w.Sink.Write(line)
		written += n
		if err != nil {
			return written, err
		}

		w.midLine = line[len(line)-1] != '\n'
		p = p[len(line):]
	}

	return written, nil
}
