// Package ndjson frames newline-delimited JSON streams into lines.
package ndjson

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// readSize is the chunk size used by Scan when reading from the transport.
const readSize = 4096

// Decoder accumulates arbitrary byte chunks and yields complete lines.
// Chunks are not required to end on a line boundary; the trailing partial
// line is kept until the next Feed or Flush.
type Decoder struct {
	buf strings.Builder
}

// Feed appends chunk to the buffer and returns every complete, non-blank
// line it now holds, in arrival order.
func (d *Decoder) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	d.buf.Write(chunk)

	parts := strings.Split(d.buf.String(), "\n")
	rest := parts[len(parts)-1]
	d.buf.Reset()
	d.buf.WriteString(rest)

	return keep(parts[:len(parts)-1])
}

// Flush returns the buffered remainder as a final line, if it is not blank,
// and empties the buffer.
func (d *Decoder) Flush() []string {
	rest := d.buf.String()
	d.buf.Reset()
	return keep([]string{rest})
}

// Buffered reports how many bytes of partial line are pending.
func (d *Decoder) Buffered() int {
	return d.buf.Len()
}

func keep(lines []string) []string {
	var out []string
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Scan reads r until EOF, calling fn for each complete line in order.
// A non-nil error from fn stops the scan and is returned as is.
func Scan(r io.Reader, fn func(line string) error) error {
	var dec Decoder
	buf := make([]byte, readSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, line := range dec.Feed(buf[:n]) {
				if ferr := fn(line); ferr != nil {
					return ferr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
	}
	for _, line := range dec.Flush() {
		if err := fn(line); err != nil {
			return err
		}
	}
	return nil
}
