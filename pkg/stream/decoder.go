// Package stream decodes the Server-Sent-Events body of a streaming chat
// completion into text, writing each delta to a display sink as it arrives.
package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/minhyannv/chatgpt-cli-go/pkg/apperr"
	loggerpkg "github.com/minhyannv/chatgpt-cli-go/pkg/logger"
)

const (
	dataPrefix = "data: "
	sentinel   = "[DONE]"
	deltaPath  = "choices.0.delta.content"

	readChunkSize = 4096
)

// Event is one decoded data frame: either a text delta or the terminal marker.
type Event struct {
	Delta    string
	Terminal bool
}

// ParseFrame decodes a single line of the stream. ok is false for lines that
// carry no event (no data prefix, blank payload, or no delta content).
// A payload that is not valid JSON returns a frame-parse error.
func ParseFrame(line string) (ev Event, ok bool, err error) {
	line = strings.TrimRight(line, "\r")
	if !strings.HasPrefix(line, dataPrefix) {
		return Event{}, false, nil
	}
	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == "" {
		return Event{}, false, nil
	}
	if payload == sentinel {
		return Event{Terminal: true}, true, nil
	}
	if !gjson.Valid(payload) {
		return Event{}, false, apperr.FrameParse("invalid JSON in data frame", errors.New(truncate(payload, 80)))
	}

	content := gjson.Get(payload, deltaPath)
	if content.Type != gjson.String || content.Str == "" {
		return Event{}, false, nil
	}
	return Event{Delta: content.Str}, true, nil
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithDiagnostics routes non-fatal frame errors to fn instead of the logger.
func WithDiagnostics(fn func(error)) Option {
	return func(d *Decoder) {
		d.diag = fn
	}
}

// WithLogger injects a logger; verbose enables per-frame debug output.
func WithLogger(l loggerpkg.Logger, verbose bool) Option {
	return func(d *Decoder) {
		d.logger = l
		d.verbose = verbose
	}
}

// Decoder is the incremental decoder state. The only state carried between
// chunks is the trailing partial line, kept as raw bytes so a multi-byte
// character split across reads is reassembled before it is decoded.
type Decoder struct {
	sink    io.Writer
	pending []byte
	text    strings.Builder
	done    bool
	frames  int
	sinkErr bool

	diag    func(error)
	logger  loggerpkg.Logger
	verbose bool
}

// NewDecoder returns a decoder that writes deltas to sink. A nil sink discards them.
func NewDecoder(sink io.Writer, opts ...Option) *Decoder {
	if sink == nil {
		sink = io.Discard
	}
	d := &Decoder{
		sink:   sink,
		logger: loggerpkg.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.logger == nil {
		d.logger = loggerpkg.NopLogger{}
	}
	return d
}

// Feed consumes one chunk of the stream. Complete lines are handled in order;
// an unterminated tail waits for the next chunk. Feed reports true once the
// sentinel has been seen, after which further input is ignored.
func (d *Decoder) Feed(chunk []byte) bool {
	if d.done {
		return true
	}
	d.pending = append(d.pending, chunk...)

	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		line := d.pending[:i]
		d.pending = d.pending[i+1:]
		if d.handleLine(line) {
			d.done = true
			d.pending = nil
			return true
		}
	}

	// Copy the tail so the consumed prefix of the chunk can be released.
	d.pending = append([]byte(nil), d.pending...)
	return false
}

// Finish handles any unterminated final line and returns the full text.
// It is called when the upstream closes without sending the sentinel.
func (d *Decoder) Finish() string {
	if !d.done && len(d.pending) > 0 {
		line := d.pending
		d.pending = nil
		d.handleLine(line)
	}
	d.done = true
	return d.text.String()
}

// Text returns the concatenation of every delta emitted so far.
func (d *Decoder) Text() string {
	return d.text.String()
}

// Done reports whether the sentinel has been seen or Finish was called.
func (d *Decoder) Done() bool {
	return d.done
}

func (d *Decoder) handleLine(raw []byte) bool {
	line := strings.ToValidUTF8(string(raw), "\uFFFD")
	ev, ok, err := ParseFrame(line)
	if err != nil {
		d.report(err)
		return false
	}
	if !ok {
		return false
	}
	if ev.Terminal {
		loggerpkg.Debug(d.verbose, d.logger, "stream terminated", map[string]any{
			"frames": d.frames,
			"bytes":  d.text.Len(),
		})
		return true
	}

	d.frames++
	// The delta reaches the display before the next frame is looked at.
	if _, err := io.WriteString(d.sink, ev.Delta); err != nil {
		d.sinkFailed(err)
	} else if f, ok := d.sink.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			d.sinkFailed(err)
		}
	}
	d.text.WriteString(ev.Delta)
	return false
}

// sinkFailed logs the first display failure. Decoding carries on so the
// answer is still returned and committed.
func (d *Decoder) sinkFailed(err error) {
	if d.sinkErr {
		return
	}
	d.sinkErr = true
	loggerpkg.Warn(d.logger, "display write failed", map[string]any{"error": err.Error()})
}

func (d *Decoder) report(err error) {
	if d.diag != nil {
		d.diag(err)
		return
	}
	loggerpkg.Warn(d.logger, "Error parsing JSON", map[string]any{"error": err.Error()})
}

// Decode reads r until the sentinel or end of stream and returns the full
// answer. Reaching EOF without the sentinel is not an error. A read error is
// a transport error; deltas already written to sink stay written.
func Decode(ctx context.Context, r io.Reader, sink io.Writer, opts ...Option) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	d := NewDecoder(sink, opts...)
	buf := make([]byte, readChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return "", apperr.Transport("response stream interrupted", err)
		}
		n, err := r.Read(buf)
		if n > 0 && d.Feed(buf[:n]) {
			return d.Text(), nil
		}
		if errors.Is(err, io.EOF) {
			return d.Finish(), nil
		}
		if err != nil {
			return "", apperr.Transport("read response stream", err)
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
