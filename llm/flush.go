package llm

import (
	"io"
	"net/http"
	"time"

	"volt/provider"
)

// FlushPolicy controls how streamed output is batched before being written
// to the client.
type FlushPolicy int

const (
	// FlushImmediate writes every chunk as it arrives.
	FlushImmediate FlushPolicy = iota
	// FlushByLength buffers until at least flushThreshold characters are held.
	FlushByLength
	// FlushByInterval buffers until flushInterval has elapsed since the
	// last write.
	FlushByInterval
)

const (
	flushThreshold = 100
	flushInterval  = 100 * time.Millisecond
)

// PolicyFor returns the flush policy used for a provider's output. Google
// already batches server side so it is relayed immediately; DeepSeek and
// Grok emit very small deltas so they are batched by time; the rest are
// batched by size.
func PolicyFor(name string) FlushPolicy {
	switch name {
	case provider.Google:
		return FlushImmediate
	case provider.DeepSeek, provider.Grok:
		return FlushByInterval
	}
	return FlushByLength
}

// Flusher batches streamed text and writes it out according to a policy.
// An optional Transform is applied to each batch before it is written.
type Flusher struct {
	w         io.Writer
	policy    FlushPolicy
	buf       []byte
	lastFlush time.Time
	Transform func(string) string
}

// NewFlusher returns a Flusher writing batches to w.
func NewFlusher(w io.Writer, policy FlushPolicy) *Flusher {
	return &Flusher{w: w, policy: policy, lastFlush: time.Now()}
}

// Write buffers chunk and flushes when the policy says so.
func (f *Flusher) Write(chunk string) error {
	f.buf = append(f.buf, chunk...)

	switch f.policy {
	case FlushImmediate:
		return f.flush()
	case FlushByLength:
		if len(f.buf) >= flushThreshold {
			return f.flush()
		}
	case FlushByInterval:
		if time.Since(f.lastFlush) >= flushInterval {
			return f.flush()
		}
	}
	return nil
}

// Close flushes any buffered remainder.
func (f *Flusher) Close() error {
	return f.flush()
}

func (f *Flusher) flush() error {
	f.lastFlush = time.Now()
	if len(f.buf) == 0 {
		return nil
	}

	text := string(f.buf)
	f.buf = f.buf[:0]
	if f.Transform != nil {
		text = f.Transform(text)
	}
	if text == "" {
		return nil
	}

	if _, err := io.WriteString(f.w, text); err != nil {
		return err
	}
	if hf, ok := f.w.(http.Flusher); ok {
		hf.Flush()
	}
	return nil
}
