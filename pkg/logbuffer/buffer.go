// Package logbuffer retains recent log lines in memory so the control
// surface can serve them without touching disk.
package logbuffer

import (
	"sync"

	"go.uber.org/zap/zapcore"
)

// ring is the shared line store; all cores cloned via With append here.
type ring struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func (r *ring) append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, line)
	if len(r.lines) > r.max {
		r.lines = r.lines[len(r.lines)-r.max:]
	}
}

// Buffer is a fixed-size ring of formatted log lines. It implements
// zapcore.Core so it can be teed alongside the primary sink.
type Buffer struct {
	zapcore.LevelEnabler
	encoder zapcore.Encoder
	ring    *ring
}

// New creates a Buffer retaining at most maxLines entries at or above
// the given level.
func New(maxLines int, enab zapcore.LevelEnabler, encoder zapcore.Encoder) *Buffer {
	return &Buffer{
		LevelEnabler: enab,
		encoder:      encoder,
		ring:         &ring{max: maxLines},
	}
}

// With implements zapcore.Core. The clone shares the parent's ring.
func (b *Buffer) With(fields []zapcore.Field) zapcore.Core {
	clone := &Buffer{
		LevelEnabler: b.LevelEnabler,
		encoder:      b.encoder.Clone(),
		ring:         b.ring,
	}
	for i := range fields {
		fields[i].AddTo(clone.encoder)
	}
	return clone
}

// Check implements zapcore.Core.
func (b *Buffer) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if b.Enabled(ent.Level) {
		return ce.AddCore(ent, b)
	}
	return ce
}

// Write implements zapcore.Core.
func (b *Buffer) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := b.encoder.Clone().EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	b.ring.append(buf.String())
	buf.Free()
	return nil
}

// Sync implements zapcore.Core.
func (b *Buffer) Sync() error { return nil }

// Lines returns a copy of the retained log lines, oldest first.
func (b *Buffer) Lines() []string {
	b.ring.mu.Lock()
	defer b.ring.mu.Unlock()

	out := make([]string, len(b.ring.lines))
	copy(out, b.ring.lines)
	return out
}

// Clear drops all retained lines.
func (b *Buffer) Clear() {
	b.ring.mu.Lock()
	defer b.ring.mu.Unlock()
	b.ring.lines = nil
}
