package diagnostics

import (
	"go.uber.org/zap"
)

// Logger is the collaborator every pipeline stage reports through. The
// converter core stays logger-agnostic; callers inject an adapter.
type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// ZapAdapter adapts a zap SugaredLogger to the Logger interface.
type ZapAdapter struct {
	logger *zap.SugaredLogger
}

// NewZapAdapter wraps a zap SugaredLogger. A nil logger degrades to the nop
// logger so call sites never have to nil-check.
func NewZapAdapter(zapLogger *zap.SugaredLogger) Logger {
	if zapLogger == nil {
		return NewNopLogger()
	}
	return &ZapAdapter{logger: zapLogger}
}

func (z *ZapAdapter) Info(msg string, fields ...interface{})  { z.logger.Infow(msg, fields...) }
func (z *ZapAdapter) Warn(msg string, fields ...interface{})  { z.logger.Warnw(msg, fields...) }
func (z *ZapAdapter) Error(msg string, fields ...interface{}) { z.logger.Errorw(msg, fields...) }

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything. Used in tests and
// as the nil fallback.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Collector accumulates diagnostics for one library's conversion while also
// forwarding them to the injected logger.
type Collector struct {
	Library string
	logger  Logger
	diags   []*Diagnostic
	seen    map[string]bool
}

// NewCollector builds a collector forwarding to logger.
func NewCollector(library string, logger Logger) *Collector {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Collector{Library: library, logger: logger, seen: make(map[string]bool)}
}

// Add records a diagnostic, deduplicating by code+location+message.
func (c *Collector) Add(d *Diagnostic) {
	key := d.Code + "|" + d.Location.Key() + "|" + d.Message
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.diags = append(c.diags, d)

	fields := []interface{}{"code", d.Code, "library", c.Library}
	if d.Location.IsPresent() {
		fields = append(fields, "location", d.Location.String())
	}
	if d.Severity == SeverityError {
		c.logger.Error(d.Message, fields...)
	} else {
		c.logger.Warn(d.Message, fields...)
	}
}

// All returns the recorded diagnostics in order.
func (c *Collector) All() []*Diagnostic { return c.diags }

// HasErrors reports whether any recorded diagnostic is an error.
func (c *Collector) HasErrors() bool {
	for _, d := range c.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Logger returns the underlying logger for stages that log progress directly.
func (c *Collector) Logger() Logger { return c.logger }
