package domain

import (
	"fmt"
	"time"
)

// Diagnostics accumulates request and error statistics for one operation.
// It is not safe for concurrent use.
type Diagnostics struct {
	service      string
	operation    string
	startTime    time.Time
	duration     time.Duration
	completed    bool
	success      bool
	statusCode   int
	requestCount int
	errors       []string
}

// NewDiagnostics starts timing an operation against service.
func NewDiagnostics(service, operation string) *Diagnostics {
	return &Diagnostics{
		service:   service,
		operation: operation,
		startTime: clock.Now(),
	}
}

// AddRequest counts one outgoing request.
func (d *Diagnostics) AddRequest() { d.requestCount++ }

// AddError records an error message.
func (d *Diagnostics) AddError(msg string) { d.errors = append(d.errors, msg) }

// SetStatusCode records the latest HTTP status code seen.
func (d *Diagnostics) SetStatusCode(code int) { d.statusCode = code }

// Complete marks the operation finished and freezes its duration. An optional
// status code overrides the recorded one. Only the first call has any effect.
func (d *Diagnostics) Complete(success bool, statusCode ...int) {
	if d.completed {
		return
	}
	d.completed = true
	d.success = success
	d.duration = clock.Since(d.startTime)
	if len(statusCode) > 0 {
		d.statusCode = statusCode[0]
	}
}

// Absorb folds a child operation's errors and status code into d.
func (d *Diagnostics) Absorb(child *Diagnostics) {
	d.errors = append(d.errors, child.errors...)
	if child.statusCode != 0 {
		d.statusCode = child.statusCode
	}
}

func (d *Diagnostics) Service() string      { return d.service }
func (d *Diagnostics) Operation() string    { return d.operation }
func (d *Diagnostics) StartTime() time.Time { return d.startTime }
func (d *Diagnostics) StatusCode() int      { return d.statusCode }
func (d *Diagnostics) RequestCount() int    { return d.requestCount }
func (d *Diagnostics) ErrorCount() int      { return len(d.errors) }
func (d *Diagnostics) Completed() bool      { return d.completed }

// Success reports the completion outcome; ok is false until Complete is called.
func (d *Diagnostics) Success() (success, ok bool) { return d.success, d.completed }

// Errors returns a copy of the recorded error messages.
func (d *Diagnostics) Errors() []string {
	return append([]string(nil), d.errors...)
}

// Duration is the frozen duration once completed, otherwise the time elapsed so far.
func (d *Diagnostics) Duration() time.Duration {
	if d.completed {
		return d.duration
	}
	return clock.Since(d.startTime)
}

// Summary renders the one-line diagnostics summary.
func (d *Diagnostics) Summary() string {
	status := "UNKNOWN"
	if d.completed {
		status = "FAILED"
		if d.success {
			status = "SUCCESS"
		}
	}
	return fmt.Sprintf("%s.%s: %s (%.2fs) - %d requests, %d errors",
		d.service, d.operation, status, d.Duration().Seconds(), d.requestCount, len(d.errors))
}
