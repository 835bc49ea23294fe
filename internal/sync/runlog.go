package sync

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// RunLog is the append-only, human-readable record of what each
// identity's sync did. Appends are mutex-serialized so concurrent
// workers never interleave entries.
type RunLog struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// NewRunLog opens (or creates) an append-only result log at path.
func NewRunLog(path string) (*RunLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open result log: %w", err)
	}
	return &RunLog{w: f, c: f}, nil
}

// NewRunLogWriter wraps an existing writer, used by tests.
func NewRunLogWriter(w io.Writer) *RunLog {
	return &RunLog{w: w}
}

// Append writes one identity's result as a block.
func (l *RunLog) Append(r IdentityResult) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\nUser: %s (%s)\n", r.Identity.DisplayName, r.Identity.UserPrincipalName)
	fmt.Fprintf(&sb, "Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
	if r.DryRun {
		sb.WriteString("Dry run: no operations executed\n")
	}
	fmt.Fprintf(&sb, "Added: %d, Deleted: %d, Updated: %d\n", r.Added, r.Deleted, r.Updated)

	for _, op := range r.Operations {
		fmt.Fprintf(&sb, "\t%s %s: status %d\n", op.Action, op.Contact, op.Status)
		if body := strings.TrimSpace(op.Body); body != "" {
			fmt.Fprintf(&sb, "\t\t%s\n", body)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := io.WriteString(l.w, sb.String()); err != nil {
		return fmt.Errorf("append result log: %w", err)
	}
	return nil
}

// Close closes the underlying file, if any.
func (l *RunLog) Close() error {
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}

// ErrorLog is the append-only record of identities whose sync failed.
type ErrorLog struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// NewErrorLog opens (or creates) an append-only error log at path.
func NewErrorLog(path string) (*ErrorLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open error log: %w", err)
	}
	return &ErrorLog{w: f, c: f}, nil
}

// NewErrorLogWriter wraps an existing writer, used by tests.
func NewErrorLogWriter(w io.Writer) *ErrorLog {
	return &ErrorLog{w: w}
}

// Append writes one identity's failure as a block.
func (l *ErrorLog) Append(f Failure) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\nUser: %s\n", f.Identity.UserPrincipalName)
	fmt.Fprintf(&sb, "Timestamp: %s\n", f.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Error: %v\n", f.Err)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := io.WriteString(l.w, sb.String()); err != nil {
		return fmt.Errorf("append error log: %w", err)
	}
	return nil
}

// Close closes the underlying file, if any.
func (l *ErrorLog) Close() error {
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}
