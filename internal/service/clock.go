package service

import (
	"context"
	"math"
	"strconv"
	"time"

	"task-tracker/internal/model"
)

// Clock supplies the current time for timestamps and overdue checks.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// Options holds settings shared by the services.
type Options struct {
	Clock           Clock
	Timeout         time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

const (
	defaultTimeout  = 5 * time.Second
	defaultPageSize = 20
	maxPageSize     = 100
)

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = SystemClock
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = maxPageSize
	}
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = defaultPageSize
	}
	if o.DefaultPageSize > o.MaxPageSize {
		o.DefaultPageSize = o.MaxPageSize
	}
	return o
}

func (o Options) now() time.Time {
	return o.Clock.Now().UTC()
}

func (o Options) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.Timeout)
}

// stamp returns a modification time strictly after prev.
func stamp(prev, now time.Time) time.Time {
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}

// pageRequest fills in the default size and rejects sizes past the bound
// and page numbers whose offset would overflow.
func (o Options) pageRequest(p model.PageRequest) (model.PageRequest, error) {
	if p.Number < 0 {
		return model.PageRequest{}, invalid("page", "must be positive")
	}
	if p.Size < 0 {
		return model.PageRequest{}, invalid("page_size", "must be positive")
	}
	if p.Size > o.MaxPageSize {
		return model.PageRequest{}, invalid("page_size", "must be at most "+strconv.Itoa(o.MaxPageSize))
	}
	if p.Number == 0 {
		p.Number = 1
	}
	if p.Size == 0 {
		p.Size = o.DefaultPageSize
	}
	// The row offset has to fit in an int.
	if p.Number-1 > math.MaxInt/p.Size {
		return model.PageRequest{}, invalid("page", "is too large")
	}
	return p, nil
}
