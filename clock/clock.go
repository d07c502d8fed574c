package clock

import (
	"sync"
	"time"

	"github.com/wippyai/typworld/typeset"
)

// Source produces wall-clock time.
type Source func() time.Time

// Provider captures one timestamp on first use and answers date queries
// from it.
type Provider struct {
	now      func() time.Time
	location *time.Location
}

// Option configures a Provider.
type Option func(*Provider)

// WithSource overrides the wall clock.
func WithSource(src Source) Option {
	return func(p *Provider) {
		if src != nil {
			p.source(src)
		}
	}
}

// WithLocation sets the zone used for offset-less queries. Defaults to
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(p *Provider) {
		if loc != nil {
			p.location = loc
		}
	}
}

// Fixed returns an option pinning the snapshot to t.
func Fixed(t time.Time) Option {
	return WithSource(func() time.Time { return t })
}

// New creates a provider reading time.Now.
func New(opts ...Option) *Provider {
	p := &Provider{location: time.Local}
	p.source(time.Now)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) source(src Source) {
	p.now = sync.OnceValue(func() time.Time { return src() })
}

// Now returns the snapshot, capturing it on the first call. Concurrent
// first calls all observe the same value.
func (p *Provider) Now() time.Time {
	return p.now()
}

// Today returns the snapshot's calendar date. Without an offset the date is
// taken in the provider's location; with one it is the UTC date shifted by
// offset hours. ok is false when the shifted date cannot be represented.
func (p *Provider) Today(offset *int64) (typeset.Date, bool) {
	now := p.Now()
	if offset == nil {
		return typeset.DateOf(now.In(p.location))
	}
	const maxHours = int64(1<<63-1) / int64(time.Hour)
	if *offset > maxHours || *offset < -maxHours {
		return typeset.Date{}, false
	}
	return typeset.DateOf(now.UTC().Add(time.Duration(*offset) * time.Hour))
}
