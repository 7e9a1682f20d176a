package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/samvad-hq/newsfeed/internal/logger"
)

// Builder creates a Publisher from a validated config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)

// Delivery summarizes one routed event.
type Delivery struct {
	// Matched counts publishers whose rule accepted the event.
	Matched int
	// Delivered counts matched publishers that returned no error.
	Delivered int
	Err       error
}

// Handled reports whether the event needs no retry: nothing wanted it, or at least
// one matching publisher took it.
func (d Delivery) Handled() bool {
	return d.Matched == 0 || d.Delivered > 0
}

type route struct {
	pub  Publisher
	rule Rule
}

// Router sends each event to the publishers whose rule accepts it.
type Router struct {
	routes []route
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{}
}

// OpenRouter builds a publisher for every config and routes by each entry's Rule.
// Publishers built before a failure are closed.
func OpenRouter(ctx context.Context, cfgs []PublisherConfig, log logger.Logger) (*Router, error) {
	log = logger.Ensure(log)
	r := NewRouter()
	for _, cfg := range cfgs {
		k, ok := kinds[cfg.Type]
		if !ok {
			_ = r.Close()
			return nil, fmt.Errorf("publisher %q: unsupported type %q", cfg.ID, cfg.Type)
		}
		pub, err := k.build(ctx, cfg, log)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
		}
		r.Add(pub, cfg.Rule)
	}
	return r, nil
}

// Add routes events accepted by rule to pub. A nil pub is ignored.
func (r *Router) Add(pub Publisher, rule Rule) {
	if pub == nil {
		return
	}
	r.routes = append(r.routes, route{pub: pub, rule: rule.normalized()})
}

// Route publishes evt to every matching publisher in configuration order.
func (r *Router) Route(ctx context.Context, evt Event) Delivery {
	var d Delivery
	if r == nil {
		return d
	}
	var errs []error
	for _, rt := range r.routes {
		if !rt.rule.Accepts(evt) {
			continue
		}
		d.Matched++
		if err := rt.pub.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", rt.pub.Type(), rt.pub.ID(), err))
			continue
		}
		d.Delivered++
	}
	d.Err = errors.Join(errs...)
	return d
}

// Len returns the number of routed publishers.
func (r *Router) Len() int {
	if r == nil {
		return 0
	}
	return len(r.routes)
}

// Close closes every publisher holding a client and empties the router.
func (r *Router) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, rt := range r.routes {
		if c, ok := rt.pub.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", rt.pub.Type(), rt.pub.ID(), err))
			}
		}
	}
	r.routes = nil
	return errors.Join(errs...)
}
