package scanner

import (
	"context"
	"fmt"
	"sort"

	"SelfEarnBot/internal/domain"
)

// Request carries all parameters required to execute a scan.
type Request struct {
	SourceName string
	URLs       []string
	Options    map[string]string
}

// Option returns the named option or def when unset.
func (r Request) Option(name, def string) string {
	if v, ok := r.Options[name]; ok && v != "" {
		return v
	}
	return def
}

// Scanner captures a single discovery strategy (RSS feeds, marketplaces, demo catalog).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Opportunity, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Names lists registered scanners in name order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
