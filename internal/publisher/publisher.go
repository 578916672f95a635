// Package publisher routes generated content to an outlet. The built-in
// outlets simulate real platforms behind the same contract.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/ports"
)

// Outlet submits content to one destination.
type Outlet interface {
	Publish(ctx context.Context, content domain.GeneratedContent, opp domain.Opportunity) (domain.PublishResult, error)
}

// Router implements ports.Publisher by outlet name.
type Router struct {
	outlets map[string]Outlet
	logger  *slog.Logger
}

var _ ports.Publisher = (*Router)(nil)

// NewRouter builds an empty router.
func NewRouter(logger *slog.Logger) *Router {
	return &Router{outlets: map[string]Outlet{}, logger: logger}
}

// Register installs or replaces the outlet under name.
func (r *Router) Register(name string, outlet Outlet) {
	r.outlets[strings.ToLower(name)] = outlet
}

// Publish dispatches to the named outlet. Outlet errors are wrapped in
// *domain.PublishError.
func (r *Router) Publish(ctx context.Context, outlet string, content domain.GeneratedContent, opp domain.Opportunity) (domain.PublishResult, error) {
	o, ok := r.outlets[strings.ToLower(outlet)]
	if !ok {
		return domain.PublishResult{}, &domain.PublishError{Outlet: outlet, Err: fmt.Errorf("%w: %q", domain.ErrUnknownOutlet, outlet)}
	}
	res, err := o.Publish(ctx, content, opp)
	if err != nil {
		return domain.PublishResult{}, &domain.PublishError{Outlet: outlet, Err: err}
	}
	if r.logger != nil {
		r.logger.Info("content submitted",
			"outlet", outlet,
			"opportunity", opp.ID,
			"status", res.Status,
			"revenue", res.EstimatedRevenue)
	}
	return res, nil
}

// Dice is a goroutine-safe random source shared by simulated outlets.
type Dice struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewDice seeds a deterministic source.
func NewDice(seed uint64) *Dice {
	return &Dice{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float64 returns a value in [0,1).
func (d *Dice) Float64() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rnd.Float64()
}

// IntN returns a value in [0,n).
func (d *Dice) IntN(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rnd.IntN(n)
}

func validContent(c domain.GeneratedContent) bool {
	return strings.TrimSpace(c.Body) != "" && strings.TrimSpace(c.Title) != "" && c.QualityScore > 0.5
}

func rejected() domain.PublishResult {
	return domain.PublishResult{Status: domain.PublishRejected, Message: "content quality too low"}
}
