// auth/auth.go

// Package auth defines the narrow contract the synchronization core
// consumes from an authentication provider: report the current identity,
// and signal when it changes. Session management, OAuth flows, and
// credential handling belong to the host.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/statehub/domain/models"
)

// ErrNotAuthenticated is returned when no identity is signed in.
var ErrNotAuthenticated = errors.New("not authenticated")

// Provider is the authentication contract the hub binds to.
type Provider interface {
	// CurrentIdentity returns the signed-in account, or
	// ErrNotAuthenticated when none is.
	CurrentIdentity(ctx context.Context) (models.Account, error)

	// OnIdentityChanged registers a handler invoked after the identity
	// changes (sign-in, account switch, sign-out). Handlers re-read
	// CurrentIdentity; the callback carries no payload on purpose.
	OnIdentityChanged(fn func()) (cancel func())
}

// StaticProvider is a Provider with an explicitly managed identity, for
// tests and hosts that drive sign-in themselves.
type StaticProvider struct {
	mu      sync.Mutex
	account models.Account
	signed  bool
	nextID  int
	subs    map[int]func()
}

// NewStaticProvider returns a signed-out provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{subs: make(map[int]func())}
}

// CurrentIdentity implements Provider.
func (p *StaticProvider) CurrentIdentity(ctx context.Context) (models.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.signed {
		return models.Account{}, ErrNotAuthenticated
	}
	return p.account, nil
}

// OnIdentityChanged implements Provider.
func (p *StaticProvider) OnIdentityChanged(fn func()) (cancel func()) {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// SignIn sets the identity and notifies subscribers.
func (p *StaticProvider) SignIn(a models.Account) {
	p.mu.Lock()
	p.account = a
	p.signed = true
	subs := p.snapshot()
	p.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// SignOut clears the identity and notifies subscribers.
func (p *StaticProvider) SignOut() {
	p.mu.Lock()
	p.account = models.Account{}
	p.signed = false
	subs := p.snapshot()
	p.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// snapshot copies the subscriber list; callers hold p.mu.
func (p *StaticProvider) snapshot() []func() {
	out := make([]func(), 0, len(p.subs))
	for _, fn := range p.subs {
		out = append(out, fn)
	}
	return out
}
