// Package provider defines the email provider interface and registry.
// It uses the Strategy pattern to support multiple email backends (SES, Resend, SMTP).
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// EmailRequest represents an email to be sent.
type EmailRequest struct {
	From    string
	To      []string
	Subject string
	Body    string // Plain text body
	HTML    string // HTML body (optional)
}

// Provider is the interface that all email providers must implement.
type Provider interface {
	// Name returns the provider name (e.g., "ses", "resend", "smtp")
	Name() string

	// Send sends an email using this provider.
	Send(ctx context.Context, req *EmailRequest) error

	// IsConfigured returns true if the provider is properly configured.
	IsConfigured() bool
}

// Registry manages email providers with fallback support.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	primary   string   // Primary provider name
	fallback  []string // Fallback provider names in order
}

// NewRegistry creates a new email provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
	slog.Info("Registered email provider", "name", provider.Name(), "configured", provider.IsConfigured())
}

// SetPrimary sets the primary provider by name.
func (r *Registry) SetPrimary(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("provider %q not registered", name)
	}
	r.primary = name
	return nil
}

// SetFallback sets the fallback providers in order.
func (r *Registry) SetFallback(names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, ok := r.providers[name]; !ok {
			return fmt.Errorf("provider %q not registered", name)
		}
	}
	r.fallback = names
	return nil
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// candidates returns the configured providers in the order they should be tried:
// primary, fallbacks, then any other configured provider by name.
func (r *Registry) candidates() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.providers))
	var out []Provider
	add := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if p, ok := r.providers[name]; ok && p.IsConfigured() {
			out = append(out, p)
		}
	}

	if r.primary != "" {
		add(r.primary)
	}
	for _, name := range r.fallback {
		add(name)
	}
	rest := make([]string, 0, len(r.providers))
	for name := range r.providers {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		add(name)
	}
	return out
}

// GetPrimary returns the first configured provider in try order.
func (r *Registry) GetPrimary() (Provider, error) {
	c := r.candidates()
	if len(c) == 0 {
		return nil, fmt.Errorf("no configured email provider available")
	}
	return c[0], nil
}

// Send sends an email using the best available provider, falling back in order on failure.
// The first provider's error is returned when every provider fails.
func (r *Registry) Send(ctx context.Context, req *EmailRequest) error {
	c := r.candidates()
	if len(c) == 0 {
		return fmt.Errorf("no configured email provider available")
	}

	var firstErr error
	for i, p := range c {
		err := p.Send(ctx, req)
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if i+1 < len(c) {
			slog.Warn("Email provider failed, trying fallback",
				"provider", p.Name(),
				"fallback", c[i+1].Name(),
				"error", err,
			)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}
	return firstErr
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
