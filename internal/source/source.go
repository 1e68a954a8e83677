// Package source maps chat commands to the mail senders they check.
package source

import (
	"fmt"
	"strings"
)

// Source is one configured sender the bot can check for unread mail.
type Source struct {
	// Command is the chat command without the slash, e.g. "mail".
	Command string
	Address string
	// Label names the sender in replies: "Новых писем от <Label> нет!".
	Label string
}

// Registry keeps a mapping from commands to sources in registration order.
type Registry struct {
	sources map[string]Source
	order   []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a source. Sources without an address are ignored.
func (r *Registry) Register(s Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	s.Command = strings.ToLower(strings.TrimPrefix(s.Command, "/"))
	if s.Command == "" || s.Address == "" {
		return
	}
	if s.Label == "" {
		s.Label = s.Address
	}
	if _, ok := r.sources[s.Command]; !ok {
		r.order = append(r.order, s.Command)
	}
	r.sources[s.Command] = s
}

// Resolve returns the source for command or an error if it is absent.
func (r *Registry) Resolve(command string) (Source, error) {
	if s, ok := r.sources[strings.ToLower(command)]; ok {
		return s, nil
	}
	return Source{}, fmt.Errorf("source %s is not registered", command)
}

// Has reports whether command checks mail.
func (r *Registry) Has(command string) bool {
	_, ok := r.sources[strings.ToLower(command)]
	return ok
}

// All returns the sources in registration order.
func (r *Registry) All() []Source {
	out := make([]Source, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, r.sources[c])
	}
	return out
}
