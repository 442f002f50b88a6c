package model

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Router dispatches requests to provider clients by model identifier prefix.
// The longest matching prefix wins; requests without a match go to the
// fallback client.
type Router struct {
	routes   []route
	fallback Client
}

type route struct {
	prefix string
	client Client
}

// NewRouter creates a router with the given fallback client (may be nil).
func NewRouter(fallback Client) *Router {
	return &Router{fallback: fallback}
}

// Handle routes every model starting with prefix to client.
func (r *Router) Handle(prefix string, client Client) *Router {
	r.routes = append(r.routes, route{prefix: prefix, client: client})
	sort.SliceStable(r.routes, func(i, j int) bool {
		return len(r.routes[i].prefix) > len(r.routes[j].prefix)
	})
	return r
}

// Resolve returns the client responsible for model.
func (r *Router) Resolve(model string) (Client, error) {
	for _, rt := range r.routes {
		if strings.HasPrefix(model, rt.prefix) {
			return rt.client, nil
		}
	}
	if r.fallback == nil {
		return nil, fmt.Errorf("no provider configured for model %q", model)
	}
	return r.fallback, nil
}

// Complete implements Client.
func (r *Router) Complete(ctx context.Context, req Request) (string, error) {
	c, err := r.Resolve(req.Model)
	if err != nil {
		return "", err
	}
	return c.Complete(ctx, req)
}

// CompleteStream implements Client.
func (r *Router) CompleteStream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	c, err := r.Resolve(req.Model)
	if err != nil {
		return StreamError(err)
	}
	return c.CompleteStream(ctx, req)
}
