// Copyright 2024 The Taintwalk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package handler implements the callee-specific behaviors the
// interpreter applies at *ssa.Call sites: marking a configured source's
// result tainted, modeling string/path construction so taint and
// literal values survive across wrapper calls, and scoring a call
// against its configured sink rule.
package handler

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/taintwalk/taintwalk/internal/pkg/config"
	"github.com/taintwalk/taintwalk/internal/pkg/solver"
	"github.com/taintwalk/taintwalk/internal/pkg/store"
)

// Args is everything a Handler needs: the path's store and solver, the
// LocKeys of the call's arguments and destination (already resolved
// through aliasing by the caller where that matters), and the call's
// destination type for handlers that dispatch on it.
type Args struct {
	Store   *store.Store
	Solver  *solver.Solver
	ArgKeys []store.LocKey
	DestKey store.LocKey
	// DestTypeName is the unqualified name of the destination's type,
	// used by handlers that key off the destination rather than the
	// callee (see HandleFromTrait).
	DestTypeName string
}

// ArgString returns the string term currently bound to argument i, if
// any has been assigned.
func (a *Args) ArgString(i int) (solver.StringTerm, bool) {
	if i < 0 || i >= len(a.ArgKeys) {
		return solver.StringTerm{}, false
	}
	return a.Store.GetString(a.ArgKeys[i])
}

// ArgTainted reports whether argument i's location is marked tainted.
func (a *Args) ArgTainted(i int) bool {
	if i < 0 || i >= len(a.ArgKeys) {
		return false
	}
	return a.Store.IsTainted(a.ArgKeys[i])
}

// Handler models one callee's effect on the store: typically assigning
// a string value and/or taint bit to DestKey from one or more ArgKeys.
type Handler func(a *Args)

type lookupResult struct {
	h  Handler
	ok bool
}

// Registry resolves a call's qualified callee name (as produced by
// utils.QualifiedName/utils.FunctionQualifiedName) to the Handler that
// models it. Resolution is exact-match first, then the longest
// registered prefix or suffix contained in the queried name, compared
// across both pools together; the outcome is memoized because the same
// callee recurs across call sites and across every path explored
// within a function.
type Registry struct {
	exact    map[string]Handler
	prefixes []entry
	suffixes []entry
	cache    *lru.Cache[string, lookupResult]
}

type entry struct {
	pattern string
	h       Handler
}

// NewRegistry returns an empty registry with no handlers registered.
func NewRegistry() *Registry {
	cache, _ := lru.New[string, lookupResult](512)
	return &Registry{
		exact: map[string]Handler{},
		cache: cache,
	}
}

// RegisterExact binds h to a single fully-qualified callee name.
func (r *Registry) RegisterExact(name string, h Handler) {
	r.exact[name] = h
	r.cache.Purge()
}

// RegisterPrefix binds h to every callee name starting with prefix.
// When more than one registered prefix matches, the longest wins.
func (r *Registry) RegisterPrefix(prefix string, h Handler) {
	r.prefixes = append(r.prefixes, entry{prefix, h})
	r.cache.Purge()
}

// RegisterSuffix binds h to every callee name ending with suffix. When
// more than one registered suffix matches, the longest wins.
func (r *Registry) RegisterSuffix(suffix string, h Handler) {
	r.suffixes = append(r.suffixes, entry{suffix, h})
	r.cache.Purge()
}

// Lookup resolves name to its Handler, if any is registered.
func (r *Registry) Lookup(name string) (Handler, bool) {
	if cached, ok := r.cache.Get(name); ok {
		return cached.h, cached.ok
	}
	res := r.resolve(name)
	r.cache.Add(name, res)
	return res.h, res.ok
}

func (r *Registry) resolve(name string) lookupResult {
	if h, ok := r.exact[name]; ok {
		return lookupResult{h, true}
	}
	best := longestMatch(nil, r.prefixes, name, strings.HasPrefix)
	best = longestMatch(best, r.suffixes, name, strings.HasSuffix)
	if best == nil {
		return lookupResult{}
	}
	return lookupResult{best.h, true}
}

// longestMatch returns the entry with the longest matching pattern,
// seeded with the best candidate found so far so prefix and suffix
// registrations compete in a single length comparison.
func longestMatch(best *entry, entries []entry, name string, match func(s, pattern string) bool) *entry {
	for i := range entries {
		e := &entries[i]
		if !match(name, e.pattern) {
			continue
		}
		if best == nil || len(e.pattern) > len(best.pattern) {
			best = e
		}
	}
	return best
}

// NewDefaultRegistry returns a Registry populated with the built-in
// string/path construction handlers plus one HandleGenericSource entry
// per function listed in cfg.SourceFunctions.
func NewDefaultRegistry(cfg *config.Config) *Registry {
	r := NewRegistry()
	for _, name := range cfg.SourceFunctions {
		r.RegisterExact(name, HandleGenericSource)
	}
	r.RegisterExact("path/filepath.Join", HandleFilepathJoin)
	r.RegisterSuffix(".WriteString", HandlePushLike)
	r.RegisterSuffix(".String", HandlePassthroughString)
	return r
}
