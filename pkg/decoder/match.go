// Copyright © 2023 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package decoder

import (
	"strings"

	"github.com/karlseguin/ccache"
	"github.com/kaleido-io/glaciers/pkg/catalog"
)

// Algorithm selects how the matcher resolves a raw row's hash to catalog
// items - §4.3.
type Algorithm string

const (
	AlgorithmHash        Algorithm = "Hash"
	AlgorithmHashAddress Algorithm = "HashAddress"
)

// Matcher resolves raw rows against a catalog Table by hash (and optionally
// contract address), using a small ccache-backed index so repeated lookups
// against the same (large, read-mostly) catalog within a chunk don't rescan
// the item slice - the same caching shape a filesystem-watched key store
// uses for its loaded signing keys, repurposed here for ABI items.
type Matcher struct {
	algorithm Algorithm
	byHash    map[string][]*catalog.Item
	cache     *ccache.Cache
}

// NewMatcher indexes table once by hash; HashAddress lookups filter that same
// index by address at lookup time, so there's a single index to keep
// consistent with the catalog's insertion order (needed for law #6's
// deterministic tie-break on multi-match).
func NewMatcher(table *catalog.Table, algorithm Algorithm) *Matcher {
	m := &Matcher{
		algorithm: algorithm,
		byHash:    make(map[string][]*catalog.Item),
		cache:     ccache.New(ccache.Configure().MaxSize(10000)),
	}
	for _, it := range table.Items {
		h := strings.ToLower(it.Hash)
		m.byHash[h] = append(m.byHash[h], it)
	}
	return m
}

// Candidates returns every catalog item whose hash matches, in catalog
// insertion order - the set Match duplicates a row against under `Hash`.
func (m *Matcher) Candidates(hash string) []*catalog.Item {
	if cached := m.cache.Get(strings.ToLower(hash)); cached != nil {
		return cached.Value().([]*catalog.Item)
	}
	items := m.byHash[strings.ToLower(hash)]
	m.cache.Set(strings.ToLower(hash), items, 0)
	return items
}

// Match resolves one raw row's hash (+ address, if known) to the item(s) a
// row decoder should attempt, per §4.3's Hash/HashAddress algorithms.
//
// Under HashAddress, an address match (if one exists among the hash
// candidates) is returned alone; otherwise every hash candidate is returned
// (the "falls back to a Hash-only attempt" rule). Under Hash, every
// candidate is always returned, letting the caller decode each and dedupe
// afterward (MultiMatchDedupe).
func (m *Matcher) Match(hash, address string) []*catalog.Item {
	candidates := m.Candidates(hash)
	if m.algorithm != AlgorithmHashAddress || address == "" {
		return candidates
	}
	address = strings.ToLower(address)
	var exact []*catalog.Item
	for _, it := range candidates {
		if it.Address == address {
			exact = append(exact, it)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return candidates
}

// Attempt is one row-decode outcome for a single candidate item, used by
// MultiMatchDedupe to pick a winner among several candidates a Hash-only
// match produced.
type Attempt struct {
	Item         *catalog.Item
	AddressMatch bool
	Decoded      bool
}

// MultiMatchDedupe implements §4.3's "a subsequent deduplication step
// retains at most one successful decode per original row, preferring
// HashAddress-style exact matches when available" rule, and §4.5's
// determinism tie-break: "(catalog insertion order, item id)". attempts must
// already be in catalog insertion order.
func MultiMatchDedupe(attempts []Attempt) *Attempt {
	var bestAddressMatch, bestAny *Attempt
	for i := range attempts {
		a := &attempts[i]
		if !a.Decoded {
			continue
		}
		if a.AddressMatch && bestAddressMatch == nil {
			bestAddressMatch = a
		}
		if bestAny == nil {
			bestAny = a
		}
	}
	if bestAddressMatch != nil {
		return bestAddressMatch
	}
	return bestAny
}
