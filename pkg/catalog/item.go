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

package catalog

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kaleido-io/glaciers/pkg/abi"
)

// Kind discriminates the two ABI entry shapes a catalog item can wrap.
type Kind string

const (
	KindEvent    Kind = "event"
	KindFunction Kind = "function"
)

// Item is the normalized record the catalog emits for one event or function
// entry of one contract's ABI - the row shape the matcher and row decoder
// join and decode against. It is never mutated after construction.
type Item struct {
	Address         string `json:"address"`
	Hash            string `json:"hash"`
	FullSignature   string `json:"full_signature"`
	Name            string `json:"name"`
	Anonymous       bool   `json:"anonymous"`
	StateMutability string `json:"state_mutability"`
	ID              string `json:"id"`
	NumIndexedArgs  int    `json:"num_indexed_args"`
	NumDataArgs     int    `json:"num_data_args"`
	NumInputs       int    `json:"num_inputs"`
	NumOutputs      int    `json:"num_outputs"`
	Kind            Kind   `json:"kind"`

	// Entry is the parsed ABI entry backing this item, used by the row
	// decoder to actually decode payloads. It is not part of the
	// persisted catalog schema (store.go round-trips the columns above
	// only) and is nil for items loaded back from a catalog file rather
	// than freshly parsed from ABI JSON.
	Entry *abi.Entry `json:"-"`
}

// newItem builds a catalog Item from one validated ABI entry, computing its
// hash (selector for functions, topic0 for events) and composing the two
// derived string fields (full_signature, id) from the entry's parameters.
func newItem(ctx context.Context, address string, e *abi.Entry) (*Item, error) {
	kind := KindFunction
	if e.Type == abi.Event {
		kind = KindEvent
	}

	hashKind := abi.HashKindSelector
	if kind == KindEvent {
		hashKind = abi.HashKindTopic0
	}
	hashBytes, err := e.GenerateIDKindCtx(ctx, hashKind)
	if err != nil {
		return nil, err
	}
	hashHex := "0x" + hex.EncodeToString(hashBytes)

	fullSig, err := fullSignature(ctx, e, kind)
	if err != nil {
		return nil, err
	}

	item := &Item{
		Address:       strings.ToLower(address),
		Hash:          hashHex,
		FullSignature: fullSig,
		Name:          e.Name,
		Kind:          kind,
		Entry:         e,
	}
	item.ID = fmt.Sprintf("%s - %s - %s", item.Hash, item.FullSignature, item.Address)

	if kind == KindEvent {
		item.Anonymous = e.Anonymous
		for _, p := range e.Inputs {
			if p.Indexed {
				item.NumIndexedArgs++
			} else {
				item.NumDataArgs++
			}
		}
	} else {
		item.StateMutability = string(e.StateMutability)
		item.NumInputs = len(e.Inputs)
		item.NumOutputs = len(e.Outputs)
	}

	return item, nil
}

// fullSignature renders the canonical `full_signature` string of §3: the
// `event `/`function ` prefix, per-parameter `indexed` markers for events,
// and a ` returns (...)` suffix for functions - everything CanonicalSignature
// strips back off before hashing, so the two stay in lockstep by construction.
func fullSignature(ctx context.Context, e *abi.Entry, kind Kind) (string, error) {
	buf := new(strings.Builder)
	if kind == KindEvent {
		buf.WriteString("event ")
	} else {
		buf.WriteString("function ")
	}
	buf.WriteString(e.Name)
	buf.WriteRune('(')
	if err := writeParams(ctx, buf, e.Inputs, kind == KindEvent); err != nil {
		return "", err
	}
	buf.WriteRune(')')
	if kind == KindFunction && len(e.Outputs) > 0 {
		buf.WriteString(" returns (")
		if err := writeParams(ctx, buf, e.Outputs, false); err != nil {
			return "", err
		}
		buf.WriteRune(')')
	}
	return buf.String(), nil
}

func writeParams(ctx context.Context, buf *strings.Builder, params abi.ParameterArray, withIndexed bool) error {
	for i, p := range params {
		if i > 0 {
			buf.WriteString(", ")
		}
		t, err := p.SignatureStringCtx(ctx)
		if err != nil {
			return err
		}
		buf.WriteString(t)
		if withIndexed && p.Indexed {
			buf.WriteString(" indexed")
		}
		if p.Name != "" {
			buf.WriteRune(' ')
			buf.WriteString(p.Name)
		}
	}
	return nil
}

// CanonicalSignature strips a full_signature back down to the bare
// `name(type1,type2,...)` form that was keccak256-hashed to produce the
// item's hash - undoing the `event `/`function ` prefix, the ` returns (...)`
// suffix, per-parameter `indexed` keywords and names.
func CanonicalSignature(full string) string {
	s := strings.TrimPrefix(full, "event ")
	s = strings.TrimPrefix(s, "function ")
	if idx := topLevelReturnsIndex(s); idx >= 0 {
		s = s[:idx]
	}
	open := strings.Index(s, "(")
	if open < 0 {
		return s
	}
	name := s[:open]
	inner := s[open+1 : len(s)-1]
	types := splitTopLevel(inner)
	for i, t := range types {
		types[i] = firstToken(t)
	}
	return name + "(" + strings.Join(types, ",") + ")"
}

func topLevelReturnsIndex(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && strings.HasPrefix(s[i:], ") returns (") {
				return i + 1
			}
		}
	}
	return -1
}

func splitTopLevel(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// firstToken returns the leading whitespace-delimited token of a rendered
// parameter (e.g. "(uint256,address) indexed foo" -> "(uint256,address)"),
// treating parens as balanced so a tuple type is never split on its own
// internal commas or spaces.
func firstToken(param string) string {
	param = strings.TrimSpace(param)
	depth := 0
	for i, r := range param {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ' ':
			if depth == 0 {
				return param[:i]
			}
		}
	}
	return param
}
