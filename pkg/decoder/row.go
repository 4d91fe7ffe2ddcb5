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

// Package decoder implements the Matcher and the Row Decoder:
// resolving a raw row to zero or one ABI catalog item and decoding its
// binary payload into keys/values/JSON, without ever aborting the batch a
// row belongs to.
package decoder

import (
	"context"

	"github.com/kaleido-io/glaciers/pkg/catalog"
	"github.com/kaleido-io/glaciers/pkg/rawio"
)

// Outcome is exactly one of the three row-level results §4.3 defines:
// matched-and-decoded, matched-but-decode-failed, or unmatched. Every raw
// row produces exactly one Outcome - invariant 4 of spec §3.
type Outcome string

const (
	OutcomeDecoded   Outcome = "decoded"
	OutcomeDecodeErr Outcome = "decode_error"
	OutcomeUnmatched Outcome = "unmatched"
)

// DecodedLogRow is one decoded output row for the event pipeline - the raw
// row plus the columns §3 adds on top of it.
type DecodedLogRow struct {
	Row             *rawio.LogRow
	Outcome         Outcome
	Name            string
	FullSignature   string
	Anonymous       bool
	StateMutability string
	ID              string
	EventKeys       []string
	EventValues     []string
	EventJSON       []Field
	Error           string
}

// DecodeLogRow matches and decodes one raw log row: resolve candidates via the
// matcher, decode each, and keep the winner per MultiMatchDedupe.
func DecodeLogRow(ctx context.Context, row *rawio.LogRow, m *Matcher) *DecodedLogRow {
	out := &DecodedLogRow{Row: row}
	if len(row.Topic0) == 0 {
		out.Outcome = OutcomeUnmatched
		return out
	}

	address := ""
	if row.Address != nil {
		address = row.Address.String()
	}
	candidates := m.Match(row.Topic0.String(), address)
	if len(candidates) == 0 {
		out.Outcome = OutcomeUnmatched
		return out
	}

	attempts := make([]Attempt, len(candidates))
	decodes := make(map[*catalog.Item]*DecodedLogRow, len(candidates))
	for i, item := range candidates {
		attempts[i] = Attempt{Item: item, AddressMatch: address != "" && item.Address == address}
		keys, values, fields, err := DecodeLog(ctx, row, item)
		if err != nil {
			continue
		}
		attempts[i].Decoded = true
		decodes[item] = &DecodedLogRow{
			Row: row, Outcome: OutcomeDecoded,
			Name: item.Name, FullSignature: item.FullSignature, Anonymous: item.Anonymous,
			ID: item.ID, EventKeys: keys, EventValues: values, EventJSON: fields,
		}
	}

	winner := MultiMatchDedupe(attempts)
	if winner == nil {
		out.Outcome = OutcomeDecodeErr
		out.Name = candidates[0].Name
		out.FullSignature = candidates[0].FullSignature
		out.ID = candidates[0].ID
		out.Error = "no candidate decoded successfully"
		return out
	}
	return decodes[winner.Item]
}

// DecodedTraceRow is one decoded output row for the trace pipeline.
type DecodedTraceRow struct {
	Row             *rawio.TraceRow
	Outcome         Outcome
	Name            string
	FullSignature   string
	StateMutability string
	ID              string
	InputKeys       []string
	InputValues     []string
	InputJSON       []Field
	OutputKeys      []string
	OutputValues    []string
	OutputJSON      []Field
	Error           string
}

// DecodeTraceRow matches and decodes one raw trace row.
func DecodeTraceRow(ctx context.Context, row *rawio.TraceRow, m *Matcher, mode SelectorPrefixMode) *DecodedTraceRow {
	out := &DecodedTraceRow{Row: row}
	if len(row.Selector) == 0 {
		out.Outcome = OutcomeUnmatched
		return out
	}

	address := ""
	if row.ActionTo != nil {
		address = row.ActionTo.String()
	}
	candidates := m.Match(row.Selector.String(), address)
	if len(candidates) == 0 {
		out.Outcome = OutcomeUnmatched
		return out
	}

	attempts := make([]Attempt, len(candidates))
	decodes := make(map[*catalog.Item]*DecodedTraceRow, len(candidates))
	for i, item := range candidates {
		attempts[i] = Attempt{Item: item, AddressMatch: address != "" && item.Address == address}
		inK, inV, inJ, outK, outV, outJ, soft, err := DecodeTrace(ctx, row, item, mode)
		if err != nil {
			continue
		}
		attempts[i].Decoded = true
		errStr := ""
		if soft != "" {
			errStr = soft
		}
		decodes[item] = &DecodedTraceRow{
			Row: row, Outcome: OutcomeDecoded,
			Name: item.Name, FullSignature: item.FullSignature, StateMutability: item.StateMutability,
			ID: item.ID, InputKeys: inK, InputValues: inV, InputJSON: inJ,
			OutputKeys: outK, OutputValues: outV, OutputJSON: outJ, Error: errStr,
		}
	}

	winner := MultiMatchDedupe(attempts)
	if winner == nil {
		out.Outcome = OutcomeDecodeErr
		out.Name = candidates[0].Name
		out.FullSignature = candidates[0].FullSignature
		out.ID = candidates[0].ID
		out.Error = "no candidate decoded successfully"
		return out
	}
	return decodes[winner.Item]
}
