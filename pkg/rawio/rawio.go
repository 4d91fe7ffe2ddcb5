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

// Package rawio defines the in-memory shape of the raw execution-artifact
// rows the decoder consumes - the logical columns of a log or trace row,
// trimmed from a full JSON/RPC receipt and transaction model down to just
// the log/trace fields the decoder reads. PassThrough carries every other
// physical column (block number, tx hash, indices, chain id, ...) untouched,
// keyed by its original column name.
package rawio

import (
	"github.com/kaleido-io/glaciers/pkg/ethtypes"
)

// LogRow is one raw event log row: address + up to four topics + data,
// plus whatever pass-through columns the source table carried.
type LogRow struct {
	Address     *ethtypes.Address0xHex    `json:"address"`
	Topic0      ethtypes.HexBytes0xPrefix `json:"topic0,omitempty"`
	Topic1      ethtypes.HexBytes0xPrefix `json:"topic1,omitempty"`
	Topic2      ethtypes.HexBytes0xPrefix `json:"topic2,omitempty"`
	Topic3      ethtypes.HexBytes0xPrefix `json:"topic3,omitempty"`
	Data        ethtypes.HexBytes0xPrefix `json:"data"`
	PassThrough map[string]string         `json:"-"`
}

// Topics returns the non-nil topic words in declaration order, for callers
// that want to walk them positionally (topic0 is the event hash itself).
func (r *LogRow) Topics() []ethtypes.HexBytes0xPrefix {
	all := []ethtypes.HexBytes0xPrefix{r.Topic0, r.Topic1, r.Topic2, r.Topic3}
	out := make([]ethtypes.HexBytes0xPrefix, 0, len(all))
	for _, t := range all {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// IndexedTopics returns topic1..topic3 - the topics carrying indexed
// event parameter values, excluding topic0 (the event hash).
func (r *LogRow) IndexedTopics() []ethtypes.HexBytes0xPrefix {
	all := []ethtypes.HexBytes0xPrefix{r.Topic1, r.Topic2, r.Topic3}
	out := make([]ethtypes.HexBytes0xPrefix, 0, len(all))
	for _, t := range all {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// TraceRow is one raw call trace row: the callee address, the 4-byte
// selector, the raw input/output byte payloads, plus pass-through columns.
type TraceRow struct {
	ActionTo     *ethtypes.Address0xHex    `json:"action_to"`
	Selector     ethtypes.HexBytes0xPrefix `json:"selector"`
	ActionInput  ethtypes.HexBytes0xPrefix `json:"action_input"`
	ResultOutput ethtypes.HexBytes0xPrefix `json:"result_output"`
	PassThrough  map[string]string         `json:"-"`
}
