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

package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
	"github.com/kaleido-io/glaciers/pkg/decoder"
	"github.com/kaleido-io/glaciers/pkg/rawio"
)

// decodedLogColumns/decodedTraceColumns are the columns §3 adds on top of
// the pass-through input columns.
var decodedLogColumns = []string{
	"name", "full_signature", "anonymous", "id", "outcome",
	"event_keys", "event_values", "event_json", "error",
}

var decodedTraceColumns = []string{
	"name", "full_signature", "state_mutability", "id", "outcome",
	"input_keys", "input_values", "input_json",
	"output_keys", "output_values", "output_json", "error",
}

func jsonField(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// reverseAlias inverts a canonical->user alias map, defaulting every
// canonical name not explicitly aliased to itself.
func reverseAlias(alias map[string]string, canonicalNames []string) map[string]string {
	out := make(map[string]string, len(canonicalNames))
	for _, c := range canonicalNames {
		out[resolveColumn(alias, c)] = c
	}
	return out
}

// logBinaryCell re-encodes one of the log row's own binary fields (rather
// than its original CSV text) so `output_hex_string_encoding` is honored on
// output even when the input used the other physical encoding.
func logBinaryCell(row *rawio.LogRow, canonical string, hexOut bool) (string, bool) {
	switch canonical {
	case "address":
		if row.Address == nil {
			return "", true
		}
		return row.Address.String(), true
	case "topic0":
		return encodeBytes(row.Topic0, hexOut), true
	case "topic1":
		return encodeBytes(row.Topic1, hexOut), true
	case "topic2":
		return encodeBytes(row.Topic2, hexOut), true
	case "topic3":
		return encodeBytes(row.Topic3, hexOut), true
	case "data":
		return encodeBytes(row.Data, hexOut), true
	default:
		return "", false
	}
}

func traceBinaryCell(row *rawio.TraceRow, canonical string, hexOut bool) (string, bool) {
	switch canonical {
	case "action_to":
		if row.ActionTo == nil {
			return "", true
		}
		return row.ActionTo.String(), true
	case "selector":
		return encodeBytes(row.Selector, hexOut), true
	case "action_input":
		return encodeBytes(row.ActionInput, hexOut), true
	case "result_output":
		return encodeBytes(row.ResultOutput, hexOut), true
	default:
		return "", false
	}
}

// WriteDecodedLogRows writes the decoded event pipeline output: every
// original input column (binary columns re-cast per
// `output_hex_string_encoding`) followed by the decoded columns of §3, one
// row per input row - law #5, "output row count equals input row count".
func WriteDecodedLogRows(ctx context.Context, path string, header []string, rows []*decoder.DecodedLogRow, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgPipelineWriteFailed, path, err)
	}
	defer f.Close()

	canonicalOf := reverseAlias(opts.LogSchema.Alias, logCanonicalColumns)

	w := csv.NewWriter(f)
	if err := w.Write(append(append([]string{}, header...), decodedLogColumns...)); err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgPipelineWriteFailed, path, err)
	}
	for _, dr := range rows {
		record := make([]string, 0, len(header)+len(decodedLogColumns))
		for _, h := range header {
			if canonical, ok := canonicalOf[h]; ok {
				if cell, handled := logBinaryCell(dr.Row, canonical, opts.OutputHexStringEncoding); handled {
					record = append(record, cell)
					continue
				}
			}
			record = append(record, dr.Row.PassThrough[h])
		}
		record = append(record,
			dr.Name, dr.FullSignature, boolCell(dr.Anonymous), dr.ID, string(dr.Outcome),
			jsonField(dr.EventKeys), jsonField(dr.EventValues), jsonField(dr.EventJSON), dr.Error,
		)
		if err := w.Write(record); err != nil {
			return i18n.NewError(ctx, decodermsgs.MsgPipelineWriteFailed, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgPipelineWriteFailed, path, err)
	}
	return nil
}

// WriteDecodedTraceRows is WriteDecodedLogRows's trace analog.
func WriteDecodedTraceRows(ctx context.Context, path string, header []string, rows []*decoder.DecodedTraceRow, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgPipelineWriteFailed, path, err)
	}
	defer f.Close()

	canonicalOf := reverseAlias(opts.TraceSchema.Alias, traceCanonicalColumns)

	w := csv.NewWriter(f)
	if err := w.Write(append(append([]string{}, header...), decodedTraceColumns...)); err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgPipelineWriteFailed, path, err)
	}
	for _, dr := range rows {
		record := make([]string, 0, len(header)+len(decodedTraceColumns))
		for _, h := range header {
			if canonical, ok := canonicalOf[h]; ok {
				if cell, handled := traceBinaryCell(dr.Row, canonical, opts.OutputHexStringEncoding); handled {
					record = append(record, cell)
					continue
				}
			}
			record = append(record, dr.Row.PassThrough[h])
		}
		record = append(record,
			dr.Name, dr.FullSignature, dr.StateMutability, dr.ID, string(dr.Outcome),
			jsonField(dr.InputKeys), jsonField(dr.InputValues), jsonField(dr.InputJSON),
			jsonField(dr.OutputKeys), jsonField(dr.OutputValues), jsonField(dr.OutputJSON), dr.Error,
		)
		if err := w.Write(record); err != nil {
			return i18n.NewError(ctx, decodermsgs.MsgPipelineWriteFailed, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgPipelineWriteFailed, path, err)
	}
	return nil
}

func boolCell(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
