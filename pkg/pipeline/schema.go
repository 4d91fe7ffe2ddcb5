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

// Package pipeline implements the Batch Pipeline: schema adaptation,
// chunking, and bounded-parallel chunk decoding of a raw log/trace file
// against a catalog Table.
package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/csv"
	"encoding/hex"
	"os"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
	"github.com/kaleido-io/glaciers/pkg/ethtypes"
	"github.com/kaleido-io/glaciers/pkg/rawio"
)

// Datatype is the physical on-disk encoding of a binary column, used during
// schema adaptation. CSV (this module's stdlib stand-in for a Parquet
// engine) has no native binary column type, so a `Binary` column is stored
// as base64 text and a `HexString` column as `0x`-prefixed hex text; both
// cast down to raw bytes before the row decoder ever sees them, which is
// the only distinction the decoder core cares about.
type Datatype string

const (
	Binary    Datatype = "Binary"
	HexString Datatype = "HexString"
)

// LogSchema is the `[log_decoder.log_schema]` alias/datatype configuration
// for one raw log file: canonical column name -> user column name, and
// canonical column name -> physical encoding.
type LogSchema struct {
	Alias    map[string]string   `toml:"log_alias"`
	Datatype map[string]Datatype `toml:"log_datatype"`
}

// TraceSchema is the `[trace_decoder.trace_schema]` analog for trace files.
type TraceSchema struct {
	Alias    map[string]string   `toml:"trace_alias"`
	Datatype map[string]Datatype `toml:"trace_datatype"`
}

var logCanonicalColumns = []string{"address", "topic0", "topic1", "topic2", "topic3", "data"}
var traceCanonicalColumns = []string{"action_to", "selector", "action_input", "result_output"}

// DefaultLogSchema is the identity mapping (no renames) with every binary
// column read as `0x`-prefixed hex - the common case for exported log
// tables and the default assumed absent a `[log_decoder.log_schema]`
// section in configuration.
func DefaultLogSchema() LogSchema {
	return LogSchema{Alias: map[string]string{}, Datatype: defaultDatatypes(logCanonicalColumns)}
}

// DefaultTraceSchema is TraceSchema's analog of DefaultLogSchema.
func DefaultTraceSchema() TraceSchema {
	return TraceSchema{Alias: map[string]string{}, Datatype: defaultDatatypes(traceCanonicalColumns)}
}

func defaultDatatypes(columns []string) map[string]Datatype {
	m := make(map[string]Datatype, len(columns))
	for _, c := range columns {
		m[c] = HexString
	}
	return m
}

func resolveColumn(alias map[string]string, canonical string) string {
	if user, ok := alias[canonical]; ok && user != "" {
		return user
	}
	return canonical
}

func columnDatatype(datatypes map[string]Datatype, canonical string) Datatype {
	if dt, ok := datatypes[canonical]; ok {
		return dt
	}
	return HexString
}

// castToBytes converts one raw cell to bytes per its configured physical
// datatype - the "cast to the configured physical datatype" step of §4.5,
// inverted by encodeBytes on the way back out.
func castToBytes(ctx context.Context, column, raw string, dt Datatype) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	switch dt {
	case Binary:
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, i18n.NewError(ctx, decodermsgs.MsgCastFailure, column, dt, err)
		}
		return b, nil
	default: // HexString
		b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			return nil, i18n.NewError(ctx, decodermsgs.MsgCastFailure, column, dt, err)
		}
		return b, nil
	}
}

// encodeBytes is castToBytes's inverse, used when writing decoded output:
// `output_hex_string_encoding` governs whether a binary column is
// re-encoded as hex text (true) or left as base64 (false).
func encodeBytes(b []byte, outputHexStringEncoding bool) string {
	if len(b) == 0 {
		return ""
	}
	if outputHexStringEncoding {
		return "0x" + hex.EncodeToString(b)
	}
	return base64.StdEncoding.EncodeToString(b)
}

func readCSV(ctx context.Context, path string) (header []string, rows [][]string, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		return nil, nil, i18n.NewError(ctx, decodermsgs.MsgPipelineReadFailed, path, openErr)
	}
	defer f.Close()
	r := csv.NewReader(f)
	all, readErr := r.ReadAll()
	if readErr != nil {
		return nil, nil, i18n.NewError(ctx, decodermsgs.MsgPipelineReadFailed, path, readErr)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

func columnIndex(ctx context.Context, header []string, canonical, userColumn string) (int, error) {
	for i, h := range header {
		if h == userColumn {
			return i, nil
		}
	}
	return -1, i18n.NewError(ctx, decodermsgs.MsgSchemaMissingAlias, canonical, userColumn)
}

// ReadLogRows loads a raw log CSV file, renaming and casting columns per
// schema, and returns the decoded LogRow slice plus the original header (so
// pass-through columns and their order can be reproduced on output).
func ReadLogRows(ctx context.Context, path string, schema LogSchema) ([]*rawio.LogRow, []string, error) {
	header, records, err := readCSV(ctx, path)
	if err != nil || header == nil {
		return nil, header, err
	}

	idx := make(map[string]int, len(logCanonicalColumns))
	for _, c := range logCanonicalColumns {
		if c == "address" {
			continue // address is required but has no binary datatype cast
		}
		userCol := resolveColumn(schema.Alias, c)
		i, err := columnIndex(ctx, header, c, userCol)
		if err != nil {
			return nil, nil, err
		}
		idx[c] = i
	}
	addrIdx, err := columnIndex(ctx, header, "address", resolveColumn(schema.Alias, "address"))
	if err != nil {
		return nil, nil, err
	}

	rows := make([]*rawio.LogRow, 0, len(records))
	for _, rec := range records {
		row := &rawio.LogRow{PassThrough: passThroughOf(header, rec)}
		if rec[addrIdx] != "" {
			addr, err := ethtypes.NewAddress(rec[addrIdx])
			if err != nil {
				return nil, nil, i18n.NewError(ctx, decodermsgs.MsgCastFailure, "address", Binary, err)
			}
			row.Address = addr
		}
		for _, c := range []string{"topic0", "topic1", "topic2", "topic3", "data"} {
			b, err := castToBytes(ctx, c, rec[idx[c]], columnDatatype(schema.Datatype, c))
			if err != nil {
				return nil, nil, err
			}
			switch c {
			case "topic0":
				row.Topic0 = b
			case "topic1":
				row.Topic1 = b
			case "topic2":
				row.Topic2 = b
			case "topic3":
				row.Topic3 = b
			case "data":
				row.Data = b
			}
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

// ReadTraceRows is ReadLogRows's analog for trace files.
func ReadTraceRows(ctx context.Context, path string, schema TraceSchema) ([]*rawio.TraceRow, []string, error) {
	header, records, err := readCSV(ctx, path)
	if err != nil || header == nil {
		return nil, header, err
	}

	idx := make(map[string]int, len(traceCanonicalColumns))
	for _, c := range []string{"selector", "action_input", "result_output"} {
		userCol := resolveColumn(schema.Alias, c)
		i, err := columnIndex(ctx, header, c, userCol)
		if err != nil {
			return nil, nil, err
		}
		idx[c] = i
	}
	toIdx, err := columnIndex(ctx, header, "action_to", resolveColumn(schema.Alias, "action_to"))
	if err != nil {
		return nil, nil, err
	}

	rows := make([]*rawio.TraceRow, 0, len(records))
	for _, rec := range records {
		row := &rawio.TraceRow{PassThrough: passThroughOf(header, rec)}
		if rec[toIdx] != "" {
			addr, err := ethtypes.NewAddress(rec[toIdx])
			if err != nil {
				return nil, nil, i18n.NewError(ctx, decodermsgs.MsgCastFailure, "action_to", Binary, err)
			}
			row.ActionTo = addr
		}
		for _, c := range []string{"selector", "action_input", "result_output"} {
			b, err := castToBytes(ctx, c, rec[idx[c]], columnDatatype(schema.Datatype, c))
			if err != nil {
				return nil, nil, err
			}
			switch c {
			case "selector":
				row.Selector = b
			case "action_input":
				row.ActionInput = b
			case "result_output":
				row.ResultOutput = b
			}
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

// passThroughOf captures every original column verbatim (by its header
// name, including the canonical columns consumed above) - §6's "decoded
// output preserves input columns and appends decoded columns" means the
// binary columns are echoed back too, re-cast per OutputHexStringEncoding
// rather than dropped (see WriteDecodedLogRows/WriteDecodedTraceRows).
func passThroughOf(header, rec []string) map[string]string {
	out := make(map[string]string, len(header))
	for i, h := range header {
		out[h] = rec[i]
	}
	return out
}
