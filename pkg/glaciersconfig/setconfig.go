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

package glaciersconfig

import (
	"context"
	"strconv"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
	"github.com/kaleido-io/glaciers/pkg/catalog"
	"github.com/kaleido-io/glaciers/pkg/decoder"
	"github.com/kaleido-io/glaciers/pkg/pipeline"
)

// SetConfig updates one dotted configuration key against the singleton,
// mirroring the `set_config(key, value)` host-binding shape used by the
// Python reference tooling this decoder is compatible with. An unknown key
// or a value of the wrong type/enum is returned to the caller without
// mutating state.
func SetConfig(ctx context.Context, key, value string) error {
	mu.Lock()
	defer mu.Unlock()
	next := *cfg
	if err := applyKey(ctx, &next, key, value); err != nil {
		return err
	}
	cfg = &next
	return nil
}

func applyKey(ctx context.Context, c *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "glaciers.preferred_dataframe_type":
		dt, err := parseDataframeType(ctx, value)
		if err != nil {
			return err
		}
		c.Glaciers.PreferredDataframeType = dt
	case "glaciers.unnesting_hex_string_encoding":
		b, err := parseBool(ctx, key, value)
		if err != nil {
			return err
		}
		c.Glaciers.UnnestingHexStringEncoding = b

	case "main.events_abi_db_file_path":
		c.Main.EventsABIDBFilePath = value
	case "main.functions_abi_db_file_path":
		c.Main.FunctionsABIDBFilePath = value
	case "main.abi_folder_path":
		c.Main.ABIFolderPath = value
	case "main.raw_logs_folder_path":
		c.Main.RawLogsFolderPath = value
	case "main.raw_traces_folder_path":
		c.Main.RawTracesFolderPath = value

	case "abi_reader.abi_read_mode":
		rm, err := parseReadMode(ctx, value)
		if err != nil {
			return err
		}
		c.ABIReader.ABIReadMode = rm
	case "abi_reader.output_hex_string_encoding":
		b, err := parseBool(ctx, key, value)
		if err != nil {
			return err
		}
		c.ABIReader.OutputHexStringEncoding = b
	case "abi_reader.unique_key":
		uk, err := parseUniqueKey(ctx, value)
		if err != nil {
			return err
		}
		c.ABIReader.UniqueKey = uk

	case "decoder.algorithm":
		alg, err := parseAlgorithm(ctx, value)
		if err != nil {
			return err
		}
		c.Decoder.Algorithm = alg
	case "decoder.output_hex_string_encoding":
		b, err := parseBool(ctx, key, value)
		if err != nil {
			return err
		}
		c.Decoder.OutputHexStringEncoding = b
	case "decoder.output_file_format":
		f, err := parseOutputFileFormat(ctx, value)
		if err != nil {
			return err
		}
		c.Decoder.OutputFileFormat = f
	case "decoder.max_concurrent_files_decoding":
		n, err := parsePositiveInt(ctx, key, value)
		if err != nil {
			return err
		}
		c.Decoder.MaxConcurrentFilesDecoding = n
	case "decoder.max_chunk_threads_per_file":
		n, err := parsePositiveInt(ctx, key, value)
		if err != nil {
			return err
		}
		c.Decoder.MaxChunkThreadsPerFile = n
	case "decoder.decoded_chunk_size":
		n, err := parsePositiveInt(ctx, key, value)
		if err != nil {
			return err
		}
		c.Decoder.DecodedChunkSize = n

	default:
		if col, ok := schemaColumnKey(key, "log_decoder.log_schema.log_alias."); ok {
			c.LogDecoder.LogSchema.Alias[col] = value
			return nil
		}
		if col, ok := schemaColumnKey(key, "log_decoder.log_schema.log_datatype."); ok {
			dt, err := parseDatatype(ctx, key, value)
			if err != nil {
				return err
			}
			c.LogDecoder.LogSchema.Datatype[col] = dt
			return nil
		}
		if col, ok := schemaColumnKey(key, "trace_decoder.trace_schema.trace_alias."); ok {
			c.TraceDecoder.TraceSchema.Alias[col] = value
			return nil
		}
		if col, ok := schemaColumnKey(key, "trace_decoder.trace_schema.trace_datatype."); ok {
			dt, err := parseDatatype(ctx, key, value)
			if err != nil {
				return err
			}
			c.TraceDecoder.TraceSchema.Datatype[col] = dt
			return nil
		}
		return i18n.NewError(ctx, decodermsgs.MsgConfigUnknownKey, key)
	}
	return nil
}

// schemaColumnKey matches the per-column dotted keys used by the schema
// maps, e.g. "log_decoder.log_schema.log_alias.topic0" -> ("topic0", true).
// The prefix match is case-sensitive on the column name itself since column
// names are caller-defined, not an enum.
func schemaColumnKey(key, prefix string) (string, bool) {
	lower := strings.ToLower(key)
	if !strings.HasPrefix(lower, prefix) || len(key) <= len(prefix) {
		return "", false
	}
	return key[len(prefix):], true
}

func parseDatatype(ctx context.Context, key, value string) (pipeline.Datatype, error) {
	switch normalizeEnum(value) {
	case string(pipeline.Binary):
		return pipeline.Binary, nil
	case string(pipeline.HexString):
		return pipeline.HexString, nil
	default:
		return "", i18n.NewError(ctx, decodermsgs.MsgConfigInvalidValue, value, key, []string{"Binary", "HexString"})
	}
}

func parseBool(ctx context.Context, key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, i18n.NewError(ctx, decodermsgs.MsgConfigInvalidValue, value, key, []string{"true", "false"})
	}
	return b, nil
}

func parsePositiveInt(ctx context.Context, key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, i18n.NewError(ctx, decodermsgs.MsgConfigInvalidValue, value, key, "integer >= 1")
	}
	return n, nil
}

func parseDataframeType(ctx context.Context, value string) (DataframeType, error) {
	switch normalizeEnum(value) {
	case string(Polars):
		return Polars, nil
	case string(Pandas):
		return Pandas, nil
	default:
		return "", i18n.NewError(ctx, decodermsgs.MsgConfigInvalidValue, value, "glaciers.preferred_dataframe_type", []string{"Polars", "Pandas"})
	}
}

func parseReadMode(ctx context.Context, value string) (catalog.ReadMode, error) {
	switch normalizeEnum(value) {
	case string(catalog.ReadEvents):
		return catalog.ReadEvents, nil
	case string(catalog.ReadFunctions):
		return catalog.ReadFunctions, nil
	case string(catalog.ReadBoth):
		return catalog.ReadBoth, nil
	default:
		return "", i18n.NewError(ctx, decodermsgs.MsgConfigInvalidValue, value, "abi_reader.abi_read_mode", []string{"Events", "Functions", "Both"})
	}
}

func parseAlgorithm(ctx context.Context, value string) (decoder.Algorithm, error) {
	switch normalizeEnum(value) {
	case string(decoder.AlgorithmHash):
		return decoder.AlgorithmHash, nil
	case string(decoder.AlgorithmHashAddress):
		return decoder.AlgorithmHashAddress, nil
	default:
		return "", i18n.NewError(ctx, decodermsgs.MsgConfigInvalidValue, value, "decoder.algorithm", []string{"Hash", "HashAddress"})
	}
}

func parseOutputFileFormat(ctx context.Context, value string) (OutputFileFormat, error) {
	switch strings.ToLower(value) {
	case string(FormatParquet):
		return FormatParquet, nil
	case string(FormatCSV):
		return FormatCSV, nil
	default:
		return "", i18n.NewError(ctx, decodermsgs.MsgConfigInvalidValue, value, "decoder.output_file_format", []string{"parquet", "csv"})
	}
}

// parseUniqueKey parses a comma-separated subset of {hash, full_signature,
// address}, per §6's `[abi_reader] unique_key`.
func parseUniqueKey(ctx context.Context, value string) ([]catalog.UniqueKeyField, error) {
	parts := strings.Split(value, ",")
	out := make([]catalog.UniqueKeyField, 0, len(parts))
	for _, p := range parts {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case string(catalog.KeyHash):
			out = append(out, catalog.KeyHash)
		case string(catalog.KeyFullSignature):
			out = append(out, catalog.KeyFullSignature)
		case string(catalog.KeyAddress):
			out = append(out, catalog.KeyAddress)
		default:
			return nil, i18n.NewError(ctx, decodermsgs.MsgConfigInvalidUniqueKey)
		}
	}
	if len(out) == 0 {
		return nil, i18n.NewError(ctx, decodermsgs.MsgConfigInvalidUniqueKey)
	}
	return out, nil
}
