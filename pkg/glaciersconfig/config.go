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

// Package glaciersconfig holds the process-wide configuration singleton -
// the `[glaciers]`, `[main]`, `[abi_reader]`, `[decoder]`,
// `[log_decoder.log_schema]` and `[trace_decoder.trace_schema]` sections -
// behind a mutex, mirroring the shape (if not the HTTP-section registry) of
// a viper-backed config singleton.
package glaciersconfig

import (
	"context"
	"os"
	"sync"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
	"github.com/kaleido-io/glaciers/pkg/catalog"
	"github.com/kaleido-io/glaciers/pkg/decoder"
	"github.com/kaleido-io/glaciers/pkg/pipeline"
	"github.com/pelletier/go-toml"
	"github.com/spf13/viper"
)

// DataframeType is `[glaciers] preferred_dataframe_type` - it affects only
// host-binding return shapes, which this Go module has none of; the value
// is accepted and round-tripped but otherwise unused.
type DataframeType string

const (
	Polars DataframeType = "Polars"
	Pandas DataframeType = "Pandas"
)

// OutputFileFormat is `[decoder] output_file_format`.
type OutputFileFormat string

const (
	FormatParquet OutputFileFormat = "parquet"
	FormatCSV     OutputFileFormat = "csv"
)

type GlaciersSection struct {
	PreferredDataframeType     DataframeType `toml:"preferred_dataframe_type"`
	UnnestingHexStringEncoding bool          `toml:"unnesting_hex_string_encoding"`
}

type MainSection struct {
	EventsABIDBFilePath    string `toml:"events_abi_db_file_path"`
	FunctionsABIDBFilePath string `toml:"functions_abi_db_file_path"`
	ABIFolderPath          string `toml:"abi_folder_path"`
	RawLogsFolderPath      string `toml:"raw_logs_folder_path"`
	RawTracesFolderPath    string `toml:"raw_traces_folder_path"`
}

type ABIReaderSection struct {
	ABIReadMode             catalog.ReadMode         `toml:"abi_read_mode"`
	OutputHexStringEncoding bool                     `toml:"output_hex_string_encoding"`
	UniqueKey               []catalog.UniqueKeyField `toml:"unique_key"`
}

type DecoderSection struct {
	Algorithm                  decoder.Algorithm `toml:"algorithm"`
	OutputHexStringEncoding    bool              `toml:"output_hex_string_encoding"`
	OutputFileFormat           OutputFileFormat  `toml:"output_file_format"`
	MaxConcurrentFilesDecoding int               `toml:"max_concurrent_files_decoding"`
	MaxChunkThreadsPerFile     int               `toml:"max_chunk_threads_per_file"`
	DecodedChunkSize           int               `toml:"decoded_chunk_size"`
}

type LogDecoderSection struct {
	LogSchema pipeline.LogSchema `toml:"log_schema"`
}

type TraceDecoderSection struct {
	TraceSchema pipeline.TraceSchema `toml:"trace_schema"`
}

// Config is the full process-wide configuration struct - a flat,
// directly-Marshal-able shape rather than firefly-signer's section/root-key
// registry, because this module has no HTTP surface to register routes for.
type Config struct {
	Glaciers     GlaciersSection     `toml:"glaciers"`
	Main         MainSection         `toml:"main"`
	ABIReader    ABIReaderSection    `toml:"abi_reader"`
	Decoder      DecoderSection      `toml:"decoder"`
	LogDecoder   LogDecoderSection   `toml:"log_decoder"`
	TraceDecoder TraceDecoderSection `toml:"trace_decoder"`
}

// Default returns the configuration defaults, with path defaults following
// the conventional layout used by the Python reference tooling's default
// config tests.
func Default() *Config {
	return &Config{
		Glaciers: GlaciersSection{PreferredDataframeType: Polars, UnnestingHexStringEncoding: false},
		Main: MainSection{
			EventsABIDBFilePath:    "ABIs/ethereum__events__abis.csv",
			FunctionsABIDBFilePath: "ABIs/ethereum__functions__abis.csv",
			ABIFolderPath:          "ABIs/abi_database",
			RawLogsFolderPath:      "data/logs",
			RawTracesFolderPath:    "data/traces",
		},
		ABIReader: ABIReaderSection{
			ABIReadMode: catalog.ReadBoth,
			UniqueKey:   []catalog.UniqueKeyField{catalog.KeyHash, catalog.KeyFullSignature, catalog.KeyAddress},
		},
		Decoder: DecoderSection{
			Algorithm:                  decoder.AlgorithmHash,
			OutputFileFormat:           FormatCSV,
			MaxConcurrentFilesDecoding: 16,
			MaxChunkThreadsPerFile:     16,
			DecodedChunkSize:           pipeline.DefaultChunkSize,
		},
		LogDecoder:   LogDecoderSection{LogSchema: pipeline.DefaultLogSchema()},
		TraceDecoder: TraceDecoderSection{TraceSchema: pipeline.DefaultTraceSchema()},
	}
}

var (
	mu  sync.RWMutex
	cfg = Default()
)

// Reset restores the package-level singleton to its defaults, called once
// at CLI startup before a TOML file (if any) is overlaid.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cfg = Default()
}

// GetConfig returns a snapshot struct copy of the current configuration -
// safe for a caller to read without holding the package lock.
func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return *cfg
}

// GetConfigTOML returns the current configuration's TOML-serialized form,
// mirroring the `get_config` accessor exposed by the Python reference
// tooling this decoder is compatible with.
func GetConfigTOML(ctx context.Context) (string, error) {
	mu.RLock()
	snapshot := *cfg
	mu.RUnlock()
	b, err := toml.Marshal(snapshot)
	if err != nil {
		return "", i18n.NewError(ctx, decodermsgs.MsgConfigMarshalFailed, err)
	}
	return string(b), nil
}

// SetConfigTOML overlays a TOML file on top of the current configuration:
// fields absent from the file keep their current value (go-toml's
// Unmarshal-into-existing-struct merge semantics), matching the DESIGN
// NOTE's "process-wide configuration... behind a lock" requirement. On
// parse failure, the singleton is left untouched (§7: configuration errors
// never mutate state). The dataframe type, read mode and algorithm values
// read from the file are case-normalized with normalizeEnum.
func SetConfigTOML(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgConfigLoadFailed, path, err)
	}
	mu.Lock()
	defer mu.Unlock()
	next := *cfg
	if err := toml.Unmarshal(raw, &next); err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgConfigLoadFailed, path, err)
	}
	next.Glaciers.PreferredDataframeType = DataframeType(normalizeEnum(string(next.Glaciers.PreferredDataframeType)))
	next.ABIReader.ABIReadMode = catalog.ReadMode(normalizeEnum(string(next.ABIReader.ABIReadMode)))
	next.Decoder.Algorithm = decoder.Algorithm(normalizeEnum(string(next.Decoder.Algorithm)))
	cfg = &next
	return nil
}

// WithConfig runs fn with the singleton temporarily replaced by override,
// restoring the prior configuration afterward regardless of how fn returns -
// the DESIGN NOTE's "tests that mutate it must restore it" requirement,
// implemented once here rather than by every test.
func WithConfig(override *Config, fn func()) {
	mu.Lock()
	prior := cfg
	cfg = override
	mu.Unlock()
	defer func() {
		mu.Lock()
		cfg = prior
		mu.Unlock()
	}()
	fn()
}

// normalizeEnum implements §6's "Enum values are case-normalized" rule,
// e.g. `"hash_address"` -> `HashAddress`, `"pandas"` -> `Pandas`. viper is
// used here (rather than a hand-written case-fold) because it is already
// the module's TOML-adjacent config dependency; SetConfig in setconfig.go
// calls this for the dataframe type, read mode, algorithm and schema
// datatype keys (output_file_format and unique_key are lower-cased
// instead), and SetConfigTOML for the first three.
func normalizeEnum(raw string) string {
	v := viper.New()
	v.Set("x", raw)
	s := v.GetString("x")
	if s == "" {
		return raw
	}
	out := make([]byte, 0, len(s))
	upperNext := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || c == '-' {
			upperNext = true
			continue
		}
		if upperNext && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upperNext = false
		out = append(out, c)
	}
	return string(out)
}
