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
	"os"
	"path/filepath"
	"testing"

	"github.com/kaleido-io/glaciers/pkg/catalog"
	"github.com/kaleido-io/glaciers/pkg/decoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	WithConfig(Default(), func() {
		c := GetConfig()
		assert.Equal(t, Polars, c.Glaciers.PreferredDataframeType)
		assert.False(t, c.Glaciers.UnnestingHexStringEncoding)
		assert.Equal(t, catalog.ReadBoth, c.ABIReader.ABIReadMode)
		assert.Equal(t, []catalog.UniqueKeyField{catalog.KeyHash, catalog.KeyFullSignature, catalog.KeyAddress}, c.ABIReader.UniqueKey)
		assert.Equal(t, decoder.AlgorithmHash, c.Decoder.Algorithm)
		assert.Equal(t, FormatCSV, c.Decoder.OutputFileFormat)
	})
}

func TestSetConfigTOMLOverlayKeepsAbsentFields(t *testing.T) {
	WithConfig(Default(), func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "cfg.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[glaciers]
preferred_dataframe_type = "pandas"
unnesting_hex_string_encoding = true

[decoder]
algorithm = "hash_address"
max_concurrent_files_decoding = 8
`), 0644))

		require.NoError(t, SetConfigTOML(ctx, path))
		c := GetConfig()
		assert.Equal(t, Pandas, c.Glaciers.PreferredDataframeType)
		assert.True(t, c.Glaciers.UnnestingHexStringEncoding)
		assert.Equal(t, decoder.AlgorithmHashAddress, c.Decoder.Algorithm)
		assert.Equal(t, 8, c.Decoder.MaxConcurrentFilesDecoding)
		// absent fields keep their prior (default) values
		assert.Equal(t, FormatCSV, c.Decoder.OutputFileFormat)
		assert.Equal(t, catalog.ReadBoth, c.ABIReader.ABIReadMode)
	})
}

func TestSetConfigTOMLParseFailureLeavesStateUntouched(t *testing.T) {
	WithConfig(Default(), func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("not [ valid toml"), 0644))

		before := GetConfig()
		err := SetConfigTOML(ctx, path)
		assert.Error(t, err)
		after := GetConfig()
		assert.Equal(t, before, after)
	})
}

func TestSetConfigMissingFileFails(t *testing.T) {
	WithConfig(Default(), func() {
		ctx := context.Background()
		err := SetConfigTOML(ctx, filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})
}

func TestSetConfigEnumCaseNormalization(t *testing.T) {
	WithConfig(Default(), func() {
		ctx := context.Background()
		require.NoError(t, SetConfig(ctx, "glaciers.preferred_dataframe_type", "pandas"))
		assert.Equal(t, Pandas, GetConfig().Glaciers.PreferredDataframeType)

		require.NoError(t, SetConfig(ctx, "decoder.algorithm", "hash_address"))
		assert.Equal(t, decoder.AlgorithmHashAddress, GetConfig().Decoder.Algorithm)

		require.NoError(t, SetConfig(ctx, "abi_reader.abi_read_mode", "functions"))
		assert.Equal(t, catalog.ReadFunctions, GetConfig().ABIReader.ABIReadMode)
	})
}

func TestSetConfigScalarKeys(t *testing.T) {
	WithConfig(Default(), func() {
		ctx := context.Background()
		require.NoError(t, SetConfig(ctx, "main.raw_logs_folder_path", "data/logs"))
		assert.Equal(t, "data/logs", GetConfig().Main.RawLogsFolderPath)

		require.NoError(t, SetConfig(ctx, "decoder.max_chunk_threads_per_file", "1"))
		assert.Equal(t, 1, GetConfig().Decoder.MaxChunkThreadsPerFile)

		require.NoError(t, SetConfig(ctx, "decoder.decoded_chunk_size", "1"))
		assert.Equal(t, 1, GetConfig().Decoder.DecodedChunkSize)

		require.NoError(t, SetConfig(ctx, "abi_reader.unique_key", "address"))
		assert.Equal(t, []catalog.UniqueKeyField{catalog.KeyAddress}, GetConfig().ABIReader.UniqueKey)
	})
}

func TestSetConfigSchemaDottedKeys(t *testing.T) {
	WithConfig(Default(), func() {
		ctx := context.Background()
		require.NoError(t, SetConfig(ctx, "log_decoder.log_schema.log_alias.topic0", "t0"))
		assert.Equal(t, "t0", GetConfig().LogDecoder.LogSchema.Alias["topic0"])

		require.NoError(t, SetConfig(ctx, "log_decoder.log_schema.log_datatype.topic0", "Binary"))
		assert.Equal(t, Binary, GetConfig().LogDecoder.LogSchema.Datatype["topic0"])

		require.NoError(t, SetConfig(ctx, "trace_decoder.trace_schema.trace_alias.selector", "4bytes"))
		assert.Equal(t, "4bytes", GetConfig().TraceDecoder.TraceSchema.Alias["selector"])
	})
}

func TestSetConfigInvalidValueRejectedWithoutMutation(t *testing.T) {
	WithConfig(Default(), func() {
		ctx := context.Background()
		before := GetConfig()

		err := SetConfig(ctx, "decoder.max_concurrent_files_decoding", "invalid")
		assert.Error(t, err)

		err = SetConfig(ctx, "glaciers.preferred_dataframe_type", "invalid")
		assert.Error(t, err)

		err = SetConfig(ctx, "unknown.key", "x")
		assert.Error(t, err)

		assert.Equal(t, before, GetConfig())
	})
}

func TestGetConfigTOMLRoundTrips(t *testing.T) {
	WithConfig(Default(), func() {
		ctx := context.Background()
		s, err := GetConfigTOML(ctx)
		require.NoError(t, err)
		assert.Contains(t, s, "preferred_dataframe_type")
		assert.Contains(t, s, "algorithm")
	})
}

func TestWithConfigRestoresPriorOnPanic(t *testing.T) {
	before := GetConfig()
	func() {
		defer func() { recover() }()
		WithConfig(Default(), func() {
			_ = SetConfig(context.Background(), "main.abi_folder_path", "/tmp/abis")
			panic("boom")
		})
	}()
	assert.Equal(t, before, GetConfig())
}
