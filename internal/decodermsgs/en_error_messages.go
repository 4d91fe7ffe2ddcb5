// Copyright © 2022 Kaleido, Inc.
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

// Package decodermsgs holds the catalog/matcher/pipeline/orchestrator/config
// error catalog. ABI codec messages stay in internal/signermsgs; this
// catalog uses a disjoint FF23xxx range so the two never collide.
package decodermsgs

import "github.com/hyperledger/firefly-common/pkg/i18n"

var ffe = i18n.FFE

//revive:disable
var (
	// Row-level decode outcomes (decode error taxonomy)
	MsgMalformedPayload  = ffe("FF23001", "Malformed payload decoding '%s' (%s)")
	MsgLengthMismatch    = ffe("FF23002", "Length mismatch decoding '%s': %s")
	MsgOffsetOutOfBounds = ffe("FF23003", "Offset out of bounds decoding '%s' (%s)")
	MsgIntegerOverflow   = ffe("FF23004", "Integer overflow decoding '%s' (%s)")
	MsgEmptyOutput       = ffe("FF23005", "Function '%s' declares outputs but result_output was empty")
	MsgNoMatch           = ffe("FF23006", "No ABI catalog entry matched hash '%s'")

	// Catalog errors
	MsgCatalogInvalidJSON      = ffe("FF23010", "Invalid ABI JSON in '%s': %s")
	MsgCatalogUnknownType      = ffe("FF23011", "Unknown Solidity type for entry '%s' in '%s': %s")
	MsgCatalogFileUnreadable   = ffe("FF23012", "Could not read ABI file '%s': %s")
	MsgCatalogBadAddressName   = ffe("FF23013", "ABI file name '%s' is not a valid '0x<40 hex>.json' address file")
	MsgCatalogUnknownKeyField  = ffe("FF23014", "Unknown unique-key field '%s' (expected hash, full_signature or address)")
	MsgCatalogStoreWriteFailed = ffe("FF23015", "Failed to write catalog to '%s': %s")
	MsgCatalogStoreReadFailed  = ffe("FF23016", "Failed to read catalog from '%s': %s")

	// Pipeline errors
	MsgSchemaMissingAlias  = ffe("FF23020", "Raw row schema is missing a required column '%s' (aliased from '%s')")
	MsgCastFailure         = ffe("FF23021", "Failed to cast column '%s' to %s: %s")
	MsgInvalidChunkSize    = ffe("FF23022", "decoded_chunk_size must be >= 1, got %d")
	MsgInvalidThreadCount  = ffe("FF23023", "max_chunk_threads_per_file must be >= 1, got %d")
	MsgPipelineReadFailed  = ffe("FF23024", "Failed to read raw rows from '%s': %s")
	MsgPipelineWriteFailed = ffe("FF23025", "Failed to write decoded rows to '%s': %s")

	// Orchestrator errors
	MsgOrchestratorIOFailure   = ffe("FF23030", "I/O error processing '%s': %s")
	MsgInvalidConcurrencyLimit = ffe("FF23031", "max_concurrent_files_decoding must be >= 1, got %d")
	MsgRegistryFetchFailed     = ffe("FF23032", "Failed to fetch ABI for address '%s' from registry: %s")
	MsgUnsupportedOutputFormat = ffe("FF23033", "Unsupported output_file_format '%s' (expected parquet or csv)")
	MsgUnknownFileKind         = ffe("FF23034", "Unknown file kind '%s' (expected logs or traces)")

	// Configuration errors
	MsgConfigUnknownKey       = ffe("FF23040", "Unknown configuration key '%s'")
	MsgConfigInvalidValue     = ffe("FF23041", "Invalid value '%s' for configuration key '%s': expected one of %v")
	MsgConfigLoadFailed       = ffe("FF23042", "Failed to load configuration from '%s': %s")
	MsgConfigMarshalFailed    = ffe("FF23043", "Failed to marshal configuration: %s")
	MsgConfigInvalidUniqueKey = ffe("FF23044", "unique_key must be a non-empty subset of {hash, full_signature, address}")
)
