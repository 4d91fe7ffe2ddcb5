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
	"encoding/json"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// abiEntrySchema is the structural shape every element of an ABI JSON array
// must satisfy before we hand it to the Solidity type parser - catching
// truncated/malformed files with a precise error rather than a panic deep in
// abi.Entry unmarshalling.
var abiEntrySchema = jsonschema.MustCompileString("abiEntry.json", `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["type"],
		"properties": {
			"type": {
				"type": "string",
				"enum": ["function", "constructor", "receive", "fallback", "event", "error"]
			},
			"name": { "type": "string" },
			"anonymous": { "type": "boolean" },
			"stateMutability": { "type": "string" },
			"inputs": { "$ref": "#/$defs/params" },
			"outputs": { "$ref": "#/$defs/params" }
		}
	},
	"$defs": {
		"params": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["type"],
				"properties": {
					"name": { "type": "string" },
					"type": { "type": "string" },
					"internalType": { "type": "string" },
					"indexed": { "type": "boolean" },
					"components": { "$ref": "#/$defs/params" }
				}
			}
		}
	}
}`)

// validateEntryArray structurally validates a raw ABI JSON array (decoded to
// generic `interface{}` so the schema can see field presence/types before any
// Solidity-type-specific parsing happens) and returns a wrapped
// MsgCatalogInvalidJSON on the first violation.
func validateEntryArray(ctx context.Context, path string, raw []byte) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgCatalogInvalidJSON, path, err)
	}
	if err := abiEntrySchema.Validate(doc); err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgCatalogInvalidJSON, path, err)
	}
	return nil
}
