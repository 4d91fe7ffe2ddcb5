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

package orchestrator

import (
	"context"

	"github.com/kaleido-io/glaciers/pkg/catalog"
	"github.com/kaleido-io/glaciers/pkg/pipeline"
	"github.com/kaleido-io/glaciers/pkg/registry"
)

// DecodeSingleContract implements spec §4.6's shortcutting path
// (`decode_df_using_single_contract`): fetch the ABI for address from the
// registry, build a one-contract catalog, and run the pipeline against a
// single raw file with that catalog. There is no folder enumeration and no
// concurrency bound here - by definition there is exactly one contract and
// one file in flight.
func DecodeSingleContract(ctx context.Context, kind Kind, client *registry.Client, inputPath, outputPath, address string, readMode catalog.ReadMode, uniqueKey []catalog.UniqueKeyField, opts pipeline.Options) (int, error) {
	if err := kind.validate(ctx); err != nil {
		return 0, err
	}
	raw, err := client.FetchABI(ctx, address)
	if err != nil {
		return 0, err
	}

	table := catalog.NewTable(readMode, uniqueKey)
	items, err := table.ParseJSON(ctx, address, raw)
	if err != nil {
		return 0, err
	}
	table.Merge(items)

	return decodeOneFile(ctx, kind, inputPath, outputPath, table, opts)
}
