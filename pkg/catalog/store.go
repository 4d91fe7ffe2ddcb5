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
	"encoding/csv"
	"os"
	"strconv"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
)

// catalogColumns is the on-disk column order for the catalog table. The
// columnar dataframe engine itself (Parquet read/write) is out of scope
// (spec §1); CSV is the stdlib-backed stand-in used for every columnar
// round-trip this module owns directly.
var catalogColumns = []string{
	"address", "hash", "full_signature", "name", "anonymous",
	"state_mutability", "id", "num_indexed_args", "num_data_args",
	"num_inputs", "num_outputs", "kind",
}

// Save writes the table to path as a CSV file with the ABI-Item schema of
// §3. Entry (the parsed type tree used for decoding) is not persisted -
// reloaded items carry metadata only, sufficient for the matcher but
// not for re-decoding without re-parsing the source ABI JSON.
func (t *Table) Save(ctx context.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgCatalogStoreWriteFailed, path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(catalogColumns); err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgCatalogStoreWriteFailed, path, err)
	}
	for _, it := range t.Items {
		record := []string{
			it.Address,
			it.Hash,
			it.FullSignature,
			it.Name,
			strconv.FormatBool(it.Anonymous),
			it.StateMutability,
			it.ID,
			strconv.Itoa(it.NumIndexedArgs),
			strconv.Itoa(it.NumDataArgs),
			strconv.Itoa(it.NumInputs),
			strconv.Itoa(it.NumOutputs),
			string(it.Kind),
		}
		if err := w.Write(record); err != nil {
			return i18n.NewError(ctx, decodermsgs.MsgCatalogStoreWriteFailed, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return i18n.NewError(ctx, decodermsgs.MsgCatalogStoreWriteFailed, path, err)
	}
	return nil
}

// LoadTable reads back a catalog CSV written by Save. The resulting Items
// have no Entry attached (see Save) - callers that need to decode rows
// against a reloaded catalog must re-run ParseFolder against the ABI source
// directory rather than relying on LoadTable alone.
func LoadTable(ctx context.Context, path string, readMode ReadMode, uniqueKey []UniqueKeyField) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, i18n.NewError(ctx, decodermsgs.MsgCatalogStoreReadFailed, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, i18n.NewError(ctx, decodermsgs.MsgCatalogStoreReadFailed, path, err)
	}
	t := NewTable(readMode, uniqueKey)
	if len(rows) == 0 {
		return t, nil
	}
	for _, row := range rows[1:] { // skip header
		if len(row) != len(catalogColumns) {
			return nil, i18n.NewError(ctx, decodermsgs.MsgCatalogStoreReadFailed, path, "column count mismatch")
		}
		anon, _ := strconv.ParseBool(row[4])
		numIndexed, _ := strconv.Atoi(row[7])
		numData, _ := strconv.Atoi(row[8])
		numInputs, _ := strconv.Atoi(row[9])
		numOutputs, _ := strconv.Atoi(row[10])
		it := &Item{
			Address:         row[0],
			Hash:            row[1],
			FullSignature:   row[2],
			Name:            row[3],
			Anonymous:       anon,
			StateMutability: row[5],
			ID:              row[6],
			NumIndexedArgs:  numIndexed,
			NumDataArgs:     numData,
			NumInputs:       numInputs,
			NumOutputs:      numOutputs,
			Kind:            Kind(row[11]),
		}
		if !t.includeKind(it.Kind) {
			continue
		}
		t.Items = append(t.Items, it)
	}
	return t, nil
}
