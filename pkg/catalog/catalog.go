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

// Package catalog implements the ABI Catalog: parsing ABI JSON arrays
// into normalized Items, merging them into a deduplicated catalog Table, and
// persisting/reloading that table as a columnar file.
//
// The directory-scan and per-file-error-is-non-fatal shape mirrors a
// filesystem-watched key store's folder-scan loop, adapted from loading
// signing keys to loading contract ABIs.
package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
	"github.com/kaleido-io/glaciers/pkg/abi"
)

// ReadMode filters which entry kinds parse_file/parse_json/parse_folder keep.
type ReadMode string

const (
	ReadEvents    ReadMode = "Events"
	ReadFunctions ReadMode = "Functions"
	ReadBoth      ReadMode = "Both"
)

// UniqueKeyField names one of the three columns a catalog's dedup key may be
// built from.
type UniqueKeyField string

const (
	KeyHash          UniqueKeyField = "hash"
	KeyFullSignature UniqueKeyField = "full_signature"
	KeyAddress       UniqueKeyField = "address"
)

// addressFileRE matches the `0x<40 hex>.json` naming convention ABI files in
// a catalog folder are expected to follow - the file's stem is the contract
// address the entries inside belong to.
var addressFileRE = regexp.MustCompile(`^(0x[0-9a-fA-F]{40})\.json$`)

// Table is an ordered, deduplicated collection of catalog Items - the
// in-memory form of the catalog columnar file described in spec §3.
type Table struct {
	Items    []*Item
	ReadMode ReadMode
	// UniqueKey is the configured subset of {hash, full_signature, address}
	// used to decide whether two items are the "same" entry on merge/update.
	UniqueKey []UniqueKeyField
}

// NewTable constructs an empty catalog with the given read mode and unique
// key. An empty UniqueKey defaults to the full {hash, full_signature,
// address} tuple per §6's `[abi_reader] unique_key` default.
func NewTable(readMode ReadMode, uniqueKey []UniqueKeyField) *Table {
	if len(uniqueKey) == 0 {
		uniqueKey = []UniqueKeyField{KeyHash, KeyFullSignature, KeyAddress}
	}
	return &Table{ReadMode: readMode, UniqueKey: uniqueKey}
}

func (t *Table) keyOf(it *Item) string {
	parts := make([]string, len(t.UniqueKey))
	for i, f := range t.UniqueKey {
		switch f {
		case KeyHash:
			parts[i] = it.Hash
		case KeyFullSignature:
			parts[i] = it.FullSignature
		case KeyAddress:
			parts[i] = it.Address
		}
	}
	return strings.Join(parts, "\x00")
}

func (t *Table) includeKind(k Kind) bool {
	switch t.ReadMode {
	case ReadEvents:
		return k == KindEvent
	case ReadFunctions:
		return k == KindFunction
	default:
		return true
	}
}

// ParseJSON parses one inline ABI JSON array belonging to the given contract
// address, returning one Item per event/function entry the table's ReadMode
// keeps. An entry whose Solidity type cannot be parsed is skipped with a
// logged warning rather than failing the whole array - §4.2's "unknown
// Solidity types as a parse error for that entry only".
func (t *Table) ParseJSON(ctx context.Context, address string, raw []byte) ([]*Item, error) {
	if err := validateEntryArray(ctx, address, raw); err != nil {
		return nil, err
	}

	var entries abi.ABI
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, i18n.NewError(ctx, decodermsgs.MsgCatalogInvalidJSON, address, err)
	}

	items := make([]*Item, 0, len(entries))
	for _, e := range entries {
		var kind Kind
		switch e.Type {
		case abi.Event:
			kind = KindEvent
		case abi.Function:
			kind = KindFunction
		default:
			continue // constructor/fallback/receive/error: not a dispatchable item
		}
		if !t.includeKind(kind) {
			continue
		}
		if err := e.ValidateCtx(ctx); err != nil {
			log.L(ctx).Warnf("Skipping ABI entry '%s' in '%s': %s", e.Name, address, err)
			continue
		}
		item, err := newItem(ctx, address, e)
		if err != nil {
			log.L(ctx).Warnf("Skipping ABI entry '%s' in '%s': %s", e.Name, address, err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// ParseFile reads one `0x<address>.json` ABI file and parses it via ParseJSON,
// deriving the contract address from the file name per §4.2.
func (t *Table) ParseFile(ctx context.Context, path string) ([]*Item, error) {
	m := addressFileRE.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return nil, i18n.NewError(ctx, decodermsgs.MsgCatalogBadAddressName, filepath.Base(path))
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, i18n.NewError(ctx, decodermsgs.MsgCatalogFileUnreadable, path, err)
	}
	return t.ParseJSON(ctx, m[1], raw)
}

// ParseFolder enumerates the regular `*.json` files directly inside dir
// (non-recursive) and runs ParseFile against each, concatenating the
// results. A single bad file is logged and skipped; the folder scan as a
// whole never fails because of it.
func (t *Table) ParseFolder(ctx context.Context, dir string) ([]*Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, i18n.NewError(ctx, decodermsgs.MsgCatalogFileUnreadable, dir, err)
	}
	var all []*Item
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		items, err := t.ParseFile(ctx, filepath.Join(dir, de.Name()))
		if err != nil {
			log.L(ctx).Warnf("Skipping ABI file '%s': %s", de.Name(), err)
			continue
		}
		all = append(all, items...)
	}
	return all, nil
}

// Merge appends items not already present under the table's unique key,
// preserving the earliest occurrence and original insertion order - §3's
// "Catalog merge" semantics, and law #3's idempotence (merging the same
// folder twice is a no-op the second time).
func (t *Table) Merge(items []*Item) {
	seen := make(map[string]struct{}, len(t.Items))
	for _, it := range t.Items {
		seen[t.keyOf(it)] = struct{}{}
	}
	for _, it := range items {
		k := t.keyOf(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		t.Items = append(t.Items, it)
	}
}

// UpdateCatalog loads the existing catalog at existingPath (if it exists),
// parses every ABI file under dir, merges the two under the table's unique
// key, and writes the result back to existingPath - §4.2's `update_catalog`.
func UpdateCatalog(ctx context.Context, existingPath, dir string, readMode ReadMode, uniqueKey []UniqueKeyField) (*Table, error) {
	t := NewTable(readMode, uniqueKey)
	if _, err := os.Stat(existingPath); err == nil {
		existing, err := LoadTable(ctx, existingPath, readMode, uniqueKey)
		if err != nil {
			return nil, err
		}
		t.Items = existing.Items
	}
	fresh, err := t.ParseFolder(ctx, dir)
	if err != nil {
		return nil, err
	}
	t.Merge(fresh)
	if err := t.Save(ctx, existingPath); err != nil {
		return nil, err
	}
	return t, nil
}
