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

package decoder

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
	"github.com/kaleido-io/glaciers/pkg/abi"
	"github.com/kaleido-io/glaciers/pkg/ethtypes"
)

// jsonStringOf renders a nested array/tuple value (already built from
// stringified leaves) as its JSON text, for the flat *_values string array -
// only composite-typed top-level parameters take this path.
func jsonStringOf(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Field is one decoded parameter of a row: its declared name, position,
// canonical Solidity type (suffixed `_hash` for an indexed-and-hashed log
// parameter), and stringified value - the §4.4 "output field naming" shape,
// one entry of a row's event_json/input_json/output_json array.
type Field struct {
	Name      string      `json:"name"`
	Index     int         `json:"index"`
	ValueType string      `json:"value_type"`
	Value     interface{} `json:"value"`
}

// stringifyValue renders a decoded ComponentValue per §4.1's value
// stringification rules: integers to base-10 strings, bool to "true"/
// "false", address/bytes to 0x-prefixed hex (address checksummed), string
// verbatim, and arrays/tuples to nested JSON-shaped Go values built from the
// same rules recursively.
func stringifyValue(ctx context.Context, cv *abi.ComponentValue) (interface{}, error) {
	switch cv.Component.ComponentType() {
	case abi.ElementaryComponent:
		return stringifyElementary(ctx, cv)
	case abi.FixedArrayComponent, abi.DynamicArrayComponent:
		out := make([]interface{}, len(cv.Children))
		for i, child := range cv.Children {
			v, err := stringifyValue(ctx, child)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case abi.TupleComponent:
		out := make([]interface{}, len(cv.Children))
		for i, child := range cv.Children {
			v, err := stringifyValue(ctx, child)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, i18n.NewError(ctx, decodermsgs.MsgMalformedPayload, "value", "unknown component type")
	}
}

func stringifyElementary(ctx context.Context, cv *abi.ComponentValue) (interface{}, error) {
	switch cv.Component.ElementaryType() {
	case abi.ElementaryTypeInt, abi.ElementaryTypeUint:
		return cv.Value.(*big.Int).String(), nil
	case abi.ElementaryTypeAddress:
		addr := make([]byte, 20)
		cv.Value.(*big.Int).FillBytes(addr)
		return ethtypes.AddressWithChecksum(addr).String(), nil
	case abi.ElementaryTypeBool:
		return cv.Value.(*big.Int).Int64() == 1, nil
	case abi.ElementaryTypeFixed, abi.ElementaryTypeUfixed:
		return cv.Value.(*big.Float).Text('f', -1), nil
	case abi.ElementaryTypeBytes, abi.ElementaryTypeFunction:
		return "0x" + hex.EncodeToString(cv.Value.([]byte)), nil
	case abi.ElementaryTypeString:
		return cv.Value.(string), nil
	default:
		return nil, i18n.NewError(ctx, decodermsgs.MsgMalformedPayload, "value", "unsupported elementary type")
	}
}

// boolString renders the literal "true"/"false" string form, used for
// the flat event_values/input_values/output_values string arrays rather than
// the native bool stringifyValue returns for nested JSON.
func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// flatten produces the flat (keys, values, json) triple for one parameter
// list's decoded ComponentValue tree, applying §4.1's rules at the top level
// and stringifying nested composites recursively.
//
// valueTypeSuffix, when non-nil, returns a `_hash` (or empty) suffix per
// parameter for the indexed-and-hashed log case; when it reports a hash, the
// child's Value is the raw 32-byte topic rather than a value of the
// declared type (see abi.decodeIndexedTopicCtx), so it is rendered as a hex
// string directly instead of going through the declared type's stringifier.
func flatten(ctx context.Context, params abi.ParameterArray, cv *abi.ComponentValue, valueTypeSuffix func(i int) string) (keys []string, values []string, fields []Field, err error) {
	keys = make([]string, len(params))
	values = make([]string, len(params))
	fields = make([]Field, len(params))
	for i, p := range params {
		child := cv.Children[i]
		vt := child.Component.String()
		hashed := false
		if valueTypeSuffix != nil {
			if s := valueTypeSuffix(i); s != "" {
				vt += s
				hashed = true
			}
		}

		var v interface{}
		if hashed {
			v = "0x" + hex.EncodeToString(child.Value.([]byte))
		} else {
			v, err = stringifyValue(ctx, child)
			if err != nil {
				return nil, nil, nil, err
			}
		}

		keys[i] = p.Name
		switch tv := v.(type) {
		case string:
			values[i] = tv
		case bool:
			values[i] = boolString(tv)
		default:
			values[i] = jsonStringOf(v)
		}
		fields[i] = Field{Name: p.Name, Index: i, ValueType: vt, Value: v}
	}
	return keys, values, fields, nil
}
