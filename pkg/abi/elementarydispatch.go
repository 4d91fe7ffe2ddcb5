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

package abi

import (
	"context"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/glaciers/internal/signermsgs"
)

// decodeABIData dispatches decoding of the head/tail encoded bytes for a
// single elementary value to the concrete type-specific decoder, picking the
// Go representation that outputserialization.go knows how to render: a
// *big.Int for int/uint/address/bool, a *big.Float for fixed/ufixed, a []byte
// for bytes/function, and a string for string.
func (et *elementaryTypeInfo) decodeABIData(ctx context.Context, desc string, block []byte, headStart, headPosition int, component *typeComponent) (cv *ComponentValue, err error) {
	switch et.name {
	case "int":
		return decodeABISignedInt(ctx, desc, block, headStart, headPosition, component)
	case "uint", "address", "bool":
		return decodeABIUnsignedInt(ctx, desc, block, headStart, headPosition, component)
	case "fixed":
		return decodeABISignedFloat(ctx, desc, block, headStart, headPosition, component)
	case "ufixed":
		return decodeABIUnsignedFloat(ctx, desc, block, headStart, headPosition, component)
	case "bytes", "function":
		return decodeABIBytes(ctx, desc, block, headStart, headPosition, component)
	case "string":
		return decodeABIString(ctx, desc, block, headStart, headPosition, component)
	default:
		return nil, i18n.NewError(ctx, signermsgs.MsgUnknownABIElementaryType, et, desc)
	}
}

// encodeABIData is the encode-side counterpart of decodeABIData, taking the
// same Go representations readInput produces and turning them back into ABI
// bytes. The dynamic return mirrors the elementary type's own dynamism (true
// only for unbounded bytes/string) - composite dynamism (arrays, tuples
// containing a dynamic field) is handled one level up by the component-tree
// walker in abiencode_tree.go.
func (et *elementaryTypeInfo) encodeABIData(ctx context.Context, desc string, tc *typeComponent, value interface{}) (data []byte, dynamic bool, err error) {
	switch et.name {
	case "int":
		return abiEncodeSignedInteger(ctx, desc, tc, value)
	case "uint":
		return abiEncodeUnsignedInteger(ctx, desc, tc, value)
	case "address":
		return abiEncodeAddress(ctx, desc, tc, value)
	case "bool":
		return abiEncodeBool(ctx, desc, tc, value)
	case "fixed":
		return abiEncodeSignedFixed(ctx, desc, tc, value)
	case "ufixed":
		return abiEncodeUnsignedFixed(ctx, desc, tc, value)
	case "bytes", "function":
		return abiEncodeBytes(ctx, desc, tc, value)
	case "string":
		return abiEncodeString(ctx, desc, tc, value)
	default:
		return nil, false, i18n.NewError(ctx, signermsgs.MsgUnknownABIElementaryType, et, desc)
	}
}

// readInput coerces external (JSON-unmarshalled, or directly supplied Go)
// input values into the canonical Go representation used throughout this
// package for each elementary type - the same representation decodeABIData
// produces, so a value tree built via readInput can be fed straight into
// EncodeABIData without any further conversion.
func (et *elementaryTypeInfo) readInput(ctx context.Context, breadcrumbs string, input interface{}) (interface{}, error) {
	switch et.name {
	case "int":
		return getIntegerFromInterface(ctx, breadcrumbs, input)
	case "uint", "address":
		i, err := getIntegerFromInterface(ctx, breadcrumbs, input)
		if err != nil {
			return nil, err
		}
		if i.Sign() < 0 {
			return nil, i18n.NewError(ctx, signermsgs.MsgInvalidIntegerABIInput, i.String(), input, breadcrumbs)
		}
		return i, nil
	case "bool":
		b, err := getBoolFromInterface(ctx, breadcrumbs, input)
		if err != nil {
			return nil, err
		}
		i := int64(0)
		if b {
			i = 1
		}
		return getIntegerFromInterface(ctx, breadcrumbs, i)
	case "fixed":
		return getFloatFromInterface(ctx, breadcrumbs, input)
	case "ufixed":
		f, err := getFloatFromInterface(ctx, breadcrumbs, input)
		if err != nil {
			return nil, err
		}
		if f.Sign() < 0 {
			return nil, i18n.NewError(ctx, signermsgs.MsgInvalidFloatABIInput, f.String(), input, breadcrumbs)
		}
		return f, nil
	case "bytes", "function":
		return getBytesFromInterface(ctx, breadcrumbs, input)
	case "string":
		return getStringFromInterface(ctx, breadcrumbs, input)
	default:
		return nil, i18n.NewError(ctx, signermsgs.MsgUnknownABIElementaryType, et, breadcrumbs)
	}
}
