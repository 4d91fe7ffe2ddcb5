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

// Package signermsgs holds the ABI codec error catalog: the messages
// raised while parsing ABI type strings and encoding/decoding ABI bytes.
// Pipeline/catalog/matcher/orchestrator messages live in internal/decodermsgs.
package signermsgs

import "github.com/hyperledger/firefly-common/pkg/i18n"

var ffe = i18n.FFE

//revive:disable
var (
	MsgNotEnoughtBytesABISignature = ffe("FF22012", "Not enough bytes to read ABI function selector / event topic0")
	MsgIncorrectABISignatureID     = ffe("FF22013", "Signature for '%s' is '%s' - does not match supplied '%s'")
	MsgBadABITypeComponent         = ffe("FF22014", "Bad ABI type component: %v")
	MsgNotEnoughBytesABIValue      = ffe("FF22015", "Not enough bytes to decode value of type '%v' (%s)")
	MsgNotEnoughBytesABIArrayCount = ffe("FF22016", "Not enough bytes to decode length of dynamic type (%s)")
	MsgABIArrayCountTooLarge       = ffe("FF22017", "Length of dynamic type is too large to read into memory (%s=%s)")
	MsgWrongTypeComponentABIEncode = ffe("FF22018", "Expected type '%s' for '%v' (%s)")
	MsgInsufficientDataABIEncode   = ffe("FF22019", "Expected at least %d bytes to encode (got %d) (%s)")
	MsgNumberTooLargeABIEncode     = ffe("FF22020", "Number does not fit into %d bits (%s)")
	MsgUnknownABIElementaryType    = ffe("FF22021", "Unknown elementary type '%v' (%s)")
	MsgUnknownTupleSerializer      = ffe("FF22022", "Unknown tuple serializer mode: %v")
	MsgMustBeSliceABIInput         = ffe("FF22023", "Must supply an array for input type '%s' (%s)")
	MsgInvalidIntegerABIInput      = ffe("FF22024", "Invalid integer value '%s' for input '%v' (%s)")
	MsgInvalidFloatABIInput        = ffe("FF22025", "Invalid float value '%s' for input '%v' (%s)")
	MsgInvalidBoolABIInput         = ffe("FF22026", "Invalid boolean value '%v' for input (%s)")
	MsgInvalidStringABIInput       = ffe("FF22027", "Invalid string value '%v' for input (%s)")
	MsgInvalidHexABIInput          = ffe("FF22028", "Invalid hex value '%v' for input: %s (%s)")
	MsgFixedLengthABIArrayMismatch = ffe("FF22029", "Expected %d entries in fixed-length array/tuple, got %d (%s)")
	MsgTupleABIArrayMismatch       = ffe("FF22030", "Expected %d entries in tuple array, got %d (%s)")
	MsgTupleInABINoName            = ffe("FF22031", "Tuple parameter at index %d has no name, and no default generator supplied (%s)")
	MsgMissingInputKeyABITuple     = ffe("FF22032", "Missing input key '%s' (%s)")
	MsgTupleABINotArrayOrMap       = ffe("FF22033", "Must supply an array, or map, for input to tuple '%s' (%s)")
	MsgBadRegularExpression        = ffe("FF22034", "Invalid regular expression for '%s': %s")
	MsgMissingRegexpCaptureGroup   = ffe("FF22035", "Regular expression '%s' must have a capture group for the address")
	MsgEventTopicCountMismatch     = ffe("FF22036", "Event '%s' declares %d indexed parameters, but only %d non-nil topics were supplied")
	MsgTopic0Mismatch              = ffe("FF22037", "topic0 '%s' does not match event hash '%s' for '%s'")
	MsgInvalidNumberString         = ffe("FF22088", "Invalid integer or float value in number string '%s'")
	MsgInvalidIntPrecisionLoss     = ffe("FF22089", "Number string '%s' cannot be converted to an integer without losing precision")
	MsgInvalidJSONTypeForBigInt    = ffe("FF22091", "JSON value of type '%T' cannot be converted to an integer")
)
