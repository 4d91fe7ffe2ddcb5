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
	"fmt"
	"math/big"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/glaciers/internal/signermsgs"
)

// EncodeABIData walks a ComponentValue tree (as built by ParseJSON/
// ParseExternalData, or by hand) and serializes it into ABI encoded bytes,
// mirroring the head/tail layout decodeABIElement reads back. It is the
// encode-side counterpart of ParameterArray.DecodeABIData.
func (cv *ComponentValue) EncodeABIData() ([]byte, error) {
	return cv.EncodeABIDataCtx(context.Background())
}

func (cv *ComponentValue) EncodeABIDataCtx(ctx context.Context) ([]byte, error) {
	tc, ok := cv.Component.(*typeComponent)
	if !ok || tc == nil {
		return nil, i18n.NewError(ctx, signermsgs.MsgBadABITypeComponent, cv.Component)
	}
	width := staticHeadWidth(tc)
	head := make([]byte, width)
	var tails []tailEntry
	if err := encodeComponentInto(ctx, "", tc, cv, head, 0, &tails); err != nil {
		return nil, err
	}
	return appendTails(head, tails), nil
}

// JSON serializes a decoded ComponentValue tree back to JSON, using a
// default Serializer (object-keyed tuples, base-10 numbers, hex bytes). For
// control over formatting, build a Serializer directly and call its
// SerializeJSON method instead.
func (cv *ComponentValue) JSON() ([]byte, error) {
	return cv.JSONCtx(context.Background())
}

func (cv *ComponentValue) JSONCtx(ctx context.Context) ([]byte, error) {
	return NewSerializer().SerializeJSONCtx(ctx, cv)
}

// tailEntry records a dynamic value discovered while walking the head, along
// with the byte position of the 32-byte offset word that points to it. Tails
// are appended (in encounter order) once the full head width is known, and
// the recorded offset words are patched with their final positions.
type tailEntry struct {
	headPos int
	content []byte
}

// staticHeadWidth is the number of bytes a component occupies inline in its
// enclosing head - 32 for every elementary value and for a dynamic array's
// own offset pointer, and the sum/product of the children's widths for
// tuples and fixed arrays (which are always inlined, never given an offset
// of their own - matching the layout decodeABIElement expects).
func staticHeadWidth(tc *typeComponent) int {
	switch tc.cType {
	case FixedArrayComponent:
		return int(tc.arrayLength) * staticHeadWidth(tc.arrayChild)
	case TupleComponent:
		w := 0
		for _, c := range tc.tupleChildren {
			w += staticHeadWidth(c)
		}
		return w
	default: // ElementaryComponent, DynamicArrayComponent
		return 32
	}
}

// encodeComponentInto writes component's contribution to head at the given
// position, recursing through fixed arrays and tuples (which are always
// inlined), and queuing dynamic content (strings, unbounded bytes, dynamic
// arrays) into tails rather than writing it inline.
func encodeComponentInto(ctx context.Context, breadcrumbs string, component *typeComponent, cv *ComponentValue, head []byte, pos int, tails *[]tailEntry) error {
	switch component.cType {
	case ElementaryComponent:
		data, dynamic, err := component.elementaryType.encodeABIData(ctx, breadcrumbs, component, cv.Value)
		if err != nil {
			return err
		}
		if dynamic {
			*tails = append(*tails, tailEntry{headPos: pos, content: data})
			return nil
		}
		copy(head[pos:pos+32], data)
		return nil

	case DynamicArrayComponent:
		content, err := encodeDynamicArrayContent(ctx, breadcrumbs, component, cv)
		if err != nil {
			return err
		}
		*tails = append(*tails, tailEntry{headPos: pos, content: content})
		return nil

	case FixedArrayComponent:
		if len(cv.Children) != int(component.arrayLength) {
			return i18n.NewError(ctx, signermsgs.MsgFixedLengthABIArrayMismatch, component.arrayLength, len(cv.Children), breadcrumbs)
		}
		if component.arrayChild.cType == ElementaryComponent && isDynamicType(component.arrayChild) {
			// A fixed-length array of a dynamic elementary type (e.g. string[2])
			// is not supported by the encoder - vanishingly rare in practice,
			// although decodeABIFixedArrayBytes does decode that layout.
			return i18n.NewError(ctx, signermsgs.MsgBadABITypeComponent, component)
		}
		childWidth := staticHeadWidth(component.arrayChild)
		for i, child := range cv.Children {
			childBreadcrumbs := fmt.Sprintf("%s[%d]", breadcrumbs, i)
			if err := encodeComponentInto(ctx, childBreadcrumbs, component.arrayChild, child, head, pos+i*childWidth, tails); err != nil {
				return err
			}
		}
		return nil

	case TupleComponent:
		if len(cv.Children) != len(component.tupleChildren) {
			return i18n.NewError(ctx, signermsgs.MsgTupleABIArrayMismatch, len(component.tupleChildren), len(cv.Children), breadcrumbs)
		}
		offset := pos
		for i, childComponent := range component.tupleChildren {
			name := childComponent.keyName
			if name == "" {
				name = fmt.Sprintf("%d", i)
			}
			childBreadcrumbs := fmt.Sprintf("%s.%s", breadcrumbs, name)
			if err := encodeComponentInto(ctx, childBreadcrumbs, childComponent, cv.Children[i], head, offset, tails); err != nil {
				return err
			}
			offset += staticHeadWidth(childComponent)
		}
		return nil

	default:
		return i18n.NewError(ctx, signermsgs.MsgBadABITypeComponent, component.cType)
	}
}

// encodeDynamicArrayContent builds the length-prefixed content block for a
// dynamic array: a uint256 element count, followed by the arrayLength-style
// head/tail layout for its elements - offsets for any dynamic elements are
// relative to the start of this content block (after the length word),
// matching decodeABIDynamicArrayBytes's dataStart.
func encodeDynamicArrayContent(ctx context.Context, breadcrumbs string, component *typeComponent, cv *ComponentValue) ([]byte, error) {
	n := len(cv.Children)
	childWidth := staticHeadWidth(component.arrayChild)
	head := make([]byte, childWidth*n)
	var tails []tailEntry
	for i, child := range cv.Children {
		childBreadcrumbs := fmt.Sprintf("%s[%d]", breadcrumbs, i)
		if err := encodeComponentInto(ctx, childBreadcrumbs, component.arrayChild, child, head, i*childWidth, &tails); err != nil {
			return nil, err
		}
	}
	lengthWord := make([]byte, 32)
	new(big.Int).SetInt64(int64(n)).FillBytes(lengthWord)

	result := make([]byte, 0, 32+len(appendTails(head, tails)))
	result = append(result, lengthWord...)
	result = append(result, appendTails(head, tails)...)
	return result, nil
}

// appendTails patches each tail's recorded offset word into head (relative
// to the start of head), then appends the tail content after it, in the
// order the tails were discovered.
func appendTails(head []byte, tails []tailEntry) []byte {
	tailBuf := make([]byte, 0)
	for _, t := range tails {
		offsetWord := make([]byte, 32)
		new(big.Int).SetInt64(int64(len(head) + len(tailBuf))).FillBytes(offsetWord)
		copy(head[t.headPos:t.headPos+32], offsetWord)
		tailBuf = append(tailBuf, t.content...)
	}
	result := make([]byte, 0, len(head)+len(tailBuf))
	result = append(result, head...)
	result = append(result, tailBuf...)
	return result
}
