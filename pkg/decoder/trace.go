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
	"bytes"
	"context"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
	"github.com/kaleido-io/glaciers/pkg/catalog"
	"github.com/kaleido-io/glaciers/pkg/rawio"
)

// SelectorPrefixMode controls whether DecodeTrace strips a leading 4-byte
// selector from action_input before decoding, per spec §9's "selector-prefix
// heuristic" design note.
type SelectorPrefixMode int

const (
	// SelectorPrefixAuto strips the prefix iff it matches the function's
	// selector - the heuristic described in §4.4 step 1.
	SelectorPrefixAuto SelectorPrefixMode = iota
	SelectorPrefixAlwaysStrip
	SelectorPrefixNeverStrip
)

// DecodeTrace implements §4.4's trace decode algorithm: selector-prefix
// stripping, decoding action_input as the function's input tuple, and
// decoding result_output as its output tuple (with the §7 EmptyOutput soft
// error when outputs are declared but result_output is empty).
func DecodeTrace(ctx context.Context, row *rawio.TraceRow, item *catalog.Item, mode SelectorPrefixMode) (inputKeys, inputValues []string, inputFields []Field, outputKeys, outputValues []string, outputFields []Field, softErr string, err error) {
	if item.Entry == nil {
		return nil, nil, nil, nil, nil, nil, "", i18n.NewError(ctx, decodermsgs.MsgMalformedPayload, item.ID, "catalog item has no parsed ABI entry")
	}

	actionInput := []byte(row.ActionInput)
	strip := false
	switch mode {
	case SelectorPrefixAlwaysStrip:
		strip = len(actionInput) >= 4
	case SelectorPrefixNeverStrip:
		strip = false
	default:
		strip = len(actionInput) >= 4 && bytes.Equal(actionInput[:4], []byte(row.Selector))
	}
	if strip {
		actionInput = actionInput[4:]
	}

	inputCV, err := item.Entry.Inputs.DecodeABIDataCtx(ctx, actionInput, 0)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, "", i18n.WrapError(ctx, err, decodermsgs.MsgMalformedPayload, item.ID, err)
	}
	inputKeys, inputValues, inputFields, err = flatten(ctx, item.Entry.Inputs, inputCV, nil)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, "", err
	}

	if len(item.Entry.Outputs) == 0 {
		return inputKeys, inputValues, inputFields, []string{}, []string{}, []Field{}, "", nil
	}
	if len(row.ResultOutput) == 0 {
		return inputKeys, inputValues, inputFields, []string{}, []string{}, []Field{}, "EmptyOutput", nil
	}

	outputCV, err := item.Entry.Outputs.DecodeABIDataCtx(ctx, []byte(row.ResultOutput), 0)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, "", i18n.WrapError(ctx, err, decodermsgs.MsgMalformedPayload, item.ID, err)
	}
	outputKeys, outputValues, outputFields, err = flatten(ctx, item.Entry.Outputs, outputCV, nil)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, "", err
	}
	return inputKeys, inputValues, inputFields, outputKeys, outputValues, outputFields, "", nil
}
