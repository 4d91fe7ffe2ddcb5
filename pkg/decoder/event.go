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

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
	"github.com/kaleido-io/glaciers/pkg/abi"
	"github.com/kaleido-io/glaciers/pkg/catalog"
	"github.com/kaleido-io/glaciers/pkg/rawio"
)

// DecodeLog implements §4.4's event decode algorithm: it delegates topic0
// verification, indexed/non-indexed partitioning and log-indexed coercion to
// abi.Entry.DecodeEventDataCtx, then flattens the resulting value tree
// into the event_keys/event_values/event_json columns.
func DecodeLog(ctx context.Context, row *rawio.LogRow, item *catalog.Item) (keys []string, values []string, fields []Field, err error) {
	if item.Entry == nil {
		return nil, nil, nil, i18n.NewError(ctx, decodermsgs.MsgMalformedPayload, item.ID, "catalog item has no parsed ABI entry")
	}

	cv, err := item.Entry.DecodeEventDataCtx(ctx, row.Topics(), row.Data)
	if err != nil {
		return nil, nil, nil, i18n.WrapError(ctx, err, decodermsgs.MsgMalformedPayload, item.ID, err)
	}

	suffix := func(i int) string {
		p := item.Entry.Inputs[i]
		if p.Indexed && isHashedTopic(ctx, p) {
			return "_hash"
		}
		return ""
	}
	return flatten(ctx, item.Entry.Inputs, cv, suffix)
}

// isHashedTopic mirrors the exact condition abi.decodeIndexedTopicCtx uses to
// decide whether an indexed parameter's topic word is the raw value or
// keccak256(value): any non-elementary component (array/tuple), or an
// elementary dynamic type (string, bytes), is always hashed.
func isHashedTopic(ctx context.Context, p *abi.Parameter) bool {
	tc, err := p.TypeComponentTreeCtx(ctx)
	if err != nil {
		return false
	}
	return tc.ComponentType() != abi.ElementaryComponent || abi.IsDynamicType(tc)
}
