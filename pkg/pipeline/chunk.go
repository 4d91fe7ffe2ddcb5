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

package pipeline

import (
	"context"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
	"github.com/kaleido-io/glaciers/pkg/rawio"
)

// DefaultChunkSize is the `decoded_chunk_size` default of §6.
const DefaultChunkSize = 500_000

// chunkLogRows splits rows into contiguous slices of at most size rows -
// §4.5's "chunking" step. Chunk boundaries never affect output content
// (law #6, S6): only how the work is scheduled.
func chunkLogRows(ctx context.Context, rows []*rawio.LogRow, size int) ([][]*rawio.LogRow, error) {
	if size < 1 {
		return nil, i18n.NewError(ctx, decodermsgs.MsgInvalidChunkSize, size)
	}
	var chunks [][]*rawio.LogRow
	for i := 0; i < len(rows); i += size {
		end := i + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[i:end])
	}
	return chunks, nil
}

func chunkTraceRows(ctx context.Context, rows []*rawio.TraceRow, size int) ([][]*rawio.TraceRow, error) {
	if size < 1 {
		return nil, i18n.NewError(ctx, decodermsgs.MsgInvalidChunkSize, size)
	}
	var chunks [][]*rawio.TraceRow
	for i := 0; i < len(rows); i += size {
		end := i + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[i:end])
	}
	return chunks, nil
}
