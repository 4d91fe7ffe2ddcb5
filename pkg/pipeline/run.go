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
	"github.com/kaleido-io/glaciers/pkg/catalog"
	"github.com/kaleido-io/glaciers/pkg/decoder"
	"github.com/kaleido-io/glaciers/pkg/rawio"
	"golang.org/x/sync/errgroup"
)

// Options configures one pipeline run - the `[decoder]` config section
// of §6, passed explicitly per DESIGN NOTE's "prefer passing a config
// struct explicitly where possible" guidance rather than read from the
// global singleton inside this package.
type Options struct {
	Algorithm               decoder.Algorithm
	ChunkSize               int
	MaxChunkThreads         int
	OutputHexStringEncoding bool
	LogSchema               LogSchema
	TraceSchema             TraceSchema
	SelectorPrefixMode      decoder.SelectorPrefixMode
}

// DefaultOptions mirrors the `[decoder]` section defaults of §6.
func DefaultOptions() Options {
	return Options{
		Algorithm:          decoder.AlgorithmHash,
		ChunkSize:          DefaultChunkSize,
		MaxChunkThreads:    16,
		LogSchema:          DefaultLogSchema(),
		TraceSchema:        DefaultTraceSchema(),
		SelectorPrefixMode: decoder.SelectorPrefixAuto,
	}
}

// DecodeLogRows runs the pipeline over an already-loaded slice of log rows: it builds
// one Matcher per invocation (the catalog is "small and cheaply broadcast",
// §4.5), splits rows into chunks, decodes each chunk concurrently bounded by
// MaxChunkThreads, and re-concatenates in original order - the
// "parallelism within a file" and "determinism" rules of §4.5.
func DecodeLogRows(ctx context.Context, rows []*rawio.LogRow, table *catalog.Table, opts Options) ([]*decoder.DecodedLogRow, error) {
	if opts.MaxChunkThreads < 1 {
		return nil, i18n.NewError(ctx, decodermsgs.MsgInvalidThreadCount, opts.MaxChunkThreads)
	}
	chunks, err := chunkLogRows(ctx, rows, opts.ChunkSize)
	if err != nil {
		return nil, err
	}
	m := decoder.NewMatcher(table, opts.Algorithm)

	out := make([]*decoder.DecodedLogRow, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxChunkThreads)
	offset := 0
	for _, chunk := range chunks {
		chunk := chunk
		base := offset
		offset += len(chunk)
		g.Go(func() error {
			for i, row := range chunk {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				out[base+i] = decoder.DecodeLogRow(ctx, row, m)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeTraceRows is DecodeLogRows's trace analog.
func DecodeTraceRows(ctx context.Context, rows []*rawio.TraceRow, table *catalog.Table, opts Options) ([]*decoder.DecodedTraceRow, error) {
	if opts.MaxChunkThreads < 1 {
		return nil, i18n.NewError(ctx, decodermsgs.MsgInvalidThreadCount, opts.MaxChunkThreads)
	}
	chunks, err := chunkTraceRows(ctx, rows, opts.ChunkSize)
	if err != nil {
		return nil, err
	}
	m := decoder.NewMatcher(table, opts.Algorithm)

	out := make([]*decoder.DecodedTraceRow, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxChunkThreads)
	offset := 0
	for _, chunk := range chunks {
		chunk := chunk
		base := offset
		offset += len(chunk)
		g.Go(func() error {
			for i, row := range chunk {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				out[base+i] = decoder.DecodeTraceRow(ctx, row, m, opts.SelectorPrefixMode)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeLogFile reads path per schema, decodes every row against table, and
// writes the decoded output to outPath - the per-file unit of work the orchestrator
// schedules onto its semaphore.
func DecodeLogFile(ctx context.Context, path, outPath string, table *catalog.Table, opts Options) (int, error) {
	rows, header, err := ReadLogRows(ctx, path, opts.LogSchema)
	if err != nil {
		return 0, err
	}
	decoded, err := DecodeLogRows(ctx, rows, table, opts)
	if err != nil {
		return 0, err
	}
	if err := WriteDecodedLogRows(ctx, outPath, header, decoded, opts); err != nil {
		return 0, err
	}
	return len(decoded), nil
}

// DecodeTraceFile is DecodeLogFile's trace analog.
func DecodeTraceFile(ctx context.Context, path, outPath string, table *catalog.Table, opts Options) (int, error) {
	rows, header, err := ReadTraceRows(ctx, path, opts.TraceSchema)
	if err != nil {
		return 0, err
	}
	decoded, err := DecodeTraceRows(ctx, rows, table, opts)
	if err != nil {
		return 0, err
	}
	if err := WriteDecodedTraceRows(ctx, outPath, header, decoded, opts); err != nil {
		return 0, err
	}
	return len(decoded), nil
}
