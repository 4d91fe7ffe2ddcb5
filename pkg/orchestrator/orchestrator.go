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

// Package orchestrator implements the File Orchestrator: folder
// enumeration, per-file semaphore-bounded decode tasks, cancellation-safe
// output, and the single-contract registry shortcut. Grounded on
// internal/filewallet's directory-listing + per-entry processing loop.
package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
	"github.com/kaleido-io/glaciers/pkg/catalog"
	"github.com/kaleido-io/glaciers/pkg/pipeline"
	"golang.org/x/sync/semaphore"
)

// Kind selects which raw file type a folder decode operates on.
type Kind string

const (
	KindLogs   Kind = "logs"
	KindTraces Kind = "traces"
)

func (k Kind) validate(ctx context.Context) error {
	if k != KindLogs && k != KindTraces {
		return i18n.NewError(ctx, decodermsgs.MsgUnknownFileKind, k)
	}
	return nil
}

// Result is one file's outcome from a folder decode - a per-file error
// never aborts the rest of the folder (spec §7: pipeline errors abort the
// affected file, other files continue).
type Result struct {
	InputPath  string
	OutputPath string
	RowCount   int
	Err        error
}

// decodeOneFile dispatches to the log or trace pipeline and writes to a
// temp file in the same directory as outputPath, renaming it into place
// only on success - write-to-temp-then-rename keeps a cancelled or failed
// run from leaving a partially-written output file behind.
func decodeOneFile(ctx context.Context, kind Kind, inputPath, outputPath string, table *catalog.Table, opts pipeline.Options) (int, error) {
	tmp := outputPath + ".tmp"
	var n int
	var err error
	switch kind {
	case KindLogs:
		n, err = pipeline.DecodeLogFile(ctx, inputPath, tmp, table, opts)
	case KindTraces:
		n, err = pipeline.DecodeTraceFile(ctx, inputPath, tmp, table, opts)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		_ = os.Remove(tmp)
		return 0, i18n.NewError(ctx, decodermsgs.MsgPipelineWriteFailed, outputPath, err)
	}
	return n, nil
}

func listCSVFiles(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, i18n.NewError(ctx, decodermsgs.MsgPipelineReadFailed, dir, err)
	}
	var paths []string
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, de.Name()))
	}
	return paths, nil
}

func outputPathFor(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext) + "__decoded" + ext
	return filepath.Join(outputDir, name)
}

// DecodeFolder enumerates every `.csv` file directly inside inputDir,
// decodes each against table with at most maxConcurrentFiles running at
// once, and blocks until every file has completed or the context is
// cancelled. It is the blocking half of the dual sync/async façade (the
// original's `decode_folder`/`async_decode_folder` pair).
func DecodeFolder(ctx context.Context, kind Kind, inputDir, outputDir string, table *catalog.Table, opts pipeline.Options, maxConcurrentFiles int) ([]Result, error) {
	if err := kind.validate(ctx); err != nil {
		return nil, err
	}
	if maxConcurrentFiles < 1 {
		return nil, i18n.NewError(ctx, decodermsgs.MsgInvalidConcurrencyLimit, maxConcurrentFiles)
	}
	files, err := listCSVFiles(ctx, inputDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, i18n.NewError(ctx, decodermsgs.MsgPipelineWriteFailed, outputDir, err)
	}

	sem := semaphore.NewWeighted(int64(maxConcurrentFiles))
	results := make([]Result, len(files))
	done := make(chan struct{}, len(files))

	for i, path := range files {
		i, path := i, path
		if err := sem.Acquire(ctx, 1); err != nil {
			// context cancelled before this file started - record and stop launching more
			results[i] = Result{InputPath: path, Err: err}
			done <- struct{}{}
			continue
		}
		go func() {
			defer sem.Release(1)
			defer func() { done <- struct{}{} }()
			outPath := outputPathFor(path, outputDir)
			log.L(ctx).Infof("Decoding %s -> %s", path, outPath)
			n, err := decodeOneFile(ctx, kind, path, outPath, table, opts)
			if err != nil {
				log.L(ctx).Errorf("Failed to decode %s: %s", path, err)
				results[i] = Result{InputPath: path, Err: err}
				return
			}
			results[i] = Result{InputPath: path, OutputPath: outPath, RowCount: n}
		}()
	}
	for range files {
		<-done
	}
	return results, nil
}

// DecodeFolderAsync is the non-blocking half of the façade: it returns
// immediately with a channel that, once the whole folder has been
// processed, receives one Result per file in file-listing order and then
// closes. Results are not delivered one by one as files finish. If
// DecodeFolder fails before decoding (bad kind, bad limit, unreadable
// folder), a single Result carrying that error is sent before the channel
// closes.
func DecodeFolderAsync(ctx context.Context, kind Kind, inputDir, outputDir string, table *catalog.Table, opts pipeline.Options, maxConcurrentFiles int) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		results, err := DecodeFolder(ctx, kind, inputDir, outputDir, table, opts, maxConcurrentFiles)
		if err != nil {
			out <- Result{Err: err}
			return
		}
		for _, r := range results {
			out <- r
		}
	}()
	return out
}
