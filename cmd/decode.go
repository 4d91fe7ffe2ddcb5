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

package cmd

import (
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/kaleido-io/glaciers/pkg/catalog"
	"github.com/kaleido-io/glaciers/pkg/decoder"
	"github.com/kaleido-io/glaciers/pkg/glaciersconfig"
	"github.com/kaleido-io/glaciers/pkg/orchestrator"
	"github.com/kaleido-io/glaciers/pkg/pipeline"
	"github.com/spf13/cobra"
)

func decodeLogsCommand() *cobra.Command {
	return decodeCommand(orchestrator.KindLogs, "decode-logs", "Decode every raw log file in a folder against the ABI catalog")
}

func decodeTracesCommand() *cobra.Command {
	return decodeCommand(orchestrator.KindTraces, "decode-traces", "Decode every raw trace file in a folder against the ABI catalog")
}

func decodeCommand(kind orchestrator.Kind, use, short string) *cobra.Command {
	var catalogFile, inputDir, outputDir string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cancellableContext()
			cfg := glaciersconfig.GetConfig()

			if inputDir == "" {
				if kind == orchestrator.KindLogs {
					inputDir = cfg.Main.RawLogsFolderPath
				} else {
					inputDir = cfg.Main.RawTracesFolderPath
				}
			}
			if outputDir == "" {
				outputDir = inputDir
			}
			if catalogFile == "" {
				if kind == orchestrator.KindLogs {
					catalogFile = cfg.Main.EventsABIDBFilePath
				} else {
					catalogFile = cfg.Main.FunctionsABIDBFilePath
				}
			}

			table, err := catalog.LoadTable(ctx, catalogFile, cfg.ABIReader.ABIReadMode, cfg.ABIReader.UniqueKey)
			if err != nil {
				return err
			}

			opts := pipeline.Options{
				Algorithm:               cfg.Decoder.Algorithm,
				ChunkSize:               cfg.Decoder.DecodedChunkSize,
				MaxChunkThreads:         cfg.Decoder.MaxChunkThreadsPerFile,
				OutputHexStringEncoding: cfg.Decoder.OutputHexStringEncoding,
				SelectorPrefixMode:      decoder.SelectorPrefixAuto,
			}
			if kind == orchestrator.KindLogs {
				opts.LogSchema = cfg.LogDecoder.LogSchema
			} else {
				opts.TraceSchema = cfg.TraceDecoder.TraceSchema
			}

			results, err := orchestrator.DecodeFolder(ctx, kind, inputDir, outputDir, table, opts, cfg.Decoder.MaxConcurrentFilesDecoding)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					log.L(ctx).Errorf("%s: %s", r.InputPath, r.Err)
				} else {
					log.L(ctx).Infof("%s -> %s (%d rows)", r.InputPath, r.OutputPath, r.RowCount)
				}
			}
			log.L(ctx).Infof("Decoded %d/%d files", len(results)-failed, len(results))
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogFile, "catalog", "", "path to the ABI catalog file (defaults to configuration)")
	cmd.Flags().StringVar(&inputDir, "input", "", "folder of raw files to decode (defaults to configuration)")
	cmd.Flags().StringVar(&outputDir, "output", "", "folder to write decoded files to (defaults to the input folder)")
	return cmd
}
