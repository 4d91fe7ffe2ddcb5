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
	"github.com/kaleido-io/glaciers/pkg/glaciersconfig"
	"github.com/spf13/cobra"
)

func updateCatalogCommand() *cobra.Command {
	var abiFolder, catalogFile string
	var watch bool

	cmd := &cobra.Command{
		Use:   "update-catalog",
		Short: "Merge an ABI folder into the catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cancellableContext()
			cfg := glaciersconfig.GetConfig()
			if abiFolder == "" {
				abiFolder = cfg.Main.ABIFolderPath
			}
			if catalogFile == "" {
				catalogFile = cfg.Main.EventsABIDBFilePath
			}

			if !watch {
				table, err := catalog.UpdateCatalog(ctx, catalogFile, abiFolder, cfg.ABIReader.ABIReadMode, cfg.ABIReader.UniqueKey)
				if err != nil {
					return err
				}
				log.L(ctx).Infof("Catalog '%s' now has %d entries", catalogFile, len(table.Items))
				return nil
			}

			w, err := catalog.NewWatcher(ctx, abiFolder, catalogFile, cfg.ABIReader.ABIReadMode, cfg.ABIReader.UniqueKey, func(t *catalog.Table) {
				if err := t.Save(ctx, catalogFile); err != nil {
					log.L(ctx).Errorf("Failed to save catalog '%s': %s", catalogFile, err)
				}
			})
			if err != nil {
				return err
			}
			if err := w.Table().Save(ctx, catalogFile); err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			log.L(ctx).Infof("Watching '%s' for ABI changes (ctrl-C to stop)", abiFolder)
			<-ctx.Done()
			w.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&abiFolder, "abi-folder", "", "folder of per-contract ABI JSON files (defaults to configuration)")
	cmd.Flags().StringVar(&catalogFile, "catalog", "", "catalog file to merge into (defaults to configuration)")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and re-merge whenever the ABI folder changes")
	return cmd
}
