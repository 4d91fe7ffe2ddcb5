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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/kaleido-io/glaciers/pkg/glaciersconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "glaciers",
	Short: "Batch decoder for EVM log and trace files against a Solidity ABI catalog",
	Long:  ``,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "f", "", "configuration TOML file")
	rootCmd.AddCommand(versionCommand())
	rootCmd.AddCommand(decodeLogsCommand())
	rootCmd.AddCommand(decodeTracesCommand())
	rootCmd.AddCommand(updateCatalogCommand())
}

// Execute runs the root command - the sole entry point called from main.go.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() error {
	glaciersconfig.Reset()
	if cfgFile != "" {
		return glaciersconfig.SetConfigTOML(context.Background(), cfgFile)
	}
	return nil
}

// cancellableContext builds a logging-equipped context for one subcommand
// invocation, cancelled on SIGINT/SIGTERM so an in-flight folder decode can
// finish the row (and file) it's on rather than leaving a partial output
// behind (spec §5's cancellation-safety requirement).
func cancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = log.WithLogger(ctx, logrus.WithField("pid", fmt.Sprintf("%d", os.Getpid())))
	ctx = log.WithLogger(ctx, logrus.WithField("prefix", "glaciers"))

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.L(ctx).Infof("Shutting down due to %s", sig.String())
		cancel()
	}()
	return ctx
}
