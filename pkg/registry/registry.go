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

// Package registry fetches a single contract's ABI JSON from a public
// contract-metadata registry over HTTPS - the only network interaction in
// the decoder, used exclusively by the single-contract shortcut path.
package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/kaleido-io/glaciers/internal/decodermsgs"
)

// DefaultBaseURL points at Sourcify's public full-match metadata repository.
// %d is the EVM chain ID, %s is the lowercase 0x-prefixed contract address.
const DefaultBaseURL = "https://repo.sourcify.dev/contracts/full_match/%d/%s/metadata.json"

// sourcifyMetadata is the subset of Sourcify's metadata.json this package
// needs - the Solidity compiler's standard-json "output.abi" array, which
// is already shaped exactly like the ABI JSON pkg/catalog.Table.ParseJSON
// expects.
type sourcifyMetadata struct {
	Output struct {
		ABI json.RawMessage `json:"abi"`
	} `json:"output"`
}

// Client fetches ABI JSON by contract address.
type Client struct {
	http    *resty.Client
	baseURL string
	chainID int64
}

// NewClient builds a registry client. An empty baseURL defaults to
// DefaultBaseURL; chainID defaults to 1 (Ethereum mainnet) when 0.
func NewClient(httpClient *resty.Client, baseURL string, chainID int64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if chainID == 0 {
		chainID = 1
	}
	return &Client{http: httpClient, baseURL: baseURL, chainID: chainID}
}

// FetchABI retrieves the raw ABI JSON array for address, suitable for
// passing directly to catalog.Table.ParseJSON.
func (c *Client) FetchABI(ctx context.Context, address string) ([]byte, error) {
	url := fmt.Sprintf(c.baseURL, c.chainID, address)
	log.L(ctx).Debugf("Fetching ABI for %s from %s", address, url)

	var meta sourcifyMetadata
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&meta).
		Get(url)
	if err != nil {
		return nil, i18n.NewError(ctx, decodermsgs.MsgRegistryFetchFailed, address, err)
	}
	if res.IsError() {
		return nil, i18n.NewError(ctx, decodermsgs.MsgRegistryFetchFailed, address, res.Status())
	}
	if len(meta.Output.ABI) == 0 {
		return nil, i18n.NewError(ctx, decodermsgs.MsgRegistryFetchFailed, address, "empty ABI in registry response")
	}
	return meta.Output.ABI, nil
}
