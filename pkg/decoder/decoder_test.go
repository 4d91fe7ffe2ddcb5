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
	"encoding/hex"
	"testing"

	"github.com/kaleido-io/glaciers/pkg/catalog"
	"github.com/kaleido-io/glaciers/pkg/ethtypes"
	"github.com/kaleido-io/glaciers/pkg/rawio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const erc20ABI = `[
	{
		"type": "event",
		"name": "Transfer",
		"anonymous": false,
		"inputs": [
			{"name": "from", "type": "address", "indexed": true},
			{"name": "to", "type": "address", "indexed": true},
			{"name": "value", "type": "uint256", "indexed": false}
		]
	},
	{
		"type": "function",
		"name": "transfer",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "recipient", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": [
			{"name": "", "type": "bool"}
		]
	}
]`

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func buildTable(t *testing.T) *catalog.Table {
	ctx := context.Background()
	table := catalog.NewTable(catalog.ReadBoth, nil)
	items, err := table.ParseJSON(ctx, "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", []byte(erc20ABI))
	require.NoError(t, err)
	table.Merge(items)
	return table
}

// TestDecodeLogS1 reproduces spec scenario S1: a canonical ERC-20 Transfer.
func TestDecodeLogS1(t *testing.T) {
	ctx := context.Background()
	table := buildTable(t)
	m := NewMatcher(table, AlgorithmHash)

	addr := ethtypes.Address0xHex(mustHex("7a250d5630b4cf539739df2c5dacb4c659f2488d"))
	row := &rawio.LogRow{
		Address: &addr,
		Topic0:  mustHex("ddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"),
		Topic1:  mustHex("000000000000000000000000eedff72a683058f8ff531e8c98575f920430fdc5"),
		Topic2:  mustHex("0000000000000000000000007a250d5630b4cf539739df2c5dacb4c659f2488d"),
		Data:    mustHex("0000000000000000000000000000000000000000000000000de0b6b3a7640000"),
	}

	out := DecodeLogRow(ctx, row, m)
	require.Equal(t, OutcomeDecoded, out.Outcome)
	assert.Equal(t, "Transfer", out.Name)
	assert.Equal(t, []string{"from", "to", "value"}, out.EventKeys)
	require.Len(t, out.EventValues, 3)
	assert.Equal(t, "0xeEDfF72A683058F8FF531e8c98575f920430FdC5", out.EventValues[0])
	assert.Equal(t, "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", out.EventValues[1])
	assert.Equal(t, "1000000000000000000", out.EventValues[2])
}

// TestDecodeLogUnmatched reproduces S2: a topic0 that no catalog item carries means no match at all.
func TestDecodeLogUnmatched(t *testing.T) {
	ctx := context.Background()
	table := buildTable(t)
	m := NewMatcher(table, AlgorithmHash)

	row := &rawio.LogRow{
		Topic0: mustHex("00000000000000000000000000000000000000000000000000000000000000"),
		Data:   []byte{},
	}
	out := DecodeLogRow(ctx, row, m)
	assert.Equal(t, OutcomeUnmatched, out.Outcome)
}

func TestDecodeLogNoTopic0IsUnmatched(t *testing.T) {
	ctx := context.Background()
	table := buildTable(t)
	m := NewMatcher(table, AlgorithmHash)
	row := &rawio.LogRow{}
	out := DecodeLogRow(ctx, row, m)
	assert.Equal(t, OutcomeUnmatched, out.Outcome)
}

// TestDecodeLogIndexedStringHashed reproduces S3: an indexed dynamic type
// surfaces as the raw topic hash, suffixed `_hash` in value_type.
func TestDecodeLogIndexedStringHashed(t *testing.T) {
	ctx := context.Background()
	table := catalog.NewTable(catalog.ReadBoth, nil)
	items, err := table.ParseJSON(ctx, "0x1111111111111111111111111111111111111111", []byte(`[
		{"type":"event","name":"Named","anonymous":false,"inputs":[
			{"name":"label","type":"string","indexed":true}
		]}
	]`))
	require.NoError(t, err)
	table.Merge(items)
	m := NewMatcher(table, AlgorithmHash)
	require.Len(t, items, 1)

	topicHash := mustHex("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	row := &rawio.LogRow{
		Topic0: mustHex(items[0].Hash[2:]),
		Topic1: topicHash,
		Data:   []byte{},
	}
	out := DecodeLogRow(ctx, row, m)
	require.Equal(t, OutcomeDecoded, out.Outcome)
	require.Len(t, out.EventJSON, 1)
	assert.Equal(t, "string_hash", out.EventJSON[0].ValueType)
	assert.Equal(t, "0x"+hex.EncodeToString(topicHash), out.EventJSON[0].Value)
}

func TestDecodeTraceFunctionCallS4(t *testing.T) {
	ctx := context.Background()
	table := buildTable(t)
	m := NewMatcher(table, AlgorithmHash)

	var fnItem *catalog.Item
	for _, it := range table.Items {
		if it.Kind == catalog.KindFunction {
			fnItem = it
		}
	}
	require.NotNil(t, fnItem)

	abiEncodedArgs := mustHex("00000000000000000000000003706ff580119b130e7d26c5e816913123c24d890000000000000000000000000000000000000000000000000de0b6b3a7640000")
	selector := mustHex(fnItem.Hash[2:])
	actionInput := append(append([]byte{}, selector...), abiEncodedArgs...)

	row := &rawio.TraceRow{
		Selector:     selector,
		ActionInput:  actionInput,
		ResultOutput: mustHex("0000000000000000000000000000000000000000000000000000000000000001"),
	}

	out := DecodeTraceRow(ctx, row, m, SelectorPrefixAuto)
	require.Equal(t, OutcomeDecoded, out.Outcome)
	assert.Equal(t, []string{"recipient", "amount"}, out.InputKeys)
	assert.Equal(t, "0x03706Ff580119B130E7D26C5e816913123C24d89", out.InputValues[0])
	assert.Equal(t, "1000000000000000000", out.InputValues[1])
	assert.Equal(t, []string{""}, out.OutputKeys)
	assert.Equal(t, "true", out.OutputValues[0])
}

func TestDecodeTraceEmptyOutputIsSoftError(t *testing.T) {
	ctx := context.Background()
	table := buildTable(t)

	var fnItem *catalog.Item
	for _, it := range table.Items {
		if it.Kind == catalog.KindFunction {
			fnItem = it
		}
	}
	require.NotNil(t, fnItem)

	abiEncodedArgs := mustHex("00000000000000000000000003706ff580119b130e7d26c5e816913123c24d890000000000000000000000000000000000000000000000000de0b6b3a7640000")
	selector := mustHex(fnItem.Hash[2:])

	_, _, _, _, _, _, soft, err := DecodeTrace(ctx, &rawio.TraceRow{
		Selector:     selector,
		ActionInput:  abiEncodedArgs, // no selector prefix
		ResultOutput: nil,
	}, fnItem, SelectorPrefixNeverStrip)
	require.NoError(t, err)
	assert.Equal(t, "EmptyOutput", soft)
}
