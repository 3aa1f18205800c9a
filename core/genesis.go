// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package core

import (
	"encoding/json"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// GenesisAccount is the initial content of one account.
type GenesisAccount struct {
	Balance *uint256.Int                `json:"balance"`
	Nonce   uint64                      `json:"nonce,omitempty"`
	Code    hexutil.Bytes               `json:"code,omitempty"`
	Storage map[common.Hash]common.Hash `json:"storage,omitempty"`
}

type GenesisAlloc map[common.Address]GenesisAccount

// BalanceMap is the common case of a genesis with plain balances only.
type BalanceMap = map[common.Address]*uint256.Int

func AllocFromBalances(balances BalanceMap) GenesisAlloc {
	ret := make(GenesisAlloc, len(balances))
	for addr, balance := range balances {
		ret[addr] = GenesisAccount{Balance: balance}
	}
	return ret
}

// ReadGenesisAlloc loads a json object keyed by address.
func ReadGenesisAlloc(path string) (GenesisAlloc, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	var ret GenesisAlloc
	if err = json.Unmarshal(enc, &ret); err != nil {
		return nil, errors.Wrapf(err, "parse genesis %s", path)
	}
	return ret, nil
}
