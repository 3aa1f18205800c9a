package state_evm

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/Taraxa-project/taraxa-state/taraxa/state/state_common"
)

type Input interface {
	GetAccount(*common.Address) (*state_common.Account, error)
	GetCode(code_hash *common.Hash) ([]byte, error)
	GetStorage(addr *common.Address, slot *common.Hash) (common.Hash, error)
}

// Sink receives the net effect of a transaction at Checkpoint.
type Sink interface {
	SetAccount(*common.Address, *state_common.Account) error
	DeleteAccount(*common.Address) error
	SetCode(code []byte) common.Hash
	SetStorage(addr *common.Address, slot *common.Hash, value *common.Hash) error
}

type World interface {
	Input
	Sink
}

type EVMStorage = map[common.Hash]common.Hash
