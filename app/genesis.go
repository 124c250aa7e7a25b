package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	consumertypes "github.com/GPTx-global/oraclelink/x/consumer/types"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
	ledgertypes "github.com/GPTx-global/oraclelink/x/ledger/types"
)

// ConsumerGenesis declares a consumer program and the agreement it uses.
type ConsumerGenesis struct {
	Name        string      `json:"name"`
	AgreementID common.Hash `json:"agreement_id"`
}

// GenesisState is the initial state of the application.
type GenesisState struct {
	ChainID     string                        `json:"chain_id"`
	Ledger      ledgertypes.GenesisState      `json:"ledger"`
	Coordinator coordinatortypes.GenesisState `json:"coordinator"`
	Consumers   []ConsumerGenesis             `json:"consumers"`
}

// DefaultGenesisState returns a genesis with no balances, agreements or
// consumers.
func DefaultGenesisState(chainID string) *GenesisState {
	return &GenesisState{
		ChainID:     chainID,
		Ledger:      *ledgertypes.DefaultGenesisState(),
		Coordinator: *coordinatortypes.DefaultGenesisState(),
		Consumers:   []ConsumerGenesis{},
	}
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	if strings.TrimSpace(gs.ChainID) == "" {
		return fmt.Errorf("chain id cannot be empty")
	}
	if err := gs.Ledger.Validate(); err != nil {
		return fmt.Errorf("invalid %s genesis: %w", ledgertypes.ModuleName, err)
	}
	if err := gs.Coordinator.Validate(); err != nil {
		return fmt.Errorf("invalid %s genesis: %w", coordinatortypes.ModuleName, err)
	}

	agreements := make(map[common.Hash]bool, len(gs.Coordinator.Agreements))
	for _, sa := range gs.Coordinator.Agreements {
		agreements[sa.ID] = true
	}
	names := make(map[string]bool, len(gs.Consumers))
	for _, c := range gs.Consumers {
		if c.Name == "" || strings.Contains(c.Name, "/") {
			return fmt.Errorf("%w: %q", consumertypes.ErrInvalidName, c.Name)
		}
		if names[c.Name] {
			return fmt.Errorf("duplicate consumer %s", c.Name)
		}
		names[c.Name] = true
		if !agreements[c.AgreementID] {
			return fmt.Errorf("consumer %s references unknown agreement %s", c.Name, c.AgreementID.Hex())
		}
	}
	return nil
}

// LoadGenesis reads a genesis file.
func LoadGenesis(path string) (*GenesisState, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis: %w", err)
	}
	var gs GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return nil, fmt.Errorf("failed to parse genesis %s: %w", path, err)
	}
	return &gs, nil
}

// Save writes the genesis to path.
func (gs GenesisState) Save(path string) error {
	bz, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, bz, 0o644)
}
