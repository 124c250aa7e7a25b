package types

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// AggregatorType tags the aggregation strategy an agreement is bound to.
type AggregatorType uint32

const (
	// AggregatorNone is used by single-oracle agreements.
	AggregatorNone AggregatorType = iota
	AggregatorMean
	AggregatorMedian
)

var aggregatorNames = map[AggregatorType]string{
	AggregatorNone:   "none",
	AggregatorMean:   "mean",
	AggregatorMedian: "median",
}

func (a AggregatorType) String() string {
	if name, ok := aggregatorNames[a]; ok {
		return name
	}
	return fmt.Sprintf("aggregator(%d)", uint32(a))
}

// ParseAggregatorType parses the textual form of an AggregatorType.
func ParseAggregatorType(s string) (AggregatorType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return AggregatorNone, nil
	}
	for typ, name := range aggregatorNames {
		if name == s {
			return typ, nil
		}
	}
	return AggregatorNone, errorsmod.Wrapf(ErrUnknownAggregator, "%q", s)
}

func (a AggregatorType) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AggregatorType) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	typ, err := ParseAggregatorType(s)
	if err != nil {
		return err
	}
	*a = typ
	return nil
}

// ServiceAgreement binds a set of oracles, an aggregation rule and a fixed
// payment. Agreements are immutable once registered.
type ServiceAgreement struct {
	ID         common.Hash      `json:"id"`
	Oracles    []sdk.AccAddress `json:"oracles"`
	Aggregator AggregatorType   `json:"aggregator"`
	// Quorum is the number of submissions that closes a round. Zero means
	// every oracle must submit.
	Quorum  uint32      `json:"quorum"`
	Payment sdkmath.Int `json:"payment"`
}

// NewServiceAgreement builds an agreement and derives its id from the content.
func NewServiceAgreement(oracles []sdk.AccAddress, aggregator AggregatorType, quorum uint32, payment sdkmath.Int) ServiceAgreement {
	sa := ServiceAgreement{
		Oracles:    oracles,
		Aggregator: aggregator,
		Quorum:     quorum,
		Payment:    payment,
	}
	sa.ID = sa.ComputeID()
	return sa
}

// ComputeID returns the content hash of the agreement. The stored ID field is
// not part of the preimage.
func (sa ServiceAgreement) ComputeID() common.Hash {
	hasher := sha3.NewLegacyKeccak256()

	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(sa.Oracles)))
	hasher.Write(buf)
	for _, oracle := range sa.Oracles {
		hasher.Write([]byte{byte(len(oracle))})
		hasher.Write(oracle)
	}

	binary.BigEndian.PutUint32(buf, uint32(sa.Aggregator))
	hasher.Write(buf)
	binary.BigEndian.PutUint32(buf, sa.Quorum)
	hasher.Write(buf)

	payment := sdkmath.ZeroInt()
	if !sa.Payment.IsNil() {
		payment = sa.Payment
	}
	hasher.Write(common.BigToHash(payment.BigInt()).Bytes())

	var id common.Hash
	hasher.Sum(id[:0])
	return id
}

// Validate checks the agreement content and that ID matches it.
func (sa ServiceAgreement) Validate() error {
	if len(sa.Oracles) == 0 {
		return errorsmod.Wrap(ErrInvalidAgreement, "oracle set cannot be empty")
	}

	seen := make(map[string]bool, len(sa.Oracles))
	for _, oracle := range sa.Oracles {
		if err := sdk.VerifyAddressFormat(oracle); err != nil {
			return errorsmod.Wrapf(ErrInvalidAgreement, "invalid oracle address: %v", err)
		}
		if seen[string(oracle)] {
			return errorsmod.Wrapf(ErrInvalidAgreement, "duplicate oracle %s", oracle)
		}
		seen[string(oracle)] = true
	}

	if sa.Quorum > uint32(len(sa.Oracles)) {
		return errorsmod.Wrapf(ErrInvalidAgreement, "quorum %d exceeds oracle count %d", sa.Quorum, len(sa.Oracles))
	}

	if sa.Payment.IsNil() || sa.Payment.IsNegative() {
		return errorsmod.Wrap(ErrInvalidAgreement, "payment must be non-negative")
	}

	if _, ok := aggregatorNames[sa.Aggregator]; !ok {
		return errorsmod.Wrapf(ErrUnknownAggregator, "%s", sa.Aggregator)
	}
	if sa.IsMultiOracle() && sa.Aggregator == AggregatorNone {
		return errorsmod.Wrap(ErrInvalidAgreement, "multi-oracle agreement requires an aggregator")
	}

	if sa.ID != sa.ComputeID() {
		return errorsmod.Wrapf(ErrInvalidAgreement, "id %s does not match content", sa.ID.Hex())
	}
	return nil
}

// IsMultiOracle reports whether results are combined by a strategy.
func (sa ServiceAgreement) IsMultiOracle() bool {
	return len(sa.Oracles) > 1
}

// EffectiveQuorum is the number of submissions that closes a round.
func (sa ServiceAgreement) EffectiveQuorum() uint32 {
	if sa.Quorum == 0 {
		return uint32(len(sa.Oracles))
	}
	return sa.Quorum
}

// OracleIndex returns the position of oracle in the agreement, or -1.
func (sa ServiceAgreement) OracleIndex(oracle sdk.AccAddress) int {
	for i, o := range sa.Oracles {
		if o.Equals(oracle) {
			return i
		}
	}
	return -1
}

// HasOracle reports whether oracle is authorized by the agreement.
func (sa ServiceAgreement) HasOracle(oracle sdk.AccAddress) bool {
	return sa.OracleIndex(oracle) >= 0
}

// OracleList renders the oracle set for event attributes.
func (sa ServiceAgreement) OracleList() string {
	oracles := make([]string, len(sa.Oracles))
	for i, o := range sa.Oracles {
		oracles[i] = o.String()
	}
	return strings.Join(oracles, ",")
}
