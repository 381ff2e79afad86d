package abi

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/timertimertimer/kfudao/internal/domain"
	"github.com/timertimertimer/kfudao/internal/domain/bindings"
	"github.com/timertimertimer/kfudao/internal/usecase"
)

// GovernorCodec encodes and describes governor calls
type GovernorCodec struct {
	governor *bindings.Governor
}

var _ usecase.GovernorCodec = (*GovernorCodec)(nil)

// NewGovernorCodec creates a codec for the governor ABI
func NewGovernorCodec() *GovernorCodec {
	return &GovernorCodec{governor: bindings.NewGovernor()}
}

// EncodeCastVote encodes castVote(uint256,uint8)
func (c *GovernorCodec) EncodeCastVote(proposalID *big.Int, support uint8) ([]byte, error) {
	if proposalID == nil {
		return nil, fmt.Errorf("proposal id is required")
	}
	return c.governor.PackCastVote(proposalID, support)
}

// EncodePropose encodes propose(address[],uint256[],bytes[],string)
func (c *GovernorCodec) EncodePropose(targets []string, values []*big.Int, calldatas [][]byte, description string) ([]byte, error) {
	if len(targets) != len(values) || len(targets) != len(calldatas) {
		return nil, fmt.Errorf("targets, values and calldatas must have the same length")
	}
	addrs := make([]common.Address, len(targets))
	for i, t := range targets {
		if !common.IsHexAddress(t) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, t)
		}
		addrs[i] = common.HexToAddress(t)
	}
	return c.governor.PackPropose(addrs, values, calldatas, description)
}

// Describe renders call data as name(arg, ...) for confirmation prompts
func (c *GovernorCodec) Describe(data []byte) (string, error) {
	if len(data) < 4 {
		return "", fmt.Errorf("call data too short")
	}
	parsed := c.governor.ABI()
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return "", fmt.Errorf("unknown selector %s: %w", hexutil.Encode(data[:4]), err)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return "", fmt.Errorf("failed to decode %s arguments: %w", method.Name, err)
	}

	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatArg(arg)
	}
	return fmt.Sprintf("%s(%s)", method.Name, strings.Join(parts, ", ")), nil
}

func formatArg(v interface{}) string {
	switch a := v.(type) {
	case []common.Address:
		out := make([]string, len(a))
		for i, addr := range a {
			out[i] = addr.Hex()
		}
		return "[" + strings.Join(out, ", ") + "]"
	case []*big.Int:
		out := make([]string, len(a))
		for i, n := range a {
			out[i] = n.String()
		}
		return "[" + strings.Join(out, ", ") + "]"
	case [][]byte:
		out := make([]string, len(a))
		for i, b := range a {
			out[i] = hexutil.Encode(b)
		}
		return "[" + strings.Join(out, ", ") + "]"
	case string:
		return fmt.Sprintf("%q", a)
	default:
		return fmt.Sprintf("%v", a)
	}
}
