package router

import (
	"math/big"

	"cosmossdk.io/math"

	"github.com/paw-chain/swaprouter/pkg/types"
)

// Overflow-safe arithmetic for swap math. math.Int panics past 256 bits;
// routing must degrade to a discarded route instead.

var maxInt256 = new(big.Int).Exp(big.NewInt(2), big.NewInt(256), nil)

// SafeMul multiplies with overflow checking.
func SafeMul(a, b math.Int) (math.Int, error) {
	if a.IsZero() || b.IsZero() {
		return math.ZeroInt(), nil
	}
	result := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if result.CmpAbs(maxInt256) >= 0 {
		return math.Int{}, types.ErrOverflow.Wrap("multiplication exceeds 256 bits")
	}
	return math.NewIntFromBigInt(result), nil
}

// SafeMulDiv computes (a * b) / c with overflow protection. The truncating
// division rounds toward zero.
func SafeMulDiv(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, types.ErrOverflow.Wrap("division by zero")
	}
	intermediate := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if intermediate.CmpAbs(maxInt256) >= 0 {
		return math.Int{}, types.ErrOverflow.Wrap("multiplication step exceeds 256 bits")
	}
	result := new(big.Int).Quo(intermediate, c.BigInt())
	return math.NewIntFromBigInt(result), nil
}

// SafeMulDivCeil computes ceil((a * b) / c) with overflow protection. Used
// on the exact-output path, where rounding must favor the pool.
func SafeMulDivCeil(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, types.ErrOverflow.Wrap("division by zero")
	}
	intermediate := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if intermediate.CmpAbs(maxInt256) >= 0 {
		return math.Int{}, types.ErrOverflow.Wrap("multiplication step exceeds 256 bits")
	}
	quo, rem := new(big.Int).QuoRem(intermediate, c.BigInt(), new(big.Int))
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return math.NewIntFromBigInt(quo), nil
}
