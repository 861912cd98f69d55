package cpi

import "math/bits"

// Rent parameters as published by the rent sysvar.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  uint64
}

// AccountStorageOverhead is charged on top of the data length of every account.
const AccountStorageOverhead = 128

// MaxPermittedDataLength is the largest account the system program allocates.
const MaxPermittedDataLength = 10 * 1024 * 1024

// DefaultRent mirrors the cluster defaults: 3480 lamports per byte-year,
// exempt after two years.
func DefaultRent() Rent {
	return Rent{LamportsPerByteYear: 3480, ExemptionThreshold: 2}
}

// MinimumBalance returns the lamports an account of dataLen bytes must hold
// to be rent exempt. The result saturates at math.MaxUint64.
func (r Rent) MinimumBalance(dataLen uint64) uint64 {
	size, carry := bits.Add64(dataLen, AccountStorageOverhead, 0)
	if carry != 0 {
		return ^uint64(0)
	}
	hi, perYear := bits.Mul64(size, r.LamportsPerByteYear)
	if hi != 0 {
		return ^uint64(0)
	}
	hi, total := bits.Mul64(perYear, r.ExemptionThreshold)
	if hi != 0 {
		return ^uint64(0)
	}
	return total
}

// IsExempt reports whether lamports cover the minimum for dataLen bytes.
func (r Rent) IsExempt(lamports, dataLen uint64) bool {
	return lamports >= r.MinimumBalance(dataLen)
}
