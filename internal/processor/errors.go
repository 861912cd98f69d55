package processor

import (
	"errors"
	"fmt"

	"github.com/congo-pay/editionmint/internal/cpi"
	"github.com/congo-pay/editionmint/internal/instruction"
)

// ErrAccountShape indicates the supplied account list has the wrong length
// or lacks a required signer/writable privilege.
var ErrAccountShape = errors.New("invalid account list")

// StepError identifies the collaborator step a request failed in.
type StepError struct {
	Instruction string
	Step        string
	Err         error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Instruction, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepErr(instr, step string, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Instruction: instr, Step: step, Err: err}
}

// Class groups failures the way callers need to react to them.
type Class string

const (
	ClassNone         Class = ""
	ClassDecoding     Class = "decoding"
	ClassAccountShape Class = "account_shape"
	ClassAuthority    Class = "authority"
	ClassFunding      Class = "funding"
	ClassCollision    Class = "collision"
	ClassEdition      Class = "edition"
	ClassUnknown      Class = "unknown"
)

// Classify maps an error returned by Process onto its class.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, instruction.ErrInvalidInstruction):
		return ClassDecoding
	case errors.Is(err, cpi.ErrMissingSignature),
		errors.Is(err, cpi.ErrAuthorityMismatch),
		errors.Is(err, cpi.ErrMintAuthorityRevoked):
		return ClassAuthority
	case errors.Is(err, cpi.ErrInsufficientFunds),
		errors.Is(err, cpi.ErrInsufficientFundsForRent):
		return ClassFunding
	case errors.Is(err, cpi.ErrAccountAlreadyInUse),
		errors.Is(err, cpi.ErrAlreadyInitialized):
		return ClassCollision
	case errors.Is(err, cpi.ErrEditionSupply):
		return ClassEdition
	case errors.Is(err, ErrAccountShape),
		errors.Is(err, ErrHolderNotInitialized),
		errors.Is(err, cpi.ErrIncorrectProgramID),
		errors.Is(err, cpi.ErrInvalidSeeds),
		errors.Is(err, cpi.ErrInvalidAccountData),
		errors.Is(err, cpi.ErrUninitializedAccount),
		errors.Is(err, cpi.ErrMintMismatch),
		errors.Is(err, cpi.ErrReadonlyAccount),
		errors.Is(err, cpi.ErrInvalidMetadata),
		errors.Is(err, cpi.ErrSupplyOverflow):
		return ClassAccountShape
	default:
		return ClassUnknown
	}
}
