package cpi

import "errors"

var (
	// ErrInsufficientFunds occurs when a funding account cannot cover a debit.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientFundsForRent occurs when an account would be created or
	// initialized below its rent-exempt minimum.
	ErrInsufficientFundsForRent = errors.New("insufficient funds for rent")

	// ErrAccountAlreadyInUse indicates allocation targeted a live account.
	ErrAccountAlreadyInUse = errors.New("account already in use")
	// ErrAlreadyInitialized indicates a record was already written.
	ErrAlreadyInitialized = errors.New("account already initialized")

	ErrMissingSignature     = errors.New("missing required signature")
	ErrAuthorityMismatch    = errors.New("authority mismatch")
	ErrMintAuthorityRevoked = errors.New("mint authority revoked")

	ErrIncorrectProgramID   = errors.New("incorrect program id")
	ErrMissingAccount       = errors.New("account not passed to instruction")
	ErrInvalidSeeds         = errors.New("address does not match seed derivation")
	ErrInvalidAccountData   = errors.New("invalid account data")
	ErrUninitializedAccount = errors.New("account not initialized")
	ErrMintMismatch         = errors.New("account mint mismatch")
	ErrReadonlyAccount      = errors.New("instruction modified a readonly account")
	ErrInvalidMetadata      = errors.New("invalid metadata")
	ErrSupplyOverflow       = errors.New("supply overflow")

	// ErrEditionSupply indicates a master edition was requested for a mint
	// that does not hold exactly one zero-decimal unit.
	ErrEditionSupply = errors.New("editions must have exactly one token")
)
