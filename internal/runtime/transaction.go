package runtime

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

var (
	// ErrEmptyTransaction is returned for a transaction without instructions.
	ErrEmptyTransaction = errors.New("transaction has no instructions")
	// ErrSignatureVerification is returned when a required signature is
	// missing or does not verify against the message.
	ErrSignatureVerification = errors.New("signature verification failed")
)

// Transaction is a signed, ordered list of instructions executed atomically.
// The fee payer always signs and is always writable.
type Transaction struct {
	FeePayer        common.PublicKey
	RecentBlockhash string
	Instructions    []types.Instruction
	Signatures      map[common.PublicKey][]byte
}

// NewTransaction builds an unsigned transaction.
func NewTransaction(feePayer common.PublicKey, recentBlockhash string, instructions ...types.Instruction) *Transaction {
	return &Transaction{
		FeePayer:        feePayer,
		RecentBlockhash: recentBlockhash,
		Instructions:    instructions,
		Signatures:      make(map[common.PublicKey][]byte),
	}
}

// compile lays the transaction out as a legacy cluster message: fee payer
// first, then signed writable, signed readonly, unsigned writable and
// unsigned readonly keys.
func (tx *Transaction) compile() types.Message {
	return types.NewMessage(types.NewMessageParam{
		FeePayer:        tx.FeePayer,
		RecentBlockhash: tx.RecentBlockhash,
		Instructions:    tx.Instructions,
	})
}

// Message returns the bytes every signer signs. They match the message a
// cluster client would sign for the same instructions.
func (tx *Transaction) Message() ([]byte, error) {
	msg := tx.compile()
	data, err := msg.Serialize()
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}

// Sign adds signatures from each signer over the current message.
func (tx *Transaction) Sign(signers ...types.Account) error {
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	if tx.Signatures == nil {
		tx.Signatures = make(map[common.PublicKey][]byte)
	}
	for _, s := range signers {
		tx.Signatures[s.PublicKey] = ed25519.Sign(s.PrivateKey, msg)
	}
	return nil
}

// Signers lists every key that must sign, fee payer first.
func (tx *Transaction) Signers() []common.PublicKey {
	msg := tx.compile()
	return msg.Accounts[:msg.Header.NumRequireSignatures]
}

// Writable lists every key the transaction may modify, fee payer first.
func (tx *Transaction) Writable() []common.PublicKey {
	msg := tx.compile()
	h := msg.Header
	signed := int(h.NumRequireSignatures)
	out := append([]common.PublicKey(nil), msg.Accounts[:signed-int(h.NumReadonlySignedAccounts)]...)
	return append(out, msg.Accounts[signed:len(msg.Accounts)-int(h.NumReadonlyUnsignedAccounts)]...)
}

// ID is the base58 fee payer signature. It is empty until the fee payer signs.
func (tx *Transaction) ID() string {
	sig, ok := tx.Signatures[tx.FeePayer]
	if !ok {
		return ""
	}
	return base58.Encode(sig)
}

// Verify checks that every required signer signed the current message.
func (tx *Transaction) Verify() error {
	if len(tx.Instructions) == 0 {
		return ErrEmptyTransaction
	}
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	for _, key := range tx.Signers() {
		sig, ok := tx.Signatures[key]
		if !ok {
			return fmt.Errorf("%w: missing signature for %s", ErrSignatureVerification, key.ToBase58())
		}
		if len(sig) != ed25519.SignatureSize || !ed25519.Verify(ed25519.PublicKey(key.Bytes()), msg, sig) {
			return fmt.Errorf("%w: invalid signature for %s", ErrSignatureVerification, key.ToBase58())
		}
	}
	return nil
}
