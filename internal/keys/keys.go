// Package keys reads and writes keypairs in the Solana CLI format: a JSON
// array of the 64 secret key bytes.
package keys

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blocto/solana-go-sdk/types"
)

// ErrInvalidKeypair is returned for files that do not hold a 64 byte key.
var ErrInvalidKeypair = errors.New("invalid keypair")

// Decode parses keypair JSON into an account.
func Decode(data []byte) (types.Account, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return types.Account{}, fmt.Errorf("%w: %v", ErrInvalidKeypair, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return types.Account{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeypair, len(ints), ed25519.PrivateKeySize)
	}
	raw := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return types.Account{}, fmt.Errorf("%w: byte %d out of range", ErrInvalidKeypair, i)
		}
		raw[i] = byte(v)
	}
	acc, err := types.AccountFromBytes(raw)
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: %v", ErrInvalidKeypair, err)
	}
	return acc, nil
}

// Encode renders acc as keypair JSON.
func Encode(acc types.Account) ([]byte, error) {
	ints := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

// Load reads a keypair file.
func Load(path string) (types.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Account{}, fmt.Errorf("read keypair %s: %w", path, err)
	}
	acc, err := Decode(data)
	if err != nil {
		return types.Account{}, fmt.Errorf("keypair %s: %w", path, err)
	}
	return acc, nil
}

// Save writes acc to path readable only by the owner. An existing file is
// never overwritten.
func Save(path string, acc types.Account) error {
	data, err := Encode(acc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create keypair dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create keypair %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write keypair %s: %w", path, err)
	}
	return f.Close()
}

// LoadOrCreate loads path, generating and saving a new keypair if the file
// does not exist yet.
func LoadOrCreate(path string) (types.Account, bool, error) {
	acc, err := Load(path)
	if err == nil {
		return acc, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return types.Account{}, false, err
	}
	acc = types.NewAccount()
	if err := Save(path, acc); err != nil {
		return types.Account{}, false, err
	}
	return acc, true, nil
}
