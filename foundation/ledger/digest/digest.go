// Package digest provides the one-way hash functions used to fingerprint
// documents and to compute block hashes.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// ErrUnknownAlgorithm is returned when a hasher is requested by a name
// that is not registered.
var ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

// Set of supported algorithm names.
const (
	NameSHA256     = "sha256"
	NameKeccak256  = "keccak256"
	NameSHA3_256   = "sha3-256"
	NameBLAKE2b256 = "blake2b-256"
)

// =============================================================================

// Hasher maps an arbitrary byte sequence to a fixed length lower-case
// hexadecimal digest. The zero value is not usable, use one of the package
// level hashers or Lookup.
type Hasher struct {
	name string
	size int
	sum  func(data []byte) []byte
}

// Name returns the registered name of the algorithm.
func (h Hasher) Name() string {
	return h.name
}

// Size returns the number of bytes in a raw digest.
func (h Hasher) Size() int {
	return h.size
}

// HexLen returns the number of characters in a hex encoded digest. This is
// also the largest difficulty a proof of work can ask for.
func (h Hasher) HexLen() int {
	return h.size * 2
}

// Sum returns the hex encoded digest of the data.
func (h Hasher) Sum(data []byte) string {
	return hex.EncodeToString(h.sum(data))
}

// IsDigest reports whether the string has the shape of a digest produced
// by this hasher.
func (h Hasher) IsDigest(s string) bool {
	if len(s) != h.HexLen() {
		return false
	}

	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}

	return true
}

// String implements the fmt.Stringer interface.
func (h Hasher) String() string {
	return h.name
}

// =============================================================================

// SHA256 is the default hasher.
var SHA256 = Hasher{
	name: NameSHA256,
	size: sha256.Size,
	sum: func(data []byte) []byte {
		hash := sha256.Sum256(data)
		return hash[:]
	},
}

// Keccak256 is the Ethereum flavor of SHA-3, prior to the NIST padding change.
var Keccak256 = Hasher{
	name: NameKeccak256,
	size: 32,
	sum: func(data []byte) []byte {
		return crypto.Keccak256(data)
	},
}

// SHA3_256 is the NIST standardized SHA-3 with a 256 bit output.
var SHA3_256 = Hasher{
	name: NameSHA3_256,
	size: 32,
	sum: func(data []byte) []byte {
		hash := sha3.Sum256(data)
		return hash[:]
	},
}

// BLAKE2b256 is BLAKE2b with a 256 bit output.
var BLAKE2b256 = Hasher{
	name: NameBLAKE2b256,
	size: blake2b.Size256,
	sum: func(data []byte) []byte {
		hash := blake2b.Sum256(data)
		return hash[:]
	},
}

var hashers = map[string]Hasher{
	NameSHA256:     SHA256,
	NameKeccak256:  Keccak256,
	NameSHA3_256:   SHA3_256,
	NameBLAKE2b256: BLAKE2b256,
}

// Lookup returns the hasher registered under the specified name. The name
// is case insensitive.
func Lookup(name string) (Hasher, error) {
	h, exists := hashers[strings.ToLower(name)]
	if !exists {
		return Hasher{}, fmt.Errorf("%q: %w", name, ErrUnknownAlgorithm)
	}

	return h, nil
}

// Names returns the sorted list of registered algorithm names.
func Names() []string {
	names := make([]string, 0, len(hashers))
	for name := range hashers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
