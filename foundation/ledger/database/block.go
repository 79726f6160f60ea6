package database

import (
	"strconv"
	"time"

	"github.com/ardanlabs/notary/foundation/ledger/digest"
	"github.com/ardanlabs/notary/foundation/ledger/pow"
)

// GenesisPrevHash is the sentinel previous hash carried by the genesis block.
const GenesisPrevHash = "0"

// =============================================================================

// Block represents an immutable record in the ledger.
type Block struct {
	Index         uint64 // Position in the chain, starting at 0 for genesis.
	TimeStamp     int64  // Unix nanoseconds the block was created.
	PayloadDigest string // Digest of the notarized data, empty for genesis.
	PrevHash      string // Hash of the previous block, "0" for genesis.
	Difficulty    uint   // Number of leading zeros the hash was mined for.
	Nonce         uint64 // Value identified to solve the hash solution.
	Hash          string // Digest of the header and the nonce.
}

// Header returns the bytes the proof of work is performed over. The nonce
// is appended to these bytes to form the hashed data.
func (b Block) Header() []byte {
	return Header(b.Index, b.PayloadDigest, b.PrevHash, b.TimeStamp, b.Difficulty)
}

// ComputeHash recomputes the hash of the block from its fields.
func (b Block) ComputeHash(h digest.Hasher) string {
	return pow.HashNonce(h, b.Header(), b.Nonce)
}

// Time returns the block timestamp as a time value.
func (b Block) Time() time.Time {
	return time.Unix(0, b.TimeStamp).UTC()
}

// IsGenesis reports whether this is the first block of a chain.
func (b Block) IsGenesis() bool {
	return b.Index == 0
}

// Header builds the proof of work header from the block fields as
// "index|payload|prev|timestamp|difficulty|". The separators keep the
// decimal fields from running into each other. The difficulty is hashed so
// a block can't be relabelled with a cheaper target after it was mined.
func Header(index uint64, payloadDigest string, prevHash string, timeStamp int64, difficulty uint) []byte {
	data := make([]byte, 0, 20+len(payloadDigest)+len(prevHash)+20+20+5)
	data = strconv.AppendUint(data, index, 10)
	data = append(data, '|')
	data = append(data, payloadDigest...)
	data = append(data, '|')
	data = append(data, prevHash...)
	data = append(data, '|')
	data = strconv.AppendInt(data, timeStamp, 10)
	data = append(data, '|')
	data = strconv.AppendUint(data, uint64(difficulty), 10)
	data = append(data, '|')

	return data
}

// =============================================================================

// BlockData represents what is written to storage. The field order follows
// the published record layout.
type BlockData struct {
	Index         uint64 `json:"index"`
	TimeStamp     int64  `json:"timestamp"`
	PayloadDigest string `json:"payload_digest"`
	PrevHash      string `json:"prev_hash"`
	Difficulty    uint   `json:"difficulty"`
	Nonce         uint64 `json:"nonce"`
	Hash          string `json:"hash"`
}

// NewBlockData constructs the value to serialize to storage.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Index:         block.Index,
		TimeStamp:     block.TimeStamp,
		PayloadDigest: block.PayloadDigest,
		PrevHash:      block.PrevHash,
		Difficulty:    block.Difficulty,
		Nonce:         block.Nonce,
		Hash:          block.Hash,
	}
}

// ToBlock converts a BlockData into a Block.
func ToBlock(blockData BlockData) Block {
	return Block{
		Index:         blockData.Index,
		TimeStamp:     blockData.TimeStamp,
		PayloadDigest: blockData.PayloadDigest,
		PrevHash:      blockData.PrevHash,
		Difficulty:    blockData.Difficulty,
		Nonce:         blockData.Nonce,
		Hash:          blockData.Hash,
	}
}
