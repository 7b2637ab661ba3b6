// Package checksum computes content digests for exported and ingested files.
//
// Digests are BLAKE2b-256, hex encoded. File hashes the bytes on disk; Array
// and Pixels hash only the pixel content, so two files carrying the same
// image under different headers share a pixel digest.
package checksum

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"suitcase/internal/domain"
	"suitcase/internal/format"
)

// Digest is a hex encoded BLAKE2b-256 sum
type Digest string

// Short returns the first 12 hex digits, for display
func (d Digest) Short() string {
	if len(d) <= 12 {
		return string(d)
	}
	return string(d[:12])
}

func newHash() hash.Hash {
	// New256 only fails for an oversized key
	h, _ := blake2b.New256(nil)
	return h
}

// File returns the digest of the bytes of the file at path
func File(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// Array returns the digest of an array's dtype, shape and element bytes.
// Components are length-prefixed so distinct arrays cannot collide by
// concatenation.
func Array(a *domain.Array) Digest {
	h := newHash()
	writeField(h, []byte(a.DType))

	var dim [8]byte
	binary.LittleEndian.PutUint64(dim[:], uint64(len(a.Shape)))
	h.Write(dim[:])
	for _, n := range a.Shape {
		binary.LittleEndian.PutUint64(dim[:], uint64(n))
		h.Write(dim[:])
	}

	writeField(h, a.Data)
	return Digest(hex.EncodeToString(h.Sum(nil)))
}

// Pixels decodes the file at path with codec and returns the digest of its
// pixel array
func Pixels(codec format.Codec, path string) (Digest, error) {
	img, err := codec.Open(path)
	if err != nil {
		return "", err
	}
	if img.Data == nil {
		return "", fmt.Errorf("%s: %w: no pixel data", path, domain.ErrInvalidArray)
	}
	return Array(img.Data), nil
}

func writeField(h hash.Hash, b []byte) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
	h.Write(n[:])
	h.Write(b)
}
