// Package cache stores serialized denoise responses keyed by their inputs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"github.com/tensorplex-labs/denoiser/internal/denoise"
)

const keyPrefix = "denoise:"

// Store is implemented by Redis and Memory. Get reports ok=false on a miss.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close()
}

// KeyParams are the pipeline settings that change a cached response.
type KeyParams struct {
	Iterations   int
	Magic        float64
	Policy       denoise.DegeneratePolicy
	Significance float64
}

// Key hashes the matrix shape, every entry's IEEE-754 bits and the pipeline settings.
// Row lengths are included so ragged inputs never collide with rectangular ones.
func Key(matrix [][]float64, params KeyParams) string {
	h := sha256.New()
	var buf [8]byte

	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	put(uint64(len(matrix)))
	for _, row := range matrix {
		put(uint64(len(row)))
		for _, v := range row {
			put(math.Float64bits(v))
		}
	}
	put(uint64(params.Iterations))
	put(math.Float64bits(params.Magic))
	put(math.Float64bits(params.Significance))
	put(uint64(len(params.Policy)))
	h.Write([]byte(params.Policy))

	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
