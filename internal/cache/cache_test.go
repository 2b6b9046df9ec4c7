package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/denoiser/internal/denoise"
)

var baseParams = KeyParams{
	Iterations:   100,
	Policy:       denoise.DegenerateFail,
	Significance: 1.96,
}

func TestKeyIsStable(t *testing.T) {
	m := [][]float64{{0, 1}, {2, 3}}
	k1 := Key(m, baseParams)
	k2 := Key([][]float64{{0, 1}, {2, 3}}, baseParams)

	assert.Equal(t, k1, k2)
	assert.True(t, strings.HasPrefix(k1, keyPrefix))
	assert.Len(t, k1, len(keyPrefix)+64)
}

func TestKeyDistinguishesInputs(t *testing.T) {
	m := [][]float64{{0, 1}, {2, 3}}
	base := Key(m, baseParams)

	with := func(edit func(p *KeyParams)) KeyParams {
		p := baseParams
		edit(&p)
		return p
	}

	assert.NotEqual(t, base, Key([][]float64{{0, 1}, {2, 4}}, baseParams))
	assert.NotEqual(t, base, Key([][]float64{{0, 1, 2, 3}}, baseParams))
	assert.NotEqual(t, base, Key(m, with(func(p *KeyParams) { p.Iterations = 99 })))
	assert.NotEqual(t, base, Key(m, with(func(p *KeyParams) { p.Magic = 0.5 })))
	assert.NotEqual(t, base, Key(m, with(func(p *KeyParams) { p.Policy = denoise.DegenerateFreeze })))
	assert.NotEqual(t, base, Key(m, with(func(p *KeyParams) { p.Significance = 2.58 })))
}

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4)

	_, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "a", "1", time.Minute))
	v, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	m := NewMemory(4)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "a", "1", time.Second))
	now = now.Add(2 * time.Second)

	_, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryEvictsSoonestExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)

	require.NoError(t, m.Set(ctx, "long", "1", time.Hour))
	require.NoError(t, m.Set(ctx, "short", "2", time.Minute))
	require.NoError(t, m.Set(ctx, "new", "3", time.Hour))

	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "long")
	assert.True(t, ok)
	_, ok, _ = m.Get(ctx, "new")
	assert.True(t, ok)
}

func TestMemoryOverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1)

	require.NoError(t, m.Set(ctx, "a", "1", 0))
	require.NoError(t, m.Set(ctx, "a", "2", 0))

	v, ok, _ := m.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}
