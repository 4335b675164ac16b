package dirq

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBucketNameWidth(t *testing.T) {
	b := newBucketName(time.Now(), 60)
	assert.Len(t, b, bucketWidth)
	assert.Equal(t, strings.ToLower(b), b)
}

func TestNewBucketNameDefaultsGranularity(t *testing.T) {
	now := time.Now()
	a := newBucketName(now, 0)
	b := newBucketName(now, 60)
	assert.Equal(t, b, a)
}

func TestNewElementNameWidth(t *testing.T) {
	s := newIDState(1234, 2)
	name, err := s.newElementName(time.Now())
	require.NoError(t, err)
	assert.Len(t, name, elementWidth)
	assert.Equal(t, strings.ToLower(name), name)
}

func TestNewElementNameMonotonicCounter(t *testing.T) {
	s := newIDState(1234, 0)
	now := time.Now()
	first, err := s.newElementName(now)
	require.NoError(t, err)
	second, err := s.newElementName(now)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "two names minted at the same instant must differ by counter")
}

func TestNewElementNameZeroRndHexIsDeterministicSuffix(t *testing.T) {
	s := newIDState(99, 0)
	now := time.Now()
	name, err := s.newElementName(now)
	require.NoError(t, err)
	assert.Equal(t, "00", name[len(name)-randWidth:])
}

func TestDeriveRndHexInRange(t *testing.T) {
	for _, pid := range []int{1, 2, 100, 65535, 999999} {
		r := deriveRndHex(pid)
		assert.GreaterOrEqual(t, r, 0)
		assert.LessOrEqual(t, r, randWidth)
	}
}

func TestNewTemporaryNameDisjointFromElementNames(t *testing.T) {
	tmp := newTemporaryName()
	assert.Contains(t, tmp, "-")
	assert.NotEqual(t, elementWidth, len(tmp))
}

func TestNewIDStateClampsRndHex(t *testing.T) {
	assert.Equal(t, 0, newIDState(1, -5).rndHex)
	assert.Equal(t, randWidth, newIDState(1, 999).rndHex)
}
