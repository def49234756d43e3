package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type setChecker struct {
	taken map[string]bool
	calls int
	err   error
}

func (c *setChecker) Exists(_ context.Context, link string) (bool, error) {
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	return c.taken[link], nil
}

func TestRandomToken(t *testing.T) {
	tests := []struct {
		name   string
		length int
	}{
		{name: "Generate token with length 3", length: 3},
		{name: "Generate token with length 16", length: 16},
		{name: "Generate token with length 0", length: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RandomToken(tt.length)
			require.NoError(t, err)
			assert.Len(t, got, tt.length)

			for _, r := range got {
				assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected rune %q", r)
			}
		})
	}
}

func TestCombinations(t *testing.T) {
	assert.Equal(t, uint64(1), Combinations(0, 100))
	assert.Equal(t, uint64(62), Combinations(1, 100))
	assert.Equal(t, uint64(100), Combinations(2, 100))
	assert.Equal(t, uint64(62*62*62), Combinations(3, 1<<40))
	assert.Equal(t, uint64(1<<40), Combinations(80, 1<<40))
}

func TestAllocator_FreeOnFirstTry(t *testing.T) {
	checker := &setChecker{taken: map[string]bool{}}
	a := NewAllocator(checker, DefaultConfig())

	token, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Len(t, token, DefaultMinLength)
	assert.Equal(t, 1, checker.calls)
}

func TestAllocator_GrowsAfterCollisions(t *testing.T) {
	checker := &setChecker{taken: map[string]bool{"aaa": true, "bbb": true, "ccc": true}}
	a := NewAllocator(checker, Config{MinLength: 3, MaxLength: 10, AttemptsPerLength: 3})

	seq := []string{"aaa", "aaa", "bbb", "ccc", "dddd"}
	a.random = func(length int) (string, error) {
		next := seq[0]
		seq = seq[1:]
		return next, nil
	}

	token, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dddd", token)
	assert.Equal(t, 4, checker.calls, "duplicate draws must not hit storage")
}

func TestAllocator_SkipsReserved(t *testing.T) {
	checker := &setChecker{taken: map[string]bool{}}
	a := NewAllocator(checker, Config{MinLength: 4, AttemptsPerLength: 5, Reserved: []string{"Peek", "make"}})

	seq := []string{"peek", "make", "abcd"}
	a.random = func(int) (string, error) {
		next := seq[0]
		seq = seq[1:]
		return next, nil
	}

	token, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abcd", token)
	assert.True(t, a.IsReserved("PEEK"))
	assert.False(t, a.IsReserved("abcd"))
}

func TestAllocator_ExhaustsSmallSpace(t *testing.T) {
	taken := map[string]bool{}
	for _, r := range Alphabet {
		taken[string(r)] = true
	}
	checker := &setChecker{taken: taken}
	a := NewAllocator(checker, Config{MinLength: 1, MaxLength: 1, AttemptsPerLength: 1000})

	_, err := a.Allocate(context.Background())
	assert.ErrorIs(t, err, ErrTokenSpaceExhausted)
	assert.Equal(t, len(Alphabet), checker.calls)
}

func TestAllocator_Errors(t *testing.T) {
	t.Run("storage error", func(t *testing.T) {
		a := NewAllocator(&setChecker{err: errors.New("db down")}, DefaultConfig())
		_, err := a.Allocate(context.Background())
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		a := NewAllocator(&setChecker{}, DefaultConfig())
		_, err := a.Allocate(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
