package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Nop

	assert.NoError(t, c.Set(ctx, "k", 1))
	var got int
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)
	assert.NoError(t, c.DeleteByPrefix(ctx, "k"))
}
