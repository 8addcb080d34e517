package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithActor(t *testing.T) {
	ctx := WithActor(context.Background(), "alice", "developer")

	assert.Equal(t, "alice", GetActor(ctx))
	assert.Equal(t, "developer", GetRole(ctx))
}

func TestGetActor_Missing(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetActor(ctx))
	assert.Empty(t, GetRole(ctx))
}
