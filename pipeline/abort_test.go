package pipeline_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scotline/pkg/pipeline"
)

func TestNewAbort(t *testing.T) {
	abort := pipeline.NewAbort(401, "token expired")

	assert.Equal(t, "Unauthorized", abort.Title)
	assert.Equal(t, 401, abort.Status)
	assert.Equal(t, "token expired", abort.Detail)
	assert.False(t, abort.Timestamp.IsZero())
}

func TestAsAbort(t *testing.T) {
	abort := pipeline.NewAbort(403, "not allowed")

	got, ok := pipeline.AsAbort(abort)
	require.True(t, ok)
	assert.Equal(t, abort, got)

	_, ok = pipeline.AsAbort(errors.New("plain failure"))
	assert.False(t, ok)

	_, ok = pipeline.AsAbort(nil)
	assert.False(t, ok)
}
