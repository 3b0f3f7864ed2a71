package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	log := New()
	ctx := AddToContext(context.Background(), log)
	require.Same(t, log, FromContext(ctx))
}

func TestFromContextWithoutLogger(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
}
