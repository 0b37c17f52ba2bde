package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNow(t *testing.T) {
	clock := New()
	before := time.Now().Add(-time.Second)
	got := clock.Now()
	require.True(t, got.After(before))
}
