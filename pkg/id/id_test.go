package id_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contactform/pkg/id"
)

func TestNew_Format(t *testing.T) {
	t.Parallel()

	got := id.New()
	require.Len(t, got, 26)
	for _, r := range got {
		require.Contains(t, "0123456789ABCDEFGHJKMNPQRSTVWXYZ", string(r))
	}
}

func TestNew_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		v := id.New()
		require.False(t, seen[v], "duplicate id generated: %s", v)
		seen[v] = true
	}
}

func TestNew_SortableByCreationTime(t *testing.T) {
	t.Parallel()

	first := id.New()
	time.Sleep(2 * time.Millisecond)
	second := id.New()

	require.Less(t, first[:10], second[:10], "timestamp prefix must sort by creation time")
}
