package tokens

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNilCounterUsesHeuristic(t *testing.T) {
	var c *Counter
	require.Equal(t, 0, c.Count(""))
	require.Equal(t, 1, c.Count("abc"))
	require.Equal(t, 3, c.Count("twelve chars"))
}
