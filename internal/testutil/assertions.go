package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/recongraph/internal/reconstruct"
	"github.com/vk/recongraph/internal/task"
)

// LastResult returns the most recent update cycle of a successful run.
func LastResult(t *testing.T, result *HarnessResult) *reconstruct.UpdateResult {
	t.Helper()
	require.NoError(t, result.Err)
	results := result.App.Results()
	require.NotEmpty(t, results, "the run produced no update cycles")
	return results[len(results)-1]
}

// ComputedKinds lists the kinds of the layers an update computed, in
// compute order.
func ComputedKinds(t *testing.T, res *reconstruct.UpdateResult) []task.Kind {
	t.Helper()
	kinds := make([]task.Kind, 0, len(res.Computed))
	for _, ref := range res.Computed {
		l, ok := ref.Get()
		require.True(t, ok, "computed layer %s no longer exists", ref)
		kinds = append(kinds, l.Kind())
	}
	return kinds
}

// AssertComputedBefore checks that every layer of kind first computed
// before every layer of kind then.
func AssertComputedBefore(t *testing.T, res *reconstruct.UpdateResult, first, then task.Kind) {
	t.Helper()
	lastFirst, firstThen := -1, -1
	for i, k := range ComputedKinds(t, res) {
		if k == first {
			lastFirst = i
		}
		if k == then && firstThen < 0 {
			firstThen = i
		}
	}
	require.GreaterOrEqual(t, lastFirst, 0, "no %s layer computed", first)
	require.GreaterOrEqual(t, firstThen, 0, "no %s layer computed", then)
	require.Less(t, lastFirst, firstThen, "%s must compute before %s", first, then)
}
