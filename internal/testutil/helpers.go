package testutil

import "testing"

// Swap replaces *target with value for the duration of the test and restores
// the original in t.Cleanup. Intended for package-level function seams:
//
//	testutil.Swap(t, &runtimeWindowHideFn, func(context.Context) {})
//
// Tests using Swap must not call t.Parallel.
func Swap[T any](t *testing.T, target *T, value T) {
	t.Helper()
	original := *target
	*target = value
	t.Cleanup(func() {
		*target = original
	})
}
