package process

// Notes:
// - Real termination is covered by renderer integration tests; here we only
//   check that pids which must never be signalled are ignored

import "testing"

func TestKillProcessGroup_IgnoresInvalidPIDs(t *testing.T) {
	t.Parallel()

	// 0 and negatives would address the caller's own group or arbitrary
	// groups; they must return without signalling anything.
	for _, pid := range []int{0, -1, 999999999} {
		KillProcessGroup(pid)
	}
}
