// Package procutil prepares long-running child processes so they can be
// torn down together with everything they spawn.
//
// PrepareBackground puts the child in its own process group (and hides the
// console window on Windows); KillTree terminates that group. The split
// matters for `go run`, which leaves the compiled server as a grandchild.
package procutil
