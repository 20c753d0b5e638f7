package client

import (
	"context"
	"io"

	"github.com/odvcencio/devroom/pkg/workspace"
)

// Sandbox is the in-browser execution environment consumed, not
// implemented, here: it mounts a file-tree and runs processes inside it.
type Sandbox interface {
	// Mount replaces the sandbox's file system with the given tree.
	Mount(ctx context.Context, tree workspace.FileTree) error

	// Spawn starts a process inside the sandbox.
	Spawn(ctx context.Context, command string, args ...string) (*Process, error)

	// OnServerReady registers a handler invoked when a process inside the
	// sandbox starts listening.
	OnServerReady(fn ServerReadyHandler)
}

// Process is a running sandbox process.
type Process struct {
	// Output streams combined stdout/stderr.
	Output io.ReadCloser

	// Exit yields the exit code once the process finishes.
	Exit <-chan int
}

// ServerReadyHandler receives server-ready notifications.
type ServerReadyHandler func(port int, url string)
