package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odvcencio/devroom/pkg/workspace"
)

// Result is the outcome of one pipeline invocation.
type Result struct {
	Reply Reply

	// TreeSaved reports that the reply carried a fileTree and the
	// mutation was persisted.
	TreeSaved bool

	// SaveErr is set when the reply carried a fileTree but persisting it
	// failed. The reply itself is still usable as chat text.
	SaveErr error
}

// Pipeline turns a prompt into an interpreted reply and, when the reply
// carries a file-tree, persists the mutation.
type Pipeline struct {
	gen    Generator
	store  workspace.Store
	logger *slog.Logger
}

// NewPipeline constructs a pipeline.
func NewPipeline(gen Generator, store workspace.Store, logger *slog.Logger) *Pipeline {
	return &Pipeline{gen: gen, store: store, logger: logger}
}

// Invoke calls the generation service and interprets the reply. The only
// error returned is a generation-service failure (network/auth/quota);
// malformed output is never an error, it degrades to plain text. A
// file-tree mutation re-loads the workspace by id immediately before
// overwriting, so the write applies to the freshest persisted state. There
// is no merge and no version check: the last writer wins.
func (p *Pipeline) Invoke(ctx context.Context, workspaceID, prompt string) (Result, error) {
	raw, err := p.gen.Generate(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("generate: %w", err)
	}

	reply := Interpret(raw)
	if !reply.Structured {
		p.logger.Warn("model reply is not structured, passing through as text",
			"workspace_id", workspaceID)
	}

	result := Result{Reply: reply}
	if reply.FileTree == nil {
		return result, nil
	}

	ws, err := p.store.Load(ctx, workspaceID)
	if err != nil {
		p.logger.Error("failed to load workspace for file-tree update",
			"workspace_id", workspaceID, "error", err)
		result.SaveErr = err
		return result, nil
	}

	// The store may retain the tree it is handed; clone so the reply's
	// broadcast payload stays independent of the persisted state.
	ws.FileTree = reply.FileTree.Clone()
	ws.Revision++
	if err := p.store.Save(ctx, ws); err != nil {
		p.logger.Error("failed to persist file-tree update",
			"workspace_id", workspaceID, "error", err)
		result.SaveErr = err
		return result, nil
	}

	result.TreeSaved = true
	return result, nil
}
