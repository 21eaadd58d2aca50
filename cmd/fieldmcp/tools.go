package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kasuganosora/seqfield/pkg/changeset"
	"github.com/kasuganosora/seqfield/pkg/compose"
	"github.com/kasuganosora/seqfield/pkg/delta"
	"github.com/kasuganosora/seqfield/pkg/editor"
	"github.com/kasuganosora/seqfield/pkg/invert"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/rebase"
	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolDeps holds the (currently stateless) shared dependencies for the
// tool handlers; it exists to mirror the teacher's ToolDeps shape so
// adding a lattice store / audit log handle later is a field, not a
// signature change.
type ToolDeps struct{}

// buildScenario constructs the same base/next pair across all four
// tools: base inserts insertCount brand-new cells, next removes
// removeCount of them starting at removeOffset.
func buildScenario(insertCount, removeOffset, removeCount int) (changeset.TaggedChange, changeset.TaggedChange, *revision.Table) {
	r1 := uuid.New().String()
	r2 := uuid.New().String()
	md := revision.NewTable(r1, r2)

	e1 := editor.New(r1)
	e1.Insert(0, insertCount, mark.Left)
	base := e1.Tag()

	e2 := editor.New(r2)
	e2.Remove(removeOffset, removeCount)
	next := e2.Tag()

	return base, next, md
}

func summarizeMarks(marks []mark.Mark) string {
	var sb strings.Builder
	for i, m := range marks {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s x%d", m.Effect.Kind(), m.Count)
	}
	return sb.String()
}

func (d *ToolDeps) HandleCompose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	insertCount := request.GetInt("insert_count", 0)
	removeOffset := request.GetInt("remove_offset", 0)
	removeCount := request.GetInt("remove_count", 0)
	if insertCount <= 0 || removeCount <= 0 {
		return mcp.NewToolResultError("insert_count and remove_count must be positive"), nil
	}

	base, next, md := buildScenario(insertCount, removeOffset, removeCount)
	out := compose.Two(base, next, md, nil)
	return mcp.NewToolResultText(fmt.Sprintf("composed %d marks: %s", len(out.Marks), summarizeMarks(out.Marks))), nil
}

func (d *ToolDeps) HandleInvert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	insertCount := request.GetInt("insert_count", 0)
	removeOffset := request.GetInt("remove_offset", 0)
	removeCount := request.GetInt("remove_count", 0)
	isRollback := request.GetBool("is_rollback", false)
	if insertCount <= 0 || removeCount <= 0 {
		return mcp.NewToolResultError("insert_count and remove_count must be positive"), nil
	}

	base, next, md := buildScenario(insertCount, removeOffset, removeCount)
	composed := compose.Two(base, next, md, nil)
	nextRev := next.Revision
	newRev := uuid.New().String()
	inv := invert.Invert(changeset.Tag(composed, nextRev), isRollback, newRev, nil)
	return mcp.NewToolResultText(fmt.Sprintf("inverted %d marks: %s", len(inv.Marks), summarizeMarks(inv.Marks))), nil
}

func (d *ToolDeps) HandleRebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	insertCount := request.GetInt("insert_count", 0)
	removeOffset := request.GetInt("remove_offset", 0)
	removeCount := request.GetInt("remove_count", 0)
	if insertCount <= 0 || removeCount <= 0 {
		return mcp.NewToolResultError("insert_count and remove_count must be positive"), nil
	}

	base, next, md := buildScenario(insertCount, removeOffset, removeCount)
	out := rebase.Rebase(base, next, md, nil)
	return mcp.NewToolResultText(fmt.Sprintf("rebased %d marks: %s", len(out.Marks), summarizeMarks(out.Marks))), nil
}

func (d *ToolDeps) HandleDelta(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	insertCount := request.GetInt("insert_count", 0)
	removeOffset := request.GetInt("remove_offset", 0)
	removeCount := request.GetInt("remove_count", 0)
	if insertCount <= 0 || removeCount <= 0 {
		return mcp.NewToolResultError("insert_count and remove_count must be positive"), nil
	}

	base, next, md := buildScenario(insertCount, removeOffset, removeCount)
	composed := compose.Two(base, next, md, nil)
	d2 := delta.IntoDelta(changeset.Tag(composed, next.Revision), nil)
	return mcp.NewToolResultText(fmt.Sprintf("delta: %d build, %d global, %d renames", len(d2.Build), len(d2.Global), len(d2.Renames))), nil
}
