package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/carvtrainer/carvtrainer/internal/models"
	"github.com/carvtrainer/carvtrainer/internal/progress"
	"github.com/carvtrainer/carvtrainer/internal/report"
	"github.com/carvtrainer/carvtrainer/internal/storage"
	"github.com/carvtrainer/carvtrainer/internal/testutil"
)

func testServer(t *testing.T) (*Server, progress.Log, storage.Provider) {
	t.Helper()

	db := testutil.TestDB(t)
	_, store := testutil.TestLibrary(t)

	srv := New(db, store)
	return srv, db, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_sessions":
		result, err = srv.listSessions(ctx, req)
	case "get_session":
		result, err = srv.getSession(ctx, req)
	case "get_training_plan":
		result, err = srv.getTrainingPlan(ctx, req)
	case "parse_training_plan":
		result, err = srv.parseTrainingPlan(ctx, req)
	case "get_plan_contract":
		result, err = srv.getPlanContract(ctx, req)
	case "list_screenshots":
		result, err = srv.listScreenshots(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func seedEntry(t *testing.T, db progress.Log, id, plan string) {
	t.Helper()
	err := db.AddEntry(models.Entry{
		ID:         id,
		RecordedAt: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		Source:     models.SourceUpload,
		SkiIQ:      "120",
		Plan:       plan,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestListAndGetSession(t *testing.T) {
	srv, db, _ := testServer(t)
	seedEntry(t, db, "s1", "# Plan\n")

	r := callTool(t, srv, "list_sessions", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"s1"`) || !strings.Contains(text, `"total": 1`) {
		t.Errorf("list result = %q", text)
	}

	r = callTool(t, srv, "get_session", map[string]interface{}{"id": "s1"})
	text = resultText(r)
	if !strings.Contains(text, `"ski_iq": "120"`) {
		t.Errorf("get result = %q", text)
	}
}

func TestGetSessionMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_session", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing session")
	}
}

func TestGetTrainingPlan(t *testing.T) {
	srv, db, _ := testServer(t)
	seedEntry(t, db, "s1", "# My Plan\n\n## Immediate Focus\nEdge angle.\n")
	seedEntry(t, db, "s2", "")

	r := callTool(t, srv, "get_training_plan", map[string]interface{}{"id": "s1"})
	if !strings.HasPrefix(resultText(r), "# My Plan") {
		t.Errorf("plan = %q", resultText(r))
	}

	r = callTool(t, srv, "get_training_plan", map[string]interface{}{"id": "s2"})
	if !r.IsError {
		t.Error("expected error for session without a plan")
	}
}

func TestParseTrainingPlan(t *testing.T) {
	srv, _, _ := testServer(t)

	plan := "# Plan\n\n## Progress Checkpoints\n- Week 1: carve cleanly\n- Week 2: more angle\n"
	r := callTool(t, srv, "parse_training_plan", map[string]interface{}{"plan": plan})

	var parsed report.ParsedPlan
	if err := json.Unmarshal([]byte(resultText(r)), &parsed); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if parsed.Title != "Plan" || len(parsed.Checkpoints) != 2 {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestGetPlanContract(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_plan_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "## 3 Key Drills") {
		t.Errorf("contract missing drill section: %q", text[:100])
	}
}

func TestListScreenshots(t *testing.T) {
	srv, _, store := testServer(t)
	_ = store.Write("2024/01/a.png", []byte("a"))
	_ = store.Write("undated/b.png", []byte("b"))

	r := callTool(t, srv, "list_screenshots", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "a.png") || !strings.Contains(text, "b.png") {
		t.Errorf("list = %q", text)
	}
}
