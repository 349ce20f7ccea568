// Package simulator synthesizes execution session snapshots for the mock
// backend. Output depends only on the seed and the progress value.
package simulator

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/poco-ai/poco-console/internals/schemas"
)

// Seed is the server-side identity of a session.
type Seed struct {
	SessionID string
	Prompt    string
	CreatedAt time.Time
}

type Simulator struct {
	minStep int
	maxStep int
}

func New(minStep, maxStep int) *Simulator {
	if minStep < 1 {
		minStep = 1
	}
	if maxStep < minStep {
		maxStep = minStep
	}
	return &Simulator{minStep: minStep, maxStep: maxStep}
}

// Next returns the progress that follows current. It is 100 at most and
// never below current.
func (s *Simulator) Next(sessionID string, current int) int {
	if current < 0 {
		current = 0
	}
	if current >= 100 {
		return 100
	}
	span := uint32(s.maxStep - s.minStep + 1)
	step := s.minStep + int(hashOf(sessionID+":"+strconv.Itoa(current))%span)
	return min(100, current+step)
}

// Advance moves the session one step forward from current.
func (s *Simulator) Advance(seed Seed, current int) schemas.ExecutionSession {
	return s.Snapshot(seed, s.Next(seed.SessionID, current))
}

// Snapshot builds the session as it looks at the given progress.
func (s *Simulator) Snapshot(seed Seed, progress int) schemas.ExecutionSession {
	progress = max(0, min(100, progress))
	created := seedTime(seed)

	patch := &schemas.StatePatch{
		Todos:       todosAt(progress),
		CurrentStep: currentStep(progress),
	}
	patch.Artifacts = artifactsAt(seed, created, progress)
	patch.SkillsUsed = skillsAt(progress)
	patch.McpStatus = mcpAt(seed.SessionID, progress)

	session := schemas.ExecutionSession{
		SessionID:  seed.SessionID,
		UserPrompt: seed.Prompt,
		TaskName:   schemas.TaskName(seed.Prompt),
		Time:       created.UTC().Format(time.RFC3339),
		StatePatch: patch,
		Progress:   progress,
	}
	if session.TaskName == "" {
		session.NewMessage = &schemas.NewMessage{Title: fmt.Sprintf("Session %s", seed.SessionID)}
	}
	return session
}

type phase struct {
	id    string
	title string
	start int
	end   int
}

var phases = []phase{
	{id: "todo-1", title: "Understand the request", start: 0, end: 20},
	{id: "todo-2", title: "Collect workspace context", start: 20, end: 40},
	{id: "todo-3", title: "Draft the solution", start: 40, end: 65},
	{id: "todo-4", title: "Review and refine", start: 65, end: 90},
	{id: "todo-5", title: "Package deliverables", start: 90, end: 100},
}

func todosAt(progress int) []schemas.Todo {
	todos := make([]schemas.Todo, 0, len(phases))
	for _, p := range phases {
		status := schemas.TodoStatusPending
		switch {
		case progress >= p.end:
			status = schemas.TodoStatusCompleted
		case progress >= p.start:
			status = schemas.TodoStatusInProgress
		}
		todos = append(todos, schemas.Todo{ID: p.id, Title: p.title, Status: status})
	}
	return todos
}

func currentStep(progress int) string {
	if progress >= 100 {
		return "Completed"
	}
	for _, p := range phases {
		if progress >= p.start && progress < p.end {
			return p.title
		}
	}
	return ""
}

func artifactsAt(seed Seed, created time.Time, progress int) []schemas.Artifact {
	var out []schemas.Artifact
	at := func(threshold int) string {
		return created.Add(time.Duration(threshold) * 6 * time.Second).UTC().Format(time.RFC3339)
	}
	if progress >= 20 {
		out = append(out, schemas.Artifact{
			ID:        "artifact-plan",
			Type:      schemas.ArtifactTypeText,
			Title:     "Execution plan",
			Content:   fmt.Sprintf("Plan for %q:\n1. Read the workspace\n2. Draft the answer\n3. Review and package", seed.Prompt),
			CreatedAt: at(20),
		})
	}
	if progress >= 45 {
		out = append(out, schemas.Artifact{
			ID:        "artifact-diff",
			Type:      schemas.ArtifactTypeCodeDiff,
			Title:     "workspace.patch",
			Content:   "--- a/notes.md\n+++ b/notes.md\n@@ -1 +1,2 @@\n # Notes\n+Draft generated by poco\n",
			CreatedAt: at(45),
		})
	}
	if progress >= 65 {
		out = append(out, schemas.Artifact{
			ID:        "artifact-summary",
			Type:      schemas.ArtifactTypeMarkdown,
			Title:     "Summary report",
			Content:   fmt.Sprintf("# Summary\n\n**Task:** %s\n\n- Context collected\n- Draft written\n", schemas.TaskName(seed.Prompt)),
			CreatedAt: at(65),
		})
	}
	if progress >= 80 {
		out = append(out, schemas.Artifact{
			ID:        "artifact-meta",
			Type:      schemas.ArtifactTypeJSON,
			Title:     "run-metadata.json",
			Content:   fmt.Sprintf("{\n  \"session_id\": %q,\n  \"steps\": %d\n}", seed.SessionID, len(phases)),
			CreatedAt: at(80),
		})
	}
	if progress >= 90 {
		out = append(out, schemas.Artifact{
			ID:        "artifact-chart",
			Type:      schemas.ArtifactTypeImage,
			Title:     "Progress chart",
			URL:       "https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=800",
			CreatedAt: at(90),
		})
	}
	if progress >= 100 {
		out = append(out,
			schemas.Artifact{
				ID:        "artifact-report",
				Type:      schemas.ArtifactTypePDF,
				Title:     "Final report.pdf",
				URL:       "https://arxiv.org/pdf/2601.07708",
				CreatedAt: at(100),
				Metadata:  &schemas.ArtifactMetadata{Size: 245760},
			},
			schemas.Artifact{
				ID:        "artifact-slides",
				Type:      schemas.ArtifactTypePPT,
				Title:     "Briefing slides",
				URL:       "https://philfan-pic.oss-cn-beijing.aliyuncs.com/test/ppt.pptx",
				CreatedAt: at(100),
				Metadata:  &schemas.ArtifactMetadata{Size: 1048576},
			},
		)
	}
	return out
}

func skillsAt(progress int) []schemas.SkillUsage {
	var out []schemas.SkillUsage
	add := func(id, name string, from, done int) {
		if progress < from {
			return
		}
		status := schemas.SkillStatusRunning
		if progress >= done {
			status = schemas.SkillStatusDone
		}
		out = append(out, schemas.SkillUsage{ID: id, Name: name, Status: status})
	}
	add("skill-research", "web-research", 20, 65)
	add("skill-editor", "code-editor", 45, 90)
	add("skill-writer", "doc-writer", 65, 100)
	return out
}

func mcpAt(sessionID string, progress int) []schemas.McpStatus {
	if progress == 0 {
		return nil
	}
	out := []schemas.McpStatus{{ServerName: "filesystem", Status: schemas.McpStateConnected}}
	if progress >= 20 {
		out = append(out, schemas.McpStatus{ServerName: "browser", Status: schemas.McpStateConnected})
	}
	github := schemas.McpStatus{ServerName: "github", Status: schemas.McpStateDisconnected}
	if progress >= 45 {
		github.Status = schemas.McpStateConnected
	}
	if hashOf(sessionID)%5 == 0 {
		github.Status = schemas.McpStateError
		github.Message = "token expired"
	}
	return append(out, github)
}

var epoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// seedTime prefers the stored creation time, then a millisecond session id,
// then a fixed epoch.
func seedTime(seed Seed) time.Time {
	if !seed.CreatedAt.IsZero() {
		return seed.CreatedAt
	}
	if ms, err := strconv.ParseInt(seed.SessionID, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC()
	}
	return epoch
}

func hashOf(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
