// package formatter renders operation plans and run status records for the
// CLI, as styled text or JSON
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/mixsync/internal/engine"
	"github.com/desertthunder/mixsync/internal/models"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	removeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	insertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F"))
)

// planOp is the JSON view of a single operation.
type planOp struct {
	Op       string `json:"op"`
	VideoID  string `json:"video_id"`
	ItemID   string `json:"item_id,omitempty"`
	Position *int   `json:"position,omitempty"`
	Title    string `json:"title,omitempty"`
}

// PlanToJSON serializes a plan for machine consumption.
func PlanToJSON(plan engine.Plan, pretty bool) ([]byte, error) {
	ops := make([]planOp, len(plan.Ops))
	for i, op := range plan.Ops {
		ops[i] = planOp{
			Op:      op.Kind.String(),
			VideoID: op.VideoID,
			ItemID:  op.ItemID,
			Title:   op.Title,
		}
		if op.Kind == engine.OpInsert {
			pos := op.Position
			ops[i].Position = &pos
		}
	}

	doc := struct {
		Operations []planOp `json:"operations"`
		Anchors    int      `json:"anchors"`
		Removals   int      `json:"removals"`
		Insertions int      `json:"insertions"`
	}{ops, plan.Anchors, plan.Removals(), plan.Insertions()}

	if pretty {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// RenderPlan renders a plan as a styled operation listing.
func RenderPlan(plan engine.Plan) string {
	var buf bytes.Buffer

	buf.WriteString(titleStyle.Render("Operation Plan"))
	buf.WriteString("\n")

	if plan.Empty() {
		buf.WriteString(okStyle.Render("Playlists already in sync, nothing to do"))
		buf.WriteString("\n")
		return buf.String()
	}

	for _, op := range plan.Ops {
		name := op.Title
		if name == "" {
			name = op.VideoID
		}
		if op.Kind == engine.OpRemove {
			buf.WriteString(removeStyle.Render(fmt.Sprintf("  - remove %s", name)))
		} else {
			buf.WriteString(insertStyle.Render(fmt.Sprintf("  + insert %s @ %d", name, op.Position)))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(fmt.Sprintf("\n%d operations (%d removals, %d insertions), %d anchored\n",
		len(plan.Ops), plan.Removals(), plan.Insertions(), plan.Anchors))
	return buf.String()
}

// StatusToJSON serializes a run status record.
func StatusToJSON(status *models.RunStatus, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(status, "", "  ")
	}
	return json.Marshal(status)
}

// RenderStatus renders a run status record for terminal display.
func RenderStatus(status *models.RunStatus) string {
	var buf bytes.Buffer

	buf.WriteString(titleStyle.Render("Last Sync Run"))
	buf.WriteString("\n")

	outcome := string(status.Outcome)
	switch status.Outcome {
	case models.OutcomeSuccess:
		outcome = okStyle.Render(outcome)
	case models.OutcomePartialFailure:
		outcome = warnStyle.Render(outcome)
	case models.OutcomeFailure:
		outcome = errStyle.Render(outcome)
	}

	buf.WriteString(fmt.Sprintf("  Outcome:   %s\n", outcome))
	buf.WriteString(fmt.Sprintf("  Started:   %s\n", status.StartedAt.Format("2006-01-02 15:04:05 MST")))
	if !status.FinishedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("  Finished:  %s (%s)\n",
			status.FinishedAt.Format("2006-01-02 15:04:05 MST"),
			status.FinishedAt.Sub(status.StartedAt).Round(10*time.Millisecond)))
	}
	buf.WriteString(fmt.Sprintf("  Added:     %d\n", status.ItemsAdded))
	buf.WriteString(fmt.Sprintf("  Removed:   %d\n", status.ItemsRemoved))
	buf.WriteString(fmt.Sprintf("  Source:    %d tracks\n", status.SourceCount))
	buf.WriteString(fmt.Sprintf("  Dest:      %d items\n", status.DestCount))

	if len(status.Errors) > 0 {
		buf.WriteString(errStyle.Render(fmt.Sprintf("  Errors (%d):", len(status.Errors))))
		buf.WriteString("\n")
		for _, e := range status.Errors {
			buf.WriteString(fmt.Sprintf("    - %s\n", e))
		}
	}

	return buf.String()
}
