package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/topology/internal/model"
)

// summaryClusters is how many clusters the summary lists
const summaryClusters = 10

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	countStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	speakerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Renderer writes result documents and prints human-readable summaries
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a Renderer that prints summaries to out
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// RenderJSON writes v to path as JSON, indented when indent is set. The
// document is written to a temporary file and renamed into place, so path
// never holds a partial document.
func (r *Renderer) RenderJSON(v any, path string, indent bool) error {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// RenderSummary prints the largest clusters of a landscape
func (r *Renderer) RenderSummary(l *model.Landscape) {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Semantic landscape"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d points, %d clusters from %d claims, model %s",
		l.Metadata.NumPoints, l.Metadata.NumClusters, l.Metadata.NumClaims, l.Metadata.EmbeddingModel)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Top %d clusters by discussion volume:\n", summaryClusters))
	for i, c := range l.Clusters {
		if i >= summaryClusters {
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			speakerStyle.Render("["+initial(c.Speaker)+"]"),
			countStyle.Render(fmt.Sprintf("%3d chunks", c.ChunkCount)),
			model.Truncate(c.FullClaim, 60),
		))
	}

	if quiet := silentClaims(l); len(quiet) > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("\n%d claims attracted no discussion", len(quiet))))
		b.WriteString("\n")
	}

	r.print(b.String(), l.Metadata.Warnings)
}

// RenderLayoutSummary prints the speaker groups of a chunks-only layout
func (r *Renderer) RenderLayoutSummary(l *model.Layout) {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Chunk layout"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d points, model %s", l.Metadata.NumPoints, l.Metadata.EmbeddingModel)))
	b.WriteString("\n\n")
	for _, c := range l.Clusters {
		b.WriteString(fmt.Sprintf("  %s %s centroid (%.3f, %.3f, %.3f)\n",
			speakerStyle.Render(c.Label),
			countStyle.Render(fmt.Sprintf("%3d chunks", c.Count)),
			c.Centroid[0], c.Centroid[1], c.Centroid[2],
		))
	}

	r.print(b.String(), l.Metadata.Warnings)
}

func (r *Renderer) print(body string, warnings []string) {
	if len(warnings) > 0 {
		body += "\n" + warnStyle.Render(fmt.Sprintf("%d warnings:", len(warnings))) + "\n"
		for _, w := range warnings {
			body += "  " + warnStyle.Render("!") + " " + w + "\n"
		}
	}
	_, _ = fmt.Fprintln(r.out, boxStyle.Render(strings.TrimRight(body, "\n")))
}

func initial(speaker string) string {
	if speaker == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(speaker)[0]))
}

func silentClaims(l *model.Landscape) []string {
	var ids []string
	for _, lm := range l.ClaimLandmarks {
		if lm.ChunkCount == 0 {
			ids = append(ids, lm.ID)
		}
	}
	return ids
}
