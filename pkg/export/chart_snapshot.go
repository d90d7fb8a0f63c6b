// Package export renders static snapshots of the genealogy chart.
package export

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/kinship/pkg/analysis"
	"github.com/vanderheijden86/kinship/pkg/engine"
	"github.com/vanderheijden86/kinship/pkg/model"
)

// ChartSnapshotOptions controls chart snapshot export behaviour.
type ChartSnapshotOptions struct {
	Path   string        // Output path; format inferred from extension when Format empty
	Format string        // "svg", "png", or "both" (case-insensitive)
	Title  string        // Optional title rendered in the summary block
	Preset string        // Layout preset: "compact" (default) or "roomy"
	Root   *model.Person // Display root to render
	// Collapsed limits the rendered depth the way the live view does; nil
	// renders the full subtree.
	Collapsed map[string]bool
}

// SaveChartSnapshot renders a static chart snapshot. With format "both" the
// SVG and PNG renders run concurrently against the same layout.
func SaveChartSnapshot(opts ChartSnapshotOptions) error {
	if opts.Root == nil {
		return fmt.Errorf("no genealogy tree to export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg" // safe default
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" && format != "both" {
		return fmt.Errorf("unsupported format %q (want svg, png, or both)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent dir: %w", err)
		}
	}

	layout := buildLayout(opts)

	switch format {
	case "svg":
		return renderSVG(opts.Path, layout)
	case "png":
		return renderPNG(opts.Path, layout)
	default:
		base := strings.TrimSuffix(opts.Path, filepath.Ext(opts.Path))
		g, _ := errgroup.WithContext(context.Background())
		g.Go(func() error { return renderSVG(base+".svg", layout) })
		g.Go(func() error { return renderPNG(base+".png", layout) })
		return g.Wait()
	}
}

// --- layout computation ----------------------------------------------------

type layoutNode struct {
	Name        string
	Generation  int // 1-based label, depth+1
	Descendants int
	Branching   bool
	X, Y        float64
	NodeW       float64
	NodeH       float64
}

type layoutEdge struct {
	X1, Y1, X2, Y2 float64
}

type layoutResult struct {
	Nodes   []layoutNode
	Edges   []layoutEdge
	Width   int
	Height  int
	Header  float64
	Summary summaryInfo
}

type summaryInfo struct {
	Title       string
	People      int
	Generations int
	MeanKids    float64
	Largest     string
}

func buildLayout(opts ChartSnapshotOptions) layoutResult {
	const (
		nodeWCompact = 170.0
		nodeHCompact = 56.0
		nodeWRoomy   = 190.0
		nodeHRoomy   = 68.0
		colGapRoomy  = 70.0
		colGap       = 48.0
		rowGapRoomy  = 26.0
		rowGap       = 18.0
		padding      = 36.0
		headerHeight = 104.0
	)

	roomy := strings.EqualFold(opts.Preset, "roomy")
	nodeW, nodeH, cGap, rGap := nodeWCompact, nodeHCompact, colGap, rowGap
	if roomy {
		nodeW, nodeH, cGap, rGap = nodeWRoomy, nodeHRoomy, colGapRoomy, rowGapRoomy
	}

	levels := engine.ProjectTree(opts.Root, opts.Collapsed)

	// One column per generation, hidden nodes skipped at draw time like the
	// live renderer.
	var nodes []layoutNode
	pos := make(map[*model.Person]int, len(nodes))
	maxRows := 0
	for depth, level := range levels {
		row := 0
		for _, p := range level {
			if p.Hidden {
				continue
			}
			n := layoutNode{
				Name:        truncate(p.Name, 22),
				Generation:  depth + 1,
				Descendants: model.CountDescendants(p),
				Branching:   p.HasChildren(),
				X:           padding + float64(depth)*(nodeW+cGap),
				Y:           padding + headerHeight + float64(row)*(nodeH+rGap),
				NodeW:       nodeW,
				NodeH:       nodeH,
			}
			pos[p] = len(nodes)
			nodes = append(nodes, n)
			row++
		}
		if row > maxRows {
			maxRows = row
		}
	}

	// Parent-child edges between drawn nodes.
	var edges []layoutEdge
	var link func(p *model.Person)
	link = func(p *model.Person) {
		pi, ok := pos[p]
		if !ok {
			return
		}
		for _, child := range p.Children {
			if ci, ok := pos[child]; ok {
				from, to := nodes[pi], nodes[ci]
				edges = append(edges, layoutEdge{
					X1: from.X + from.NodeW,
					Y1: from.Y + from.NodeH/2,
					X2: to.X,
					Y2: to.Y + to.NodeH/2,
				})
				link(child)
			}
		}
	}
	link(opts.Root)

	width := int(padding*2 + float64(len(levels))*(nodeW+cGap))
	if width < 640 {
		width = 640
	}
	height := int(padding*2 + headerHeight + float64(maxRows)*(nodeH+rGap))
	if height < 420 {
		height = 420
	}

	stats := analysis.Analyze(opts.Root)
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Family Chart"
	}

	return layoutResult{
		Nodes:  nodes,
		Edges:  edges,
		Width:  width,
		Height: height,
		Header: headerHeight,
		Summary: summaryInfo{
			Title:       title,
			People:      stats.People,
			Generations: stats.MaxDepth + 1,
			MeanKids:    stats.MeanChildren,
			Largest:     fmt.Sprintf("%s (%d)", stats.LargestHousehold, stats.LargestHouseholdSize),
		},
	}
}

// --- rendering -------------------------------------------------------------

var (
	colorBranch   = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorLeaf     = color.RGBA{0xe3, 0xf2, 0xfd, 0xff}
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorEdge     = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
)

func nodeFill(branching bool) color.RGBA {
	if branching {
		return colorBranch
	}
	return colorLeaf
}

func renderPNG(path string, layout layoutResult) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, layout.Header-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	drawSummaryBlock(dc, layout)

	dc.SetColor(colorEdge)
	dc.SetLineWidth(1.5)
	for _, e := range layout.Edges {
		dc.DrawLine(e.X1, e.Y1, e.X2, e.Y2)
		dc.Stroke()
	}

	for _, n := range layout.Nodes {
		drawNode(dc, n)
	}

	return dc.SavePNG(path)
}

func renderSVG(path string, layout layoutResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return renderSVGToWriter(file, layout)
}

func renderSVGToWriter(w io.Writer, layout layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, layout.Width-32, int(layout.Header-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	drawSummaryBlockSVG(canvas, layout)

	for _, e := range layout.Edges {
		canvas.Line(int(e.X1), int(e.Y1), int(e.X2), int(e.Y2),
			fmt.Sprintf("stroke:%s;stroke-width:1.5", css(colorEdge)))
	}

	for _, n := range layout.Nodes {
		x, y := int(n.X), int(n.Y)
		canvas.Roundrect(x, y, int(n.NodeW), int(n.NodeH), 8, 8,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.2", css(nodeFill(n.Branching)), css(colorStroke)))
		canvas.Text(x+10, y+20, n.Name,
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
		canvas.Text(x+10, y+38, fmt.Sprintf("Generation %d", n.Generation),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
		canvas.Text(x+10, y+52, fmt.Sprintf("%d descendants", n.Descendants),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}

	canvas.End()
	return nil
}

func drawNode(dc *gg.Context, n layoutNode) {
	dc.SetColor(nodeFill(n.Branching))
	dc.DrawRoundedRectangle(n.X, n.Y, n.NodeW, n.NodeH, 8)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1.2)
	dc.DrawRoundedRectangle(n.X, n.Y, n.NodeW, n.NodeH, 8)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored(n.Name, n.X+10, n.Y+16, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(fmt.Sprintf("Generation %d", n.Generation), n.X+10, n.Y+32, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%d descendants", n.Descendants), n.X+10, n.Y+46, 0, 0.5)
}

func drawSummaryBlock(dc *gg.Context, layout layoutResult) {
	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Summary.Title, 32, 44, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(fmt.Sprintf("people: %d  generations: %d", layout.Summary.People, layout.Summary.Generations), 32, 64, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("mean children: %.1f  largest household: %s", layout.Summary.MeanKids, layout.Summary.Largest), 32, 84, 0, 0.5)
}

func drawSummaryBlockSVG(canvas *svg.SVG, layout layoutResult) {
	canvas.Text(32, 44, layout.Summary.Title,
		fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(32, 64, fmt.Sprintf("people: %d  generations: %d", layout.Summary.People, layout.Summary.Generations),
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	canvas.Text(32, 84, fmt.Sprintf("mean children: %.1f  largest household: %s", layout.Summary.MeanKids, layout.Summary.Largest),
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
