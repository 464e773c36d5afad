// Package export renders trajectory documents to portable formats.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/satwerk/gravsim/internal/rangestore"
)

// palette cycles per agent, in name order.
var palette = []string{"#00ff00", "#00bfff", "#ff7f50", "#ff00ff", "#ffd700", "#ff4500"}

// DocumentToSVG draws every agent's trajectory into one SVG. All paths
// share the same coordinate bounds so the agents' relative geometry is
// preserved. Returns "" unless at least one agent has two records.
func DocumentToSVG(doc rangestore.Document, width, height int) string {
	names := make([]string, 0, len(doc))
	for name, recs := range doc {
		if len(recs) >= 2 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)

	first := doc[names[0]][0].State
	minX, maxX := first.X, first.X
	minY, maxY := first.Y, first.Y
	for _, name := range names {
		for _, rec := range doc[name] {
			if rec.State.X < minX {
				minX = rec.State.X
			}
			if rec.State.X > maxX {
				maxX = rec.State.X
			}
			if rec.State.Y < minY {
				minY = rec.State.Y
			}
			if rec.State.Y > maxY {
				maxY = rec.State.Y
			}
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i, name := range names {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
			palette[i%len(palette)]))
		for j, rec := range doc[name] {
			x := (rec.State.X - minX) / rangeX * float64(width)
			y := float64(height) - (rec.State.Y-minY)/rangeY*float64(height)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
