package render

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// WriteSVG writes f as a standalone SVG document of the given size. The frame
// is fitted to the canvas and every node is labelled.
func WriteSVG(w io.Writer, f *Frame, width, height float64) error {
	vp := NewViewport(1, 1)
	vp.Fit(f, width, height)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`+"\n", width, height, width, height)
	bw.WriteString(`<defs><marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="3" markerHeight="3" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill="context-stroke"/></marker></defs>` + "\n")
	fmt.Fprintf(bw, `<rect width="100%%" height="100%%" fill="#ffffff"/>`+"\n")

	bw.WriteString(`<g class="links">` + "\n")
	for _, l := range f.Links {
		x1, y1 := vp.ToScreen(l.X1, l.Y1)
		x2, y2 := vp.ToScreen(l.X2, l.Y2)
		fmt.Fprintf(bw, `<line id="%s" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%g" marker-end="url(#arrow)"/>`+"\n",
			escape(l.ID), x1, y1, x2, y2, escape(l.Color), l.Width)
	}
	bw.WriteString("</g>\n")

	r := NodeRadius * vp.Zoom
	bw.WriteString(`<g class="nodes">` + "\n")
	for i, n := range f.Nodes {
		x, y := vp.ToScreen(n.X, n.Y)
		fmt.Fprintf(bw, `<g id="%s">`, escape(n.ID))
		fmt.Fprintf(bw, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`, x, y, r, escape(n.Color))
		if n.AvatarURL != "" {
			size := r * 1.8
			fmt.Fprintf(bw, `<clipPath id="clip-%d"><circle cx="%.2f" cy="%.2f" r="%.2f"/></clipPath>`, i, x, y, size/2)
			fmt.Fprintf(bw, `<image href="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f" clip-path="url(#clip-%d)"/>`,
				escape(n.AvatarURL), x-size/2, y-size/2, size, size, i)
		}
		fmt.Fprintf(bw, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="12" text-anchor="middle" dominant-baseline="hanging" fill="#000">%s</text>`,
			x, y+r+2, escape(n.Label))
		bw.WriteString("</g>\n")
	}
	bw.WriteString("</g>\n")

	if f.Banner != "" {
		fmt.Fprintf(bw, `<text x="8" y="20" font-family="sans-serif" font-size="12" fill="#b45309">%s</text>`+"\n", escape(f.Banner))
	}
	bw.WriteString("</svg>\n")

	return bw.Flush()
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
