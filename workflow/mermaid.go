package workflow

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Diagram formats accepted by MermaidInkURL. Query parameters (theme,
// background, size) are only honored by the image endpoint; the vector and
// document endpoints ignore them.
const (
	InkFormatImage = "img"
	InkFormatSVG   = "svg"
	InkFormatPDF   = "pdf"
)

// InkOptions customizes the rendered mermaid.ink diagram. Zero values are
// omitted from the URL.
type InkOptions struct {
	Format  string // img (default), svg, or pdf
	Theme   string // default, neutral, dark, forest
	BGColor string // hex code or named color with ! prefix
	Width   int
	Height  int
}

// Mermaid renders the graph as a mermaid flowchart. Edges come from each
// node prototype's declared successor set (SuccessorProvider); every End
// successor converges on one synthetic terminal node. Named graphs are
// wrapped in a subgraph block.
func (g *Graph[S, D, O]) Mermaid() string {
	lines := []string{}
	hasEnd := false

	for _, proto := range g.prototypes {
		lines = append(lines, fmt.Sprintf("%s[%q]", mermaidID(NodeLabel(proto)), NodeLabel(proto)))
	}

	for _, proto := range g.prototypes {
		sp, ok := any(proto).(SuccessorProvider[S, D, O])
		if !ok {
			continue
		}
		for _, next := range sp.Successors() {
			if IsEnd(next) {
				hasEnd = true
			}
		}
	}

	if hasEnd {
		lines = append(lines, `End["End"]`)
	}

	for _, proto := range g.prototypes {
		sp, ok := any(proto).(SuccessorProvider[S, D, O])
		if !ok {
			continue
		}
		from := mermaidID(NodeLabel(proto))
		for _, next := range sp.Successors() {
			lines = append(lines, fmt.Sprintf("%s --> %s", from, mermaidID(NodeLabel(next))))
		}
	}

	var b strings.Builder
	b.WriteString("graph TD")
	if g.name != "" {
		b.WriteString(fmt.Sprintf("\n    subgraph %q", g.name))
		for _, line := range lines {
			b.WriteString("\n        " + line)
		}
		b.WriteString("\n    end")
	} else {
		for _, line := range lines {
			b.WriteString("\n    " + line)
		}
	}
	return b.String()
}

// MermaidInkURL builds a shareable mermaid.ink URL for the graph diagram.
// The diagram is wrapped in a JSON envelope, zlib-compressed, and encoded
// with unpadded URL-safe base64 behind the service's pako: prefix.
func (g *Graph[S, D, O]) MermaidInkURL(opts InkOptions) (string, error) {
	encoded, err := encodeMermaidInk(g.Mermaid())
	if err != nil {
		return "", fmt.Errorf("encode mermaid diagram: %w", err)
	}

	format := opts.Format
	if format == "" {
		format = InkFormatImage
	}

	url := fmt.Sprintf("https://mermaid.ink/%s/pako:%s", format, encoded)

	// Only the image endpoint honors rendering parameters.
	if format != InkFormatImage {
		return url, nil
	}

	params := []string{}
	if opts.Theme != "" {
		params = append(params, "theme="+opts.Theme)
	}
	if opts.BGColor != "" {
		params = append(params, "bgColor="+opts.BGColor)
	}
	if opts.Width > 0 {
		params = append(params, fmt.Sprintf("width=%d", opts.Width))
	}
	if opts.Height > 0 {
		params = append(params, fmt.Sprintf("height=%d", opts.Height))
	}
	if len(params) > 0 {
		url += "?" + strings.Join(params, "&")
	}
	return url, nil
}

// encodeMermaidInk produces the pako payload: a compact {"code":...} JSON
// envelope, zlib-compressed at best compression, URL-safe base64 without
// padding.
func encodeMermaidInk(code string) (string, error) {
	envelope, err := json.Marshal(map[string]string{"code": code})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write(envelope); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// mermaidID converts a node label into a mermaid-safe identifier.
func mermaidID(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, label)
}
