package engine

import (
	"strings"

	"github.com/rivo/uniseg"
)

const DefaultChunkSize = 200

// CharCount counts user-perceived characters (grapheme clusters).
func CharCount(text string) int {
	return uniseg.GraphemeClusterCount(text)
}

// Chunks splits text into consecutive pieces of at most size grapheme
// clusters. Only the last piece may be shorter. Joining the pieces
// reproduces text exactly.
func Chunks(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	var out []string
	start, n := 0, 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		from, _ := g.Positions()
		if n == size {
			out = append(out, text[start:from])
			start, n = from, 0
		}
		n++
	}
	return append(out, text[start:])
}

// Lines splits text on \r\n, \r and \n. n line breaks yield n+1 lines.
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// step is one unit of typing work: a chunk of text or a Return tap.
type step struct {
	text  string
	enter bool
}

// plan lays out the typing steps. Without explicit line breaks, newlines
// are ordinary characters inside chunks. With them, each line is chunked
// on its own so no chunk ever spans a break.
func plan(text string, size int, explicitBreaks bool) []step {
	var steps []step
	if !explicitBreaks {
		for _, c := range Chunks(text, size) {
			steps = append(steps, step{text: c})
		}
		return steps
	}
	for i, line := range Lines(text) {
		if i > 0 {
			steps = append(steps, step{enter: true})
		}
		for _, c := range Chunks(line, size) {
			steps = append(steps, step{text: c})
		}
	}
	return steps
}
