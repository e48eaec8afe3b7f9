package syntax

import (
	"bytes"
	"sort"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// LineIndex converts byte offsets into 1-indexed line and character
// columns.
type LineIndex struct {
	src    []byte
	starts []int
}

// NewLineIndex indexes the line starts of src.
func NewLineIndex(src []byte) *LineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{src: src, starts: starts}
}

// Lines returns the number of physical lines. A trailing newline does not
// start a new line.
func (li *LineIndex) Lines() int {
	n := len(li.starts)
	if n > 1 && li.starts[n-1] == len(li.src) {
		n--
	}
	if len(li.src) == 0 {
		return 0
	}
	return n
}

// Position returns the 1-indexed line and character column of a byte offset.
func (li *LineIndex) Position(offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(li.src) {
		offset = len(li.src)
	}
	i := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, utf8.RuneCount(li.src[li.starts[i]:offset]) + 1
}

// NodePosition is Position for the start of n.
func (li *LineIndex) NodePosition(n *sitter.Node) (line, column int) {
	return li.Position(int(n.StartByte()))
}

// Line returns the text of 1-indexed line n without its terminator.
func (li *LineIndex) Line(n int) []byte {
	if n < 1 || n > len(li.starts) {
		return nil
	}
	start := li.starts[n-1]
	end := len(li.src)
	if n < len(li.starts) {
		end = li.starts[n] - 1
	}
	line := li.src[start:end]
	return bytes.TrimSuffix(line, []byte("\r"))
}

// LineStart returns the byte offset where 1-indexed line n begins.
func (li *LineIndex) LineStart(n int) int {
	if n < 1 {
		return 0
	}
	if n > len(li.starts) {
		return len(li.src)
	}
	return li.starts[n-1]
}
