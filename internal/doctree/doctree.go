// Package doctree is the structural form of a parsed source document. Parsers
// build a DocTree; the reload pass flattens it back to plain statute text.
package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections or pages
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading such as "제1장 총칙" (empty for leaf text)
	Text     string     // Body text of this node
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// Text flattens the tree in reading order. Each heading sits on its own line
// ahead of its body so chapter and article headings survive as line starts.
func (t *DocTree) Text() string {
	var lines []string
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			if s := strings.TrimSpace(n.Title); s != "" {
				lines = append(lines, s)
			}
			if s := strings.TrimSpace(n.Text); s != "" {
				lines = append(lines, s)
			}
			walk(n.Children)
		}
	}
	walk(t.Children)
	return strings.Join(lines, "\n")
}

// Builder assembles a DocTree from a flat stream of headings and paragraphs,
// nesting each heading under the nearest shallower one.
type Builder struct {
	tree    *DocTree
	root    *DocNode
	stack   []entry
	pending []string
}

type entry struct {
	node  *DocNode
	level int
}

func NewBuilder(title string) *Builder {
	root := &DocNode{Title: title}
	return &Builder{
		tree:  &DocTree{Title: title},
		root:  root,
		stack: []entry{{node: root, level: 0}},
	}
}

// Heading opens a section at level (1 = outermost).
func (b *Builder) Heading(level int, title string) {
	b.flush()
	n := &DocNode{Title: strings.TrimSpace(title)}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, entry{node: n, level: level})
}

// Paragraph appends body text to the current section. Blank text is ignored.
func (b *Builder) Paragraph(text string) {
	if text = strings.TrimSpace(text); text != "" {
		b.pending = append(b.pending, text)
	}
}

// Tree finishes the document. Body text that precedes every heading becomes a
// leading untitled node.
func (b *Builder) Tree() *DocTree {
	b.flush()
	children := b.root.Children
	if b.root.Text != "" {
		children = append([]*DocNode{{Text: b.root.Text}}, children...)
	}
	b.tree.Children = children
	return b.tree
}

func (b *Builder) flush() {
	if len(b.pending) == 0 {
		return
	}
	top := b.stack[len(b.stack)-1].node
	text := strings.Join(b.pending, "\n")
	if top.Text != "" {
		top.Text += "\n" + text
	} else {
		top.Text = text
	}
	b.pending = b.pending[:0]
}
