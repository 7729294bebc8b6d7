package difftree

// RootLevel is the level at which Walk visits the root. Types are visited at
// RootLevel+1 and members at RootLevel+2.
const RootLevel = 1

// VisitFunc is called for every node in pre-order with its level. Returning
// false skips the node's descendants.
type VisitFunc func(n *Node, level int) bool

type frame struct {
	node  *Node
	level int
}

// Walk traverses the tree depth-first in pre-order. Declaration changes and
// children both add one level of nesting; a node's declaration changes are
// visited before its children, each in the order the engine emitted them.
// The traversal uses an explicit stack so pathological depths cannot exhaust
// the goroutine stack.
func Walk(root *Node, fn VisitFunc) {
	if root == nil {
		return
	}
	stack := []frame{{node: root, level: RootLevel}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node == nil {
			continue
		}
		if !fn(f.node, f.level) {
			continue
		}
		// Push in reverse so the first declaration change pops first.
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], level: f.level + 1})
		}
		for i := len(f.node.DeclarationChanges) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.DeclarationChanges[i], level: f.level + 1})
		}
	}
}
