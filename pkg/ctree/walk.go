// Tree traversal with an explicit parent stack.
// All detox passes are visitors driven by Walk; a pass that mutates the
// tree returns ActionStop and is re-run from the root by its outer loop,
// so no traversal ever observes a mutation mid-flight.
package ctree

// Action tells Walk how to proceed after visiting an item
type Action int

const (
	// ActionContinue descends into the item's children
	ActionContinue Action = iota
	// ActionSkipChildren continues the traversal without descending
	ActionSkipChildren
	// ActionStop aborts the whole traversal
	ActionStop
)

// Visitor is implemented once per traversal mode
type Visitor interface {
	// Visit is called in pre-order. parents holds the path from the root
	// to the item's immediate parent; it is reused between calls and must
	// not be retained.
	Visit(it Item, parents []Item) Action
}

// Walk traverses the subtree rooted at it in pre-order.
// It returns true if the visitor stopped the traversal.
func Walk(it Item, v Visitor) bool {
	return walk(it, v, make([]Item, 0, 16))
}

func walk(it Item, v Visitor, parents []Item) bool {
	if it == nil {
		return false
	}
	switch v.Visit(it, parents) {
	case ActionStop:
		return true
	case ActionSkipChildren:
		return false
	}
	parents = append(parents, it)
	for _, kid := range it.Children() {
		if walk(kid, v, parents) {
			return true
		}
	}
	return false
}

// FindParentOf returns the immediate parent of target within the tree
// rooted at root, or nil if target is the root or not in the tree.
// The search runs from the root on every call; nothing caches parents.
func FindParentOf(root, target Item) Item {
	if root == nil || target == nil || root == target {
		return nil
	}
	return findParent(root, target)
}

func findParent(it, target Item) Item {
	for _, kid := range it.Children() {
		if kid == target {
			return it
		}
		if p := findParent(kid, target); p != nil {
			return p
		}
	}
	return nil
}
