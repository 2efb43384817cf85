// Package rbtree implements an ordered key/value store on a red-black tree
// with parent pointers, used by the value package to back the Map variant.
//
// The tree is intentionally generic over interface{} keys/values with an
// injected comparator rather than depending on the value package, so that
// value.Map can embed a *rbtree.Tree without an import cycle.
package rbtree

type color bool

const (
	red   color = true
	black color = false
)

// Comparator returns negative, zero, or positive when a is less than, equal
// to, or greater than b.
type Comparator func(a, b interface{}) int

// Node is a single tree node. Nodes belong to exactly one Tree.
type Node struct {
	Key, Value          interface{}
	color               color
	left, right, parent *Node
}

// Tree is a red-black tree ordered by Comparator.
type Tree struct {
	root *Node
	size int
	cmp  Comparator
}

// New creates an empty tree ordered by cmp.
func New(cmp Comparator) *Tree {
	return &Tree{cmp: cmp}
}

// Size returns the number of distinct keys currently stored.
func (t *Tree) Size() int { return t.size }

func (t *Tree) find(key interface{}) *Node {
	n := t.root
	for n != nil {
		c := t.cmp(key, n.Key)
		switch {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

// Get returns the value stored for key.
func (t *Tree) Get(key interface{}) (interface{}, bool) {
	n := t.find(key)
	if n == nil {
		return nil, false
	}
	return n.Value, true
}

// GetNode returns the node stored for key, or nil.
func (t *Tree) GetNode(key interface{}) *Node {
	return t.find(key)
}

func (n *Node) sibling() *Node {
	if n.parent == nil {
		return nil
	}
	if n == n.parent.left {
		return n.parent.right
	}
	return n.parent.left
}

func (t *Tree) rotateLeft(x *Node) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *Tree) rotateRight(x *Node) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		t.root = y
	} else if x == x.parent.right {
		x.parent.right = y
	} else {
		x.parent.left = y
	}
	y.right = x
	x.parent = y
}

func nodeColor(n *Node) color {
	if n == nil {
		return black
	}
	return n.color
}

// Insert stores value for key. If key is already present, its value is
// replaced and the node is reused (the prior value is returned so the
// caller — value.Map — can free its own representation of the superseded
// key/value pair). inserted reports whether a new node was created.
func (t *Tree) Insert(key, value interface{}) (old interface{}, inserted bool) {
	var parent *Node
	n := t.root
	for n != nil {
		c := t.cmp(key, n.Key)
		switch {
		case c < 0:
			parent = n
			n = n.left
		case c > 0:
			parent = n
			n = n.right
		default:
			old = n.Value
			n.Value = value
			return old, false
		}
	}
	node := &Node{Key: key, Value: value, color: red, parent: parent}
	if parent == nil {
		t.root = node
	} else if t.cmp(key, parent.Key) < 0 {
		parent.left = node
	} else {
		parent.right = node
	}
	t.insertFixup(node)
	t.size++
	return nil, true
}

func (t *Tree) insertFixup(z *Node) {
	for z.parent != nil && z.parent.color == red {
		gp := z.parent.parent
		if gp == nil {
			break
		}
		if z.parent == gp.left {
			uncle := gp.right
			if nodeColor(uncle) == red {
				z.parent.color = black
				uncle.color = black
				gp.color = red
				z = gp
			} else {
				if z == z.parent.right {
					z = z.parent
					t.rotateLeft(z)
				}
				z.parent.color = black
				gp.color = red
				t.rotateRight(gp)
			}
		} else {
			uncle := gp.left
			if nodeColor(uncle) == red {
				z.parent.color = black
				uncle.color = black
				gp.color = red
				z = gp
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rotateRight(z)
				}
				z.parent.color = black
				gp.color = red
				t.rotateLeft(gp)
			}
		}
	}
	t.root.color = black
}

// Remove deletes key from the tree, reporting whether a node was deleted.
func (t *Tree) Remove(key interface{}) bool {
	z := t.find(key)
	if z == nil {
		return false
	}
	t.deleteNode(z)
	t.size--
	return true
}

func (t *Tree) transplant(u, v *Node) {
	if u.parent == nil {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	if v != nil {
		v.parent = u.parent
	}
}

func minimum(n *Node) *Node {
	for n.left != nil {
		n = n.left
	}
	return n
}

func maximum(n *Node) *Node {
	for n.right != nil {
		n = n.right
	}
	return n
}

func (t *Tree) deleteNode(z *Node) {
	y := z
	yOriginalColor := y.color
	var x, xParent *Node

	if z.left == nil {
		x = z.right
		xParent = z.parent
		t.transplant(z, z.right)
	} else if z.right == nil {
		x = z.left
		xParent = z.parent
		t.transplant(z, z.left)
	} else {
		y = minimum(z.right)
		yOriginalColor = y.color
		x = y.right
		if y.parent == z {
			xParent = y
		} else {
			xParent = y.parent
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}
	if yOriginalColor == black {
		t.deleteFixup(x, xParent)
	}
}

func (t *Tree) deleteFixup(x, parent *Node) {
	for x != t.root && nodeColor(x) == black {
		if parent == nil {
			break
		}
		if x == parent.left {
			w := parent.right
			if nodeColor(w) == red {
				w.color = black
				parent.color = red
				t.rotateLeft(parent)
				w = parent.right
			}
			if w == nil {
				x = parent
				parent = x.parent
				continue
			}
			if nodeColor(w.left) == black && nodeColor(w.right) == black {
				w.color = red
				x = parent
				parent = x.parent
			} else {
				if nodeColor(w.right) == black {
					if w.left != nil {
						w.left.color = black
					}
					w.color = red
					t.rotateRight(w)
					w = parent.right
				}
				w.color = parent.color
				parent.color = black
				if w.right != nil {
					w.right.color = black
				}
				t.rotateLeft(parent)
				x = t.root
				parent = nil
			}
		} else {
			w := parent.left
			if nodeColor(w) == red {
				w.color = black
				parent.color = red
				t.rotateRight(parent)
				w = parent.left
			}
			if w == nil {
				x = parent
				parent = x.parent
				continue
			}
			if nodeColor(w.right) == black && nodeColor(w.left) == black {
				w.color = red
				x = parent
				parent = x.parent
			} else {
				if nodeColor(w.left) == black {
					if w.right != nil {
						w.right.color = black
					}
					w.color = red
					t.rotateLeft(w)
					w = parent.left
				}
				w.color = parent.color
				parent.color = black
				if w.left != nil {
					w.left.color = black
				}
				t.rotateRight(parent)
				x = t.root
				parent = nil
			}
		}
	}
	if x != nil {
		x.color = black
	}
}

// Min returns the node with the smallest key, or nil if the tree is empty.
func (t *Tree) Min() *Node {
	if t.root == nil {
		return nil
	}
	return minimum(t.root)
}

// Max returns the node with the largest key, or nil if the tree is empty.
func (t *Tree) Max() *Node {
	if t.root == nil {
		return nil
	}
	return maximum(t.root)
}

// Successor returns the in-order successor of n, or nil.
func Successor(n *Node) *Node {
	if n == nil {
		return nil
	}
	if n.right != nil {
		return minimum(n.right)
	}
	p := n.parent
	for p != nil && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

// Predecessor returns the in-order predecessor of n, or nil.
func Predecessor(n *Node) *Node {
	if n == nil {
		return nil
	}
	if n.left != nil {
		return maximum(n.left)
	}
	p := n.parent
	for p != nil && n == p.left {
		n = p
		p = p.parent
	}
	return p
}

// Iterator walks the tree in ascending key order. It is unsafe under
// structural mutation; only Tree.Insert on the current key (via the owning
// Map) is safe mid-iteration.
type Iterator struct {
	tree    *Tree
	current *Node
	started bool
}

// Iterator returns a new ascending-order iterator.
func (t *Tree) Iterator() *Iterator {
	return &Iterator{tree: t}
}

// Next advances the iterator and reports whether a node is available.
func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		it.current = it.tree.Min()
	} else {
		it.current = Successor(it.current)
	}
	return it.current != nil
}

// Node returns the current node.
func (it *Iterator) Node() *Node { return it.current }

// Walk invokes fn for every node in ascending key order; fn returning false
// stops the walk early.
func (t *Tree) Walk(fn func(n *Node) bool) {
	for n := t.Min(); n != nil; n = Successor(n) {
		if !fn(n) {
			return
		}
	}
}
