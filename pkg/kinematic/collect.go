package kinematic

import (
	"fmt"
	"strings"
)

// collect builds the tree from trunk. Children follow relation order.
// Every relation must be reached exactly once.
func collect(trunk string, relations []*Relation) (*Node, error) {
	children := make(map[string][]*Relation, len(relations))
	for _, rel := range relations {
		children[rel.Parent] = append(children[rel.Parent], rel)
	}

	reached := make(map[*Relation]bool, len(relations))
	root := &Node{ID: trunk}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, rel := range children[n.ID] {
			if reached[rel] {
				continue
			}
			reached[rel] = true
			child := &Node{ID: rel.Child, Joint: rel}
			n.Children = append(n.Children, child)
			stack = append(stack, child)
		}
	}

	if len(reached) != len(relations) {
		var orphans []string
		for _, rel := range relations {
			if !reached[rel] {
				orphans = append(orphans, rel.Mate)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrOrphanedRelation, strings.Join(orphans, ", "))
	}
	return root, nil
}
