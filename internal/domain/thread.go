package domain

// ThreadStats reports comments that did not end up under a root of the forest.
type ThreadStats struct {
	// Orphans counts comments whose parent id is absent from the input.
	Orphans int
	// Detached counts every comment not reachable from a root: dropped
	// orphans, their descendants and members of parent cycles.
	Detached int
}

// BuildThread links flat comments into a forest. Input is expected in
// created_at ascending order; siblings keep input order. Nodes live in one
// arena slice and are linked by id lookup, so the build is O(n) without
// recursion and a parent cycle can never be reached from a root.
func BuildThread(comments []Comment, policy OrphanPolicy) ([]*CommentNode, ThreadStats) {
	nodes := make([]CommentNode, len(comments))
	index := make(map[string]int, len(comments))
	for i, c := range comments {
		nodes[i] = CommentNode{Comment: c, Replies: []*CommentNode{}}
		index[c.ID] = i
	}

	var stats ThreadStats
	roots := make([]*CommentNode, 0)
	for i := range nodes {
		node := &nodes[i]
		parentID := node.ParentCommentID
		if parentID == nil || *parentID == "" {
			roots = append(roots, node)
			continue
		}
		if p, ok := index[*parentID]; ok {
			nodes[p].Replies = append(nodes[p].Replies, node)
			continue
		}
		stats.Orphans++
		if policy == OrphanPromote {
			roots = append(roots, node)
		}
	}

	stats.Detached = len(nodes) - countReachable(roots)
	return roots, stats
}

func countReachable(roots []*CommentNode) int {
	stack := append([]*CommentNode(nil), roots...)
	seen := 0
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		seen++
		stack = append(stack, n.Replies...)
	}
	return seen
}
