package trie

import (
	"fmt"

	"github.com/emicklei/dot"
	"github.com/ethereum/go-ethereum/common"
)

// DumpDot renders the committed trie rooted at root as a graphviz digraph.
func DumpDot(in Input, root *common.Hash) (ret string, err error) {
	g := dot.NewGraph(dot.Directed)
	if IsEmptyRoot(root) {
		g.Node("empty")
		return g.String(), nil
	}
	defer recover_fault(&err)
	h := node_hash(*root)
	var path hex_key
	var seq int
	dump_dot(in, g, &h, path[:0], &seq)
	return g.String(), nil
}

func dump_dot(in Input, g *dot.Graph, n node, path []byte, seq *int) dot.Node {
	*seq++
	id := fmt.Sprint("n", *seq)
	if h, is := n.(*node_hash); is {
		n = resolve(in, h, path)
	}
	switch n := n.(type) {
	case *short_node:
		if val, is := n.val.(value_node); is {
			leaf := g.Node(id).Label(fmt.Sprintf("leaf %x\n%x", n.key_part, []byte(val))).Attr("shape", "box")
			g.AddToSameRank("leaves", leaf)
			return leaf
		}
		self := g.Node(id).Label(fmt.Sprintf("ext %x", n.key_part))
		g.Edge(self, dump_dot(in, g, n.val, append(path, n.key_part...), seq))
		return self
	case *full_node:
		self := g.Node(id).Label("branch")
		for i, c := range n.children {
			if c != nil {
				g.Edge(self, dump_dot(in, g, c, append(path, byte(i)), seq), fmt.Sprintf("%x", i))
			}
		}
		return self
	}
	panic("impossible")
}
