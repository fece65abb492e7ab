package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/render/nodelink"
)

func ExampleToDOT() {
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "root", Level: -1, Label: "Lineage Root", Kind: graph.KindRoot},
			{ID: "0-root/crm", Level: 0, Label: "crm", Kind: graph.KindGroup},
		},
		Edges: []graph.Edge{{ID: "e-root-0-root/crm", Source: "root", Target: "0-root/crm"}},
	}

	dot := nodelink.ToDOT(g, nodelink.Options{})
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "->") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "root" -> "0-root/crm";
}
