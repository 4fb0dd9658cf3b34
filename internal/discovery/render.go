package discovery

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// TypeCount is the number of discovered entities of one type.
type TypeCount struct {
	Type  models.EntityType `json:"type"`
	Count int               `json:"count"`
}

// Summary describes a discovery result for display.
type Summary struct {
	Root     models.EntityID      `json:"root"`
	Total    int                  `json:"total"`
	Edges    int                  `json:"edges"`
	Counts   []TypeCount          `json:"counts"`
	Entities []models.CGBasicInfo `json:"entities"`
}

// Summarize counts entities per type. The synthetic head is not counted.
func Summarize(accountID string, r *models.DiscoveryResult) Summary {
	s := Summary{Root: r.Root}
	counts := make(map[models.EntityType]int)
	for _, id := range r.Graph.Keys() {
		s.Edges += len(r.Graph[id])
		if id.Type == models.DummyHead {
			continue
		}
		counts[id.Type]++
		s.Total++
		if n := r.Entities[id]; n != nil {
			s.Entities = append(s.Entities, n.BasicInfo(accountID))
		}
	}
	for t, c := range counts {
		s.Counts = append(s.Counts, TypeCount{Type: t, Count: c})
	}
	sort.Slice(s.Counts, func(i, j int) bool { return s.Counts[i].Type < s.Counts[j].Type })
	return s
}

// WriteDOT renders the graph in Graphviz DOT syntax, one node per entity and
// one edge per dependency.
func WriteDOT(w io.Writer, r *models.DiscoveryResult) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph discovery {")
	fmt.Fprintln(bw, "  rankdir=LR;")
	fmt.Fprintln(bw, "  node [shape=box];")
	for _, id := range r.Graph.Keys() {
		label := string(id.Type)
		if n := r.Entities[id]; n != nil && n.Name != "" {
			label += "\n" + n.Name
		}
		attrs := ""
		if id == r.Root {
			attrs = ", style=bold"
		}
		fmt.Fprintf(bw, "  %s [label=%s%s];\n", strconv.Quote(id.String()), strconv.Quote(label), attrs)
	}
	for _, id := range r.Graph.Keys() {
		for _, dep := range r.Graph.Children(id) {
			fmt.Fprintf(bw, "  %s -> %s;\n", strconv.Quote(id.String()), strconv.Quote(dep.String()))
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
