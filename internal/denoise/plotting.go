package denoise

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// PlotNodeValuesTerminal draws one horizontal bar per node, sorted ascending.
func PlotNodeValuesTerminal(w io.Writer, values []float64, title string) {
	type nodeValue struct {
		Node  int
		Value float64
	}

	if len(values) == 0 {
		fmt.Fprintf(w, "\n%s: no nodes\n", title)
		return
	}

	nodes := make([]nodeValue, len(values))
	for i := range values {
		nodes[i] = nodeValue{
			Node:  i,
			Value: values[i],
		}
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Value < nodes[j].Value
	})

	minValue := nodes[0].Value
	maxValue := nodes[len(nodes)-1].Value

	fmt.Fprintf(w, "\n%s (Terminal Plot - Ascending Order):\n", title)
	fmt.Fprintln(w, "    Node | Value    | Bar Chart")
	fmt.Fprintln(w, "---------|----------|"+strings.Repeat("-", 50))

	maxBarWidth := 50
	for _, nv := range nodes {
		var barWidth int
		if maxValue != minValue {
			barWidth = int((nv.Value - minValue) / (maxValue - minValue) * float64(maxBarWidth))
		} else {
			barWidth = maxBarWidth / 2
		}

		bar := strings.Repeat("█", barWidth)
		if barWidth == 0 {
			bar = "▏"
		}

		fmt.Fprintf(w, "%8d | %.6f | %s (%.4f)\n", nv.Node, nv.Value, bar, nv.Value)
	}

	fmt.Fprintf(w, "\nScale: Min=%.6f, Max=%.6f\n", minValue, maxValue)
}
