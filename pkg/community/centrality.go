package community

import "sort"

const betweennessSamplingThreshold = 5000

type metrics struct {
	communityID          string
	degreeCentrality     float64
	betweenness          float64
	isBridge             bool
	connectedCommunities int
}

// computeMetrics derives per-entity degree centrality (normalized within
// its own community), approximate betweenness, and bridge status (a node
// whose neighbors span ≥2 distinct communities).
func computeMetrics(adjacency map[string]map[string]int, partition map[string]string) map[string]metrics {
	nodes := nodeKeys(adjacency)
	out := make(map[string]metrics, len(nodes))

	communitySize := make(map[string]int)
	for _, comm := range partition {
		communitySize[comm]++
	}

	betweenness := approximateBetweenness(adjacency, nodes)

	for _, n := range nodes {
		comm := partition[n]
		neighborComms := make(map[string]struct{})
		var withinDegree int
		for neighbor := range adjacency[n] {
			neighborComm := partition[neighbor]
			neighborComms[neighborComm] = struct{}{}
			if neighborComm == comm {
				withinDegree++
			}
		}

		degree := 0.0
		if size := communitySize[comm]; size > 1 {
			degree = float64(withinDegree) / float64(size-1)
		}

		out[n] = metrics{
			communityID:          comm,
			degreeCentrality:     degree,
			betweenness:          betweenness[n],
			isBridge:             len(neighborComms) >= 2,
			connectedCommunities: len(neighborComms),
		}
	}
	return out
}

// approximateBetweenness computes Brandes' betweenness centrality exactly
// for graphs up to betweennessSamplingThreshold nodes, and over a
// deterministic, sorted-prefix sample of source nodes above it.
func approximateBetweenness(adjacency map[string]map[string]int, nodes []string) map[string]float64 {
	scores := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		scores[n] = 0
	}
	if len(nodes) == 0 {
		return scores
	}

	sources := nodes
	if len(nodes) > betweennessSamplingThreshold {
		sources = append([]string(nil), nodes[:betweennessSamplingThreshold]...)
	}

	for _, s := range sources {
		brandesFrom(adjacency, nodes, s, scores)
	}

	scale := 1.0
	if len(sources) < len(nodes) {
		scale = float64(len(nodes)) / float64(len(sources))
	}
	for n := range scores {
		scores[n] *= scale
	}
	return scores
}

func brandesFrom(adjacency map[string]map[string]int, nodes []string, s string, scores map[string]float64) {
	sigma := make(map[string]float64, len(nodes))
	dist := make(map[string]int, len(nodes))
	preds := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		dist[n] = -1
		sigma[n] = 0
	}
	dist[s] = 0
	sigma[s] = 1

	queue := []string{s}
	var stack []string
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		stack = append(stack, v)

		neighbors := make([]string, 0, len(adjacency[v]))
		for nb := range adjacency[v] {
			neighbors = append(neighbors, nb)
		}
		sort.Strings(neighbors)

		for _, w := range neighbors {
			if dist[w] < 0 {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
			if dist[w] == dist[v]+1 {
				sigma[w] += sigma[v]
				preds[w] = append(preds[w], v)
			}
		}
	}

	delta := make(map[string]float64, len(nodes))
	for i := len(stack) - 1; i >= 0; i-- {
		w := stack[i]
		for _, v := range preds[w] {
			if sigma[w] != 0 {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
		}
		if w != s {
			scores[w] += delta[w]
		}
	}
}
