package community

import (
	"sort"
	"strconv"
)

// louvain runs deterministic modularity-optimization clustering over a
// weighted adjacency list with resolution parameter rho. Ties in
// modularity gain are broken by the smallest candidate community id, and
// nodes are always visited in sorted key order, so membership partitions
// are stable across runs given identical input.
func louvain(adjacency map[string]map[string]int, rho float64) map[string]string {
	nodes := nodeKeys(adjacency)
	if len(nodes) == 0 {
		return nil
	}

	community := make(map[string]string, len(nodes))
	for _, n := range nodes {
		community[n] = n
	}

	degree := make(map[string]float64, len(nodes))
	totalWeight := 0.0
	for _, n := range nodes {
		for _, w := range adjacency[n] {
			degree[n] += float64(w)
			totalWeight += float64(w)
		}
	}
	if totalWeight == 0 {
		return community
	}
	m2 := totalWeight // sum of degrees = 2*m for an undirected graph represented with both directions

	communityDegree := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		communityDegree[community[n]] += degree[n]
	}

	improved := true
	for pass := 0; improved && pass < 50; pass++ {
		improved = false
		for _, n := range nodes {
			currentComm := community[n]
			communityDegree[currentComm] -= degree[n]

			gains := make(map[string]float64)
			for neighbor, w := range adjacency[n] {
				gains[community[neighbor]] += float64(w)
			}

			bestComm := currentComm
			bestGain := gains[currentComm] - rho*communityDegree[currentComm]*degree[n]/m2
			candidates := make([]string, 0, len(gains))
			for c := range gains {
				candidates = append(candidates, c)
			}
			candidates = append(candidates, currentComm)
			sort.Strings(candidates)

			for _, c := range candidates {
				gain := gains[c] - rho*communityDegree[c]*degree[n]/m2
				if gain > bestGain {
					bestGain = gain
					bestComm = c
				}
			}

			communityDegree[bestComm] += degree[n]
			if bestComm != currentComm {
				community[n] = bestComm
				improved = true
			}
		}
	}

	return relabel(community, nodes)
}

// relabel renumbers arbitrary community representative keys into stable,
// deterministic ids ordered by the smallest member key in each community.
func relabel(community map[string]string, nodes []string) map[string]string {
	groups := make(map[string][]string)
	for _, n := range nodes {
		c := community[n]
		groups[c] = append(groups[c], n)
	}

	var reps []string
	for c, members := range groups {
		sort.Strings(members)
		groups[c] = members
		reps = append(reps, c)
	}
	sort.Slice(reps, func(i, j int) bool { return groups[reps[i]][0] < groups[reps[j]][0] })

	out := make(map[string]string, len(nodes))
	for idx, rep := range reps {
		id := communityLabel(idx)
		for _, n := range groups[rep] {
			out[n] = id
		}
	}
	return out
}

func communityLabel(idx int) string {
	return "community-" + strconv.Itoa(idx)
}

func nodeKeys(adjacency map[string]map[string]int) []string {
	out := make([]string, 0, len(adjacency))
	for n := range adjacency {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
