// Package schedule implements the parallel routing schedulers (§4.4, §4.5),
// the k-means net partitioner (§4.7), and net labeling (§4.8) that feed
// them.
package schedule

import (
	"sort"

	"github.com/uamyangel/potter/internal/model"
)

// LabelHighFanoutNets implements §4.8: buckets nets by bounding-box area,
// then from largest area downward accumulates connection counts into the
// labeled set until labeling one more net would push the labeled share of
// all indirect connections to or past 0.5. Labeled nets are excluded from
// k-means/region partitioning and routed via a dedicated RPTT pass.
func LabelHighFanoutNets(nets []*model.Net) {
	totalConns := 0
	candidates := make([]*model.Net, 0, len(nets))
	for _, n := range nets {
		n.Labeled = false
		totalConns += len(n.IndirectConns)
		if len(n.IndirectConns) > 0 {
			candidates = append(candidates, n)
		}
	}
	if totalConns == 0 {
		return
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Area() > candidates[j].Area() })

	labeledConns := 0
	threshold := float64(totalConns) * labeledConnectionsRatio
	for _, n := range candidates {
		if float64(labeledConns) >= threshold {
			break
		}
		n.Labeled = true
		labeledConns += len(n.IndirectConns)
	}
}

const labeledConnectionsRatio = 0.5
