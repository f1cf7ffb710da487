package astar

import (
	"math"

	"github.com/uamyangel/potter/internal/model"
)

// Weights are the Connection Router's A* cost-function coefficients,
// grounded on the routing prototype's fixed constants.
type Weights struct {
	RNodeCostWeight float64 // weight of the per-node negotiated-congestion cost
	RNodeWLWeight   float64 // weight of the committed-path wirelength term
	EstWLWeight     float64 // weight of the remaining-distance heuristic
	SharingWeight   float64 // weight of same-net sharing in the sharing factor
}

// DefaultWeights returns the router's standard coefficients.
func DefaultWeights() Weights {
	return Weights{
		RNodeCostWeight: 1.0,
		RNodeWLWeight:   0.2,
		EstWLWeight:     0.8,
		SharingWeight:   1.0,
	}
}

// nodeCost computes the §4.2 node-cost formula for candidate rnode.
//
//	occChange: this thread's uncommitted occupancy delta for rnode in the
//	  current batch (0 outside stable-first synchronized routing).
//	countSourceUses: the number of this net's connections currently using
//	  rnode, adjusted for any pending sync deltas and occChange.
//	countSourceUsesOrigin: the same count as of the last synchronization
//	  barrier (unadjusted), used to detect a 0<->non-zero occupancy
//	  transition this query would cause.
//	sharingFactor: 1 + sharingWeight*countSourceUses.
//	isTarget: whether rnode is the connection's sink (bias cost excluded).
func nodeCost(rnode *model.RouteNode, conn *model.Connection, net *model.Net, presentCongestionFactor float64,
	occChange, countSourceUses, countSourceUsesOrigin int32, sharingFactor float64, isTarget bool) float64 {

	hasSameSourceUsers := countSourceUses != 0

	var presentCost float64
	if hasSameSourceUsers {
		preDecOcc := int32(0)
		if countSourceUsesOrigin > 0 && countSourceUses == 0 {
			preDecOcc = 1
		}
		preIncOcc := int32(0)
		if countSourceUsesOrigin == 0 && countSourceUses > 0 {
			preIncOcc = 1
		}
		overOccupancy := rnode.GetOccupancy() - preDecOcc + preIncOcc + occChange - model.NodeCapacity
		presentCost = 1 + float64(overOccupancy)*presentCongestionFactor
	} else {
		presentCost = rnode.PresentCost
	}

	var biasCost float64
	if !isTarget {
		connCount := float64(len(net.IndirectConns))
		if connCount == 0 {
			connCount = 1
		}
		dHpwl := float64(net.DoubleHpwl)
		if dHpwl == 0 {
			dHpwl = 1
		}
		biasCost = rnode.BaseCost / connCount *
			(math.Abs(float64(rnode.EndTileX)-net.Box.CenterX()) + math.Abs(float64(rnode.EndTileY)-net.Box.CenterY())) / dHpwl
	}

	return rnode.BaseCost*rnode.HistoricalCost*presentCost/sharingFactor + biasCost
}
