package schedule

import (
	"math"

	"github.com/uamyangel/potter/internal/geom"
	"github.com/uamyangel/potter/internal/model"
)

// centroidHalfWidth, centroidHalfHeight are the fixed half-extents used to
// materialize a centroid as a small box around a point (§4.7).
const (
	centroidHalfWidth  = 3
	centroidHalfHeight = 15
)

// KMeansResult is the outcome of partitioning a set of (unlabeled) nets
// into K clusters.
type KMeansResult struct {
	// Clusters[k] lists the indices (into the nets slice passed to
	// KMeansPartition) of the nets assigned to cluster k.
	Clusters [][]int32
	// Centroids[k] is cluster k's current centroid box.
	Centroids []geom.Box
	// Rounds is the number of Lloyd iterations actually run.
	Rounds int
}

// KMeansPartition implements §4.7: fanout-weighted GIoU k-means over net
// bounding boxes, furthest-point centroid initialization, Lloyd's
// algorithm with empty-cluster reseeding, for at most maxRounds rounds.
func KMeansPartition(nets []*model.Net, k, maxRounds int) KMeansResult {
	if k < 1 {
		k = 1
	}
	if k > len(nets) {
		k = len(nets)
	}
	if k == 0 {
		return KMeansResult{}
	}

	centroids := initCentroids(nets, k)
	labels := make([]int, len(nets))
	for i := range labels {
		labels[i] = -1
	}

	rounds := 0
	for ; rounds < maxRounds; rounds++ {
		changed := false
		clusterSums := make([]clusterAccum, k)

		for i, n := range nets {
			best, bestDist := 0, math.Inf(1)
			for c, cb := range centroids {
				d := distance(cb, n)
				if d < bestDist {
					bestDist, best = d, c
				}
			}
			if labels[i] != best {
				changed = true
				labels[i] = best
			}
			clusterSums[best].accumulate(n)
		}

		newCentroids := make([]geom.Box, k)
		var nonEmptyMean geom.Box
		nonEmptyCount := 0
		for c := range clusterSums {
			if clusterSums[c].count > 0 {
				newCentroids[c] = clusterSums[c].weightedCentroid()
				nonEmptyMean = geom.Union(nonEmptyMean, newCentroids[c])
				nonEmptyCount++
			}
		}
		for c := range clusterSums {
			if clusterSums[c].count == 0 {
				if nonEmptyCount > 0 {
					newCentroids[c] = geom.AroundPoint(nonEmptyMean.CenterX(), nonEmptyMean.CenterY(), centroidHalfWidth, centroidHalfHeight)
				} else {
					newCentroids[c] = centroids[c]
				}
				changed = true
			}
		}
		centroids = newCentroids

		if !changed {
			rounds++
			break
		}
	}

	clusters := make([][]int32, k)
	for i, lbl := range labels {
		clusters[lbl] = append(clusters[lbl], int32(i))
	}

	return KMeansResult{Clusters: clusters, Centroids: centroids, Rounds: rounds}
}

// distance is the §4.7 weighted distance: giou(centroid, netBox) * fanout.
func distance(centroid geom.Box, n *model.Net) float64 {
	fanout := float64(len(n.IndirectConns))
	if fanout == 0 {
		fanout = 1
	}
	return geom.GIoU(centroid, n.Box) * fanout
}

// initCentroids implements the §4.7 initialization: the first centroid is
// a fanout-weighted geometric center of the device over the union of net
// interiors; each subsequent centroid is the net furthest (by distance)
// from its nearest existing centroid.
func initCentroids(nets []*model.Net, k int) []geom.Box {
	var sumX, sumY, sumW float64
	for _, n := range nets {
		w := float64(len(n.IndirectConns))
		if w == 0 {
			w = 1
		}
		sumX += n.Box.CenterX() * w
		sumY += n.Box.CenterY() * w
		sumW += w
	}
	cx, cy := 0.0, 0.0
	if sumW > 0 {
		cx, cy = sumX/sumW, sumY/sumW
	}

	centroids := make([]geom.Box, 0, k)
	centroids = append(centroids, geom.AroundPoint(cx, cy, centroidHalfWidth, centroidHalfHeight))

	for len(centroids) < k {
		bestIdx, bestDist := -1, -1.0
		for i, n := range nets {
			nearest := math.Inf(1)
			for _, c := range centroids {
				if d := distance(c, n); d < nearest {
					nearest = d
				}
			}
			if nearest > bestDist {
				bestDist, bestIdx = nearest, i
			}
		}
		if bestIdx < 0 {
			break
		}
		centroids = append(centroids, geom.AroundPoint(nets[bestIdx].Box.CenterX(), nets[bestIdx].Box.CenterY(), centroidHalfWidth, centroidHalfHeight))
	}

	return centroids
}

// clusterAccum accumulates a fanout-weighted bounding-box average for one
// cluster across a Lloyd iteration.
type clusterAccum struct {
	count                int
	sumWeight            float64
	sumXMin, sumXMax     float64
	sumYMin, sumYMax     float64
}

func (a *clusterAccum) accumulate(n *model.Net) {
	w := float64(len(n.IndirectConns))
	if w == 0 {
		w = 1
	}
	a.count++
	a.sumWeight += w
	a.sumXMin += float64(n.Box.XMin) * w
	a.sumXMax += float64(n.Box.XMax) * w
	a.sumYMin += float64(n.Box.YMin) * w
	a.sumYMax += float64(n.Box.YMax) * w
}

func (a *clusterAccum) weightedCentroid() geom.Box {
	if a.sumWeight == 0 {
		return geom.Box{}
	}
	return geom.Box{
		XMin: int32(a.sumXMin / a.sumWeight),
		XMax: int32(a.sumXMax / a.sumWeight),
		YMin: int32(a.sumYMin / a.sumWeight),
		YMax: int32(a.sumYMax / a.sumWeight),
	}
}
