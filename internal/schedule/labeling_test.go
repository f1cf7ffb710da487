package schedule

import (
	"testing"

	"github.com/uamyangel/potter/internal/geom"
	"github.com/uamyangel/potter/internal/model"
)

func TestLabelHighFanoutNetsLabelsLargestFirst(t *testing.T) {
	small := netWithBox(0, geom.Box{XMin: 0, XMax: 1, YMin: 0, YMax: 1}, 2)
	big := netWithBox(1, geom.Box{XMin: 0, XMax: 99, YMin: 0, YMax: 99}, 2)
	nets := []*model.Net{small, big}

	LabelHighFanoutNets(nets)

	if !big.Labeled {
		t.Errorf("largest-area net not labeled")
	}
	if small.Labeled {
		t.Errorf("small net unexpectedly labeled once the 50%% threshold was already cleared")
	}
}

func TestLabelHighFanoutNetsSkipsNetsWithNoConnections(t *testing.T) {
	empty := netWithBox(0, geom.Box{XMin: 0, XMax: 99, YMin: 0, YMax: 99}, 0)
	withConns := netWithBox(1, geom.Box{XMin: 0, XMax: 1, YMin: 0, YMax: 1}, 4)
	nets := []*model.Net{empty, withConns}

	LabelHighFanoutNets(nets)

	if empty.Labeled {
		t.Errorf("net with zero indirect connections was labeled")
	}
}

func TestLabelHighFanoutNetsNoConnectionsAtAll(t *testing.T) {
	n := netWithBox(0, geom.Box{XMin: 0, XMax: 1, YMin: 0, YMax: 1}, 0)
	nets := []*model.Net{n}

	LabelHighFanoutNets(nets)

	if n.Labeled {
		t.Errorf("net labeled despite zero total connections across the design")
	}
}

func TestLabelHighFanoutNetsResetsPreviousLabels(t *testing.T) {
	n := netWithBox(0, geom.Box{XMin: 0, XMax: 1, YMin: 0, YMax: 1}, 0)
	n.Labeled = true
	nets := []*model.Net{n}

	LabelHighFanoutNets(nets)

	if n.Labeled {
		t.Errorf("stale Labeled=true from a previous iteration survived relabeling")
	}
}
