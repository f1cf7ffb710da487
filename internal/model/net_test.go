package model

import "testing"

func TestIncrementUserTransition(t *testing.T) {
	n := NewNet(0)
	if first := n.IncrementUser(10); !first {
		t.Fatalf("first IncrementUser(10) = false, want true (0->1 transition)")
	}
	if again := n.IncrementUser(10); again {
		t.Fatalf("second IncrementUser(10) = true, want false (already used)")
	}
	if got := n.CountConnectionsOfUser(10); got != 2 {
		t.Errorf("CountConnectionsOfUser(10) = %d, want 2", got)
	}
}

func TestDecrementUserTransition(t *testing.T) {
	n := NewNet(0)
	n.IncrementUser(10)
	n.IncrementUser(10)

	if released := n.DecrementUser(10); released {
		t.Fatalf("DecrementUser at count 2 = true, want false")
	}
	if released := n.DecrementUser(10); !released {
		t.Fatalf("DecrementUser at count 1 = false, want true (1->0 transition)")
	}
	if got := n.CountConnectionsOfUser(10); got != 0 {
		t.Errorf("CountConnectionsOfUser(10) after release = %d, want 0", got)
	}
}

func TestPendingDeltaReplay(t *testing.T) {
	n := NewNet(0)
	n.IncrementUser(5)

	n.PreIncrementUser(7)
	n.PreIncrementUser(7)
	n.PreDecrementUser(5)

	var claimed, released []int32
	n.UpdatePreIncrement(1, func(nodeID, batchStamp int32) { claimed = append(claimed, nodeID) })
	n.UpdatePreDecrement(1, func(nodeID, batchStamp int32) { released = append(released, nodeID) })

	if len(claimed) != 1 || claimed[0] != 7 {
		t.Errorf("claimed = %v, want [7]", claimed)
	}
	if len(released) != 1 || released[0] != 5 {
		t.Errorf("released = %v, want [5]", released)
	}
	if got := n.CountConnectionsOfUser(7); got != 2 {
		t.Errorf("CountConnectionsOfUser(7) = %d, want 2", got)
	}
	if got := n.CountConnectionsOfUser(5); got != 0 {
		t.Errorf("CountConnectionsOfUser(5) = %d, want 0", got)
	}

	n.ClearPreIncrement()
	n.ClearPreDecrement()
	if got := n.GetPreIncrementUser(7); got != 0 {
		t.Errorf("GetPreIncrementUser(7) after clear = %d, want 0", got)
	}
}

func TestNewNetDefaults(t *testing.T) {
	n := NewNet(3)
	if n.IndirectSource != InvalidID || n.DirectSource != InvalidID {
		t.Errorf("NewNet sources = (%d, %d), want both %d", n.IndirectSource, n.DirectSource, InvalidID)
	}
	if n.UsersConnectionCounts == nil {
		t.Errorf("NewNet left UsersConnectionCounts nil")
	}
}
