package model

import "testing"

func TestNewConnectionDefaults(t *testing.T) {
	c := NewConnection(3, 1, 10, 20, true)
	if c.ID != 3 || c.NetID != 1 || c.Source != 10 || c.Sink != 20 || !c.IsIndirect {
		t.Errorf("NewConnection() = %+v, unexpected fields", c)
	}
	if c.Routed {
		t.Errorf("new connection is Routed, want false")
	}
}

func TestShouldRoute(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Connection)
		want   bool
	}{
		{"never routed", func(c *Connection) {}, true},
		{"routed, not congested", func(c *Connection) { c.Routed = true }, false},
		{"routed and congested", func(c *Connection) { c.Routed = true; c.IsCongested = true }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConnection(0, 0, 0, 1, true)
			tt.mutate(c)
			if got := c.ShouldRoute(); got != tt.want {
				t.Errorf("ShouldRoute() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResetPathClearsButKeepsCapacity(t *testing.T) {
	c := NewConnection(0, 0, 0, 1, true)
	c.Path = append(c.Path, 1, 0)

	c.ResetPath()

	if len(c.Path) != 0 {
		t.Errorf("len(Path) = %d after ResetPath(), want 0", len(c.Path))
	}
	c.Path = append(c.Path, 5)
	if c.Path[0] != 5 {
		t.Errorf("Path after reuse = %v, want [5]", c.Path)
	}
}
