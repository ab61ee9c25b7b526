package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusConstructors(t *testing.T) {
	h := NewHealthy("analyzer", "running")
	assert.True(t, h.IsHealthy())
	assert.True(t, h.Healthy)
	assert.Equal(t, "analyzer", h.Component)
	assert.False(t, h.Timestamp.IsZero())

	u := NewUnhealthy("cache", "down")
	assert.True(t, u.IsUnhealthy())
	assert.False(t, u.Healthy)

	d := NewDegraded("nats", "reconnecting")
	assert.True(t, d.IsDegraded())
	assert.False(t, d.IsHealthy())
	assert.False(t, d.IsUnhealthy())
}

func TestWithSubStatus(t *testing.T) {
	parent := NewHealthy("system", "ok")
	child := NewUnhealthy("cache", "down")

	combined := parent.WithSubStatus(child)
	assert.Len(t, combined.SubStatuses, 1)
	assert.Empty(t, parent.SubStatuses, "original is not mutated")
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		subs []Status
		want string
	}{
		{"no components", nil, "healthy"},
		{"all healthy", []Status{NewHealthy("a", ""), NewHealthy("b", "")}, "healthy"},
		{"one unhealthy", []Status{NewHealthy("a", ""), NewUnhealthy("b", "")}, "unhealthy"},
		{"one degraded", []Status{NewHealthy("a", ""), NewDegraded("b", "")}, "degraded"},
		{"degraded and unhealthy", []Status{NewDegraded("a", ""), NewUnhealthy("b", "")}, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate("system", tt.subs...)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, "system", got.Component)
			assert.Len(t, got.SubStatuses, len(tt.subs))
		})
	}
}
