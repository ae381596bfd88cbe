package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddChildSkipsDuplicates(t *testing.T) {
	c := &CustomerRecord{ID: "P"}

	assert.True(t, c.AddChild("A"))
	assert.True(t, c.AddChild("B"))
	assert.False(t, c.AddChild("A"))
	assert.Equal(t, []string{"A", "B"}, c.Children)
	assert.True(t, c.HasChild("B"))
	assert.False(t, c.HasChild("C"))
}
