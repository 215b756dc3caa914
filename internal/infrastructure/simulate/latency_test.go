package simulate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedProfile(t *testing.T) {
	p := Fixed(42 * time.Millisecond)

	for i := 0; i < 10; i++ {
		assert.Equal(t, 42*time.Millisecond, p.Sample())
	}
}

func TestUniformBounds(t *testing.T) {
	min := 10 * time.Millisecond
	max := 150 * time.Millisecond
	p := NewUniform(min, max)

	for i := 0; i < 1000; i++ {
		d := p.Sample()
		assert.GreaterOrEqual(t, d, min)
		assert.Less(t, d, max)
	}
}

func TestUniformDegenerateRange(t *testing.T) {
	p := NewUniform(time.Second, time.Second)

	d := p.Sample()
	assert.GreaterOrEqual(t, d, time.Second)
}

func TestLogNormalClamping(t *testing.T) {
	min := 5 * time.Millisecond
	max := 200 * time.Millisecond
	p := NewLogNormal(20*time.Millisecond, 1.5, min, max)

	for i := 0; i < 1000; i++ {
		d := p.Sample()
		assert.GreaterOrEqual(t, d, min)
		assert.LessOrEqual(t, d, max)
	}
}
