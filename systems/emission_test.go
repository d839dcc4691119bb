package systems

import (
	"math"
	"math/rand"
	"testing"
)

func TestEmissionFixedRate(t *testing.T) {
	c := NewEmissionController(10)
	for i := 0; i < 10; i++ {
		if n := c.Consume(0.1); n != 1 {
			t.Fatalf("frame %d emitted %d, want 1", i, n)
		}
	}
}

func TestEmissionCarriesFraction(t *testing.T) {
	// 25/s at 60 fps is 0.4166 per frame: no frame may lose the remainder.
	c := NewEmissionController(25)
	total := 0
	for i := 0; i < 600; i++ {
		total += c.Consume(1.0 / 60.0)
	}
	if total < 249 || total > 250 {
		t.Errorf("emitted %d over 10s, want 250 within one", total)
	}
	if p := c.Pending(); p < 0 || p >= 1 {
		t.Errorf("pending fraction %v outside [0,1)", p)
	}
}

func TestEmissionConvergesUnderJitter(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rates := []float64{0.5, 3, 100, 1234.5}

	for _, rate := range rates {
		c := NewEmissionController(rate)
		var elapsed float64
		total := 0
		for i := 0; i < 5000; i++ {
			dt := 0.001 + rng.Float64()*0.05
			elapsed += dt
			total += c.Consume(dt)

			bound := math.Ceil(rate*elapsed) + 1
			if float64(total) > bound {
				t.Fatalf("rate %v: emitted %d after %.3fs exceeds bound %v", rate, total, elapsed, bound)
			}
		}
		if diff := rate*elapsed - float64(total); diff < -1e-6 || diff >= 1+1e-6 {
			t.Errorf("rate %v: total %d vs expected %.3f (diff %.6f)", rate, total, rate*elapsed, diff)
		}
	}
}

func TestEmissionRateDroppedToZero(t *testing.T) {
	c := NewEmissionController(10)
	for i := 0; i < 5; i++ {
		c.Consume(0.1)
	}
	c.Configure(0)
	for i := 0; i < 100; i++ {
		if n := c.Consume(0.1); n != 0 {
			t.Fatalf("frame %d emitted %d after rate dropped to 0", i, n)
		}
	}
}

func TestEmissionNeverNegative(t *testing.T) {
	c := NewEmissionController(-3)
	if c.Rate() != 0 {
		t.Errorf("negative rate stored as %v", c.Rate())
	}
	if n := c.Consume(-1); n != 0 {
		t.Errorf("negative dt emitted %d", n)
	}
	if n := c.Consume(1); n != 0 {
		t.Errorf("zero rate emitted %d", n)
	}

	huge := NewEmissionController(1e20)
	for i := 0; i < 2; i++ {
		if n := huge.Consume(0.1); n < 0 || n > math.MaxInt32 {
			t.Errorf("rate 1e20 frame %d emitted %d", i, n)
		}
	}

	inf := NewEmissionController(math.Inf(1))
	if inf.Rate() != 0 {
		t.Errorf("infinite rate stored as %v", inf.Rate())
	}
	if n := inf.Consume(0.1); n != 0 {
		t.Errorf("infinite rate emitted %d", n)
	}
	if p := inf.Pending(); p != 0 {
		t.Errorf("pending after infinite rate = %v, want 0", p)
	}
	inf.Configure(10)
	if n := inf.Consume(0.1); n != 1 {
		t.Errorf("emitted %d after recovering to 10/s, want 1", n)
	}
}
