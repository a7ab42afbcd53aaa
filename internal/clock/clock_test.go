package clock

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElapsed_AcrossWrap(t *testing.T) {
	start := uint32(math.MaxUint32 - 99)
	now := uint32(400)
	assert.Equal(t, uint32(500), Elapsed(start, now))
}

func TestFake_SleepAdvancesAndWraps(t *testing.T) {
	f := NewFake(math.MaxUint32 - 1)

	var seen []uint32
	f.OnAdvance(func(now uint32) { seen = append(seen, now) })

	f.Sleep(3 * time.Millisecond)

	assert.Equal(t, uint32(1), f.Millis())
	assert.Equal(t, []uint32{math.MaxUint32, 0, 1}, seen)
	assert.Equal(t, 3*time.Millisecond, f.Slept)
}

func TestFake_SubMillisecondSleepStillAdvances(t *testing.T) {
	f := NewFake(10)
	f.Sleep(100 * time.Microsecond)
	assert.Equal(t, uint32(11), f.Millis())
}

func TestSystem_MillisStartsAtOffset(t *testing.T) {
	s := NewSystemAt(1000)
	first := s.Millis()
	assert.GreaterOrEqual(t, first, uint32(1000))

	s.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, Elapsed(first, s.Millis()), uint32(5))
}

func TestSystem_OffsetNearWrap(t *testing.T) {
	s := NewSystemAt(math.MaxUint32 - 2)
	start := s.Millis()
	s.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, Elapsed(start, s.Millis()), uint32(10))
}
