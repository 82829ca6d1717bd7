package rolltable

import (
	"math/rand"
	"time"
)

// Roll bounds, inclusive.
const (
	MinRoll = 1
	MaxRoll = 99999
)

// Roller draws rolls uniformly from MinRoll..MaxRoll.
type Roller struct {
	rng *rand.Rand
}

// NewRoller seeds a roller. Seed 0 seeds from the clock.
func NewRoller(seed int64) *Roller {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Roller{rng: rand.New(rand.NewSource(seed))} // #nosec G404 -- game dice, not security
}

// Roll implements the game's Roller.
func (r *Roller) Roll() int {
	return MinRoll + r.rng.Intn(MaxRoll-MinRoll+1)
}
