package browser

import (
	"math/rand/v2"
	"time"
)

// Deliberate timing noise: deterministic intervals between input events
// are a bot-detection signal, so every keystroke and click carries
// bounded random jitter.
const (
	keystrokeDelayMin = 100 * time.Millisecond
	keystrokeJitter   = 300 * time.Millisecond

	hoverDelayMin = 100 * time.Millisecond
	hoverJitter   = 200 * time.Millisecond
)

func keystrokeDelay() time.Duration {
	return keystrokeDelayMin + rand.N(keystrokeJitter)
}

func hoverDelay() time.Duration {
	return hoverDelayMin + rand.N(hoverJitter)
}
