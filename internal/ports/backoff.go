package ports

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff shapes the capped exponential delay between connection attempts.
type Backoff struct {
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	Multiplier float64       `yaml:"multiplier"`
}

func (b *Backoff) ApplyDefaults() {
	if b.Initial <= 0 {
		b.Initial = 2 * time.Second
	}
	if b.Max <= 0 {
		b.Max = 30 * time.Second
	}
	if b.Multiplier < 1 {
		b.Multiplier = 2
	}
}

func (b *Backoff) Validate() error {
	if b.Max < b.Initial {
		return errors.New("backoff max must be >= initial")
	}
	return nil
}

// NewExponential returns a fresh, unjittered schedule that never gives up. Zero
// fields take their defaults.
func (b Backoff) NewExponential() *backoff.ExponentialBackOff {
	b.ApplyDefaults()
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = b.Initial
	eb.MaxInterval = b.Max
	eb.Multiplier = b.Multiplier
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0
	eb.Reset()
	return eb
}
