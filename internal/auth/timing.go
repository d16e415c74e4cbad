package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig controls the uniform-rejection delay applied to failed
// authentication attempts so "unknown email" and "wrong password" are not
// distinguishable by response time.
type TimingConfig struct {
	BaseDelay   time.Duration
	RandomDelay time.Duration
}

// TimingDelay pads failed authentication paths to a uniform duration.
type TimingDelay struct {
	config TimingConfig
}

// NewTimingDelay creates a TimingDelay.
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{config: config}
}

// WaitFrom sleeps until at least base+random time has elapsed since start.
// Paths that already burned time (a bcrypt compare) therefore converge on
// the same total duration as paths that short-circuited.
func (td *TimingDelay) WaitFrom(start time.Time) {
	target := td.config.BaseDelay + td.randomDelay()
	if elapsed := time.Since(start); elapsed < target {
		time.Sleep(target - elapsed)
	}
}

func (td *TimingDelay) randomDelay() time.Duration {
	if td.config.RandomDelay <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	n := binary.BigEndian.Uint64(buf[:])
	return time.Duration(n % uint64(td.config.RandomDelay))
}
