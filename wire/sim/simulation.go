// Package sim is an in-process Casio watch. It answers read requests with
// encoded notifications, applies writes to its own state, and records every
// write so tests can check ordering.
package sim

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/user/gshock-sync/casio"
	"github.com/user/gshock-sync/wire/gatt"
)

// Config controls the realism of the simulated link
type Config struct {
	Name    string
	Address string

	// Response timing (in milliseconds)
	MinResponseDelay int
	MaxResponseDelay int

	// Connection timing (in milliseconds)
	MinConnectionDelay    int
	MaxConnectionDelay    int
	ConnectionFailureRate float64

	// Probability that a read request is never answered
	ResponseLossRate float64

	// Commands this model ignores silently
	Silent []casio.Command

	// Handles the watch does not expose
	Unsupported []gatt.Handle

	// Return io.EOF from the time write, as the watch does when it drops
	// the link right after a LOWER_RIGHT sync
	EOFOnTimeWrite bool

	// Stop advertising for this long after a disconnect
	ReadvertiseAfter time.Duration

	BaseRSSI int

	// Deterministic mode for testing
	Deterministic bool
	Seed          int64
}

// DefaultConfig returns a watch with realistic delays and rare losses
func DefaultConfig() *Config {
	return &Config{
		Name:    "CASIO GW-B5600",
		Address: "D0:4F:7E:12:34:56",

		MinResponseDelay: 5,
		MaxResponseDelay: 40,

		MinConnectionDelay:    30,
		MaxConnectionDelay:    100,
		ConnectionFailureRate: 0.016,

		ResponseLossRate: 0.005,
		BaseRSSI:         -60,
	}
}

// PerfectConfig returns a fully reliable, zero-delay watch for tests
func PerfectConfig() *Config {
	cfg := DefaultConfig()
	cfg.MinResponseDelay = 0
	cfg.MaxResponseDelay = 0
	cfg.MinConnectionDelay = 0
	cfg.MaxConnectionDelay = 0
	cfg.ConnectionFailureRate = 0
	cfg.ResponseLossRate = 0
	cfg.Deterministic = true
	return cfg
}

// simulator draws the random parts of link behaviour
type simulator struct {
	mu     sync.Mutex
	config *Config
	rng    *rand.Rand
}

func newSimulator(config *Config) *simulator {
	var rng *rand.Rand
	if config.Deterministic {
		rng = rand.New(rand.NewSource(config.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &simulator{config: config, rng: rng}
}

func (s *simulator) between(min, max int) time.Duration {
	if max <= min {
		return time.Duration(min) * time.Millisecond
	}
	s.mu.Lock()
	n := min + s.rng.Intn(max-min)
	s.mu.Unlock()
	return time.Duration(n) * time.Millisecond
}

func (s *simulator) chance(rate float64) bool {
	if rate <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < rate
}

func (s *simulator) connectionDelay() time.Duration {
	return s.between(s.config.MinConnectionDelay, s.config.MaxConnectionDelay)
}

func (s *simulator) responseDelay() time.Duration {
	return s.between(s.config.MinResponseDelay, s.config.MaxResponseDelay)
}

func (s *simulator) connectionFails() bool {
	return s.chance(s.config.ConnectionFailureRate)
}

func (s *simulator) responseLost() bool {
	return s.chance(s.config.ResponseLossRate)
}

// rssi returns a reading around BaseRSSI for a watch distance metres away
func (s *simulator) rssi(distance float64) int16 {
	if distance < 1 {
		distance = 1
	}
	v := float64(s.config.BaseRSSI) - 20*math.Log10(distance)
	s.mu.Lock()
	v += float64(s.rng.Intn(7) - 3)
	s.mu.Unlock()
	if v < -100 {
		v = -100
	}
	return int16(v)
}
