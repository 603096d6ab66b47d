// Package preferences persists user preferences outside the database. The
// only preference is the practice timer duration.
package preferences

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	keyTimerSeconds = "timer_duration_seconds"

	DefaultTimerSeconds = 60
)

var ErrInvalidDuration = errors.New("timer duration must be positive")

// Priority: file > default
type Preferences struct {
	mu       sync.Mutex
	v        *viper.Viper
	path     string
	fromFile bool
}

// Open loads path if it exists. A missing file is not an error; it is
// created on the first write.
func Open(path string) (*Preferences, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault(keyTimerSeconds, DefaultTimerSeconds)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read preferences: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat preferences: %w", err)
	}

	return &Preferences{v: v, path: path, fromFile: v.InConfig(keyTimerSeconds)}, nil
}

// TimerSeconds returns the last used timer duration in seconds. Corrupt or
// non-positive stored values read as the default.
func (p *Preferences) TimerSeconds() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.v.GetInt(keyTimerSeconds)
	if s <= 0 {
		return DefaultTimerSeconds
	}
	return s
}

func (p *Preferences) TimerDuration() time.Duration {
	return time.Duration(p.TimerSeconds()) * time.Second
}

// SetTimerDuration stores seconds and writes the file.
func (p *Preferences) SetTimerDuration(seconds int) error {
	if seconds <= 0 {
		return ErrInvalidDuration
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if dir := filepath.Dir(p.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preferences dir: %w", err)
		}
	}
	p.v.Set(keyTimerSeconds, seconds)
	if err := p.v.WriteConfigAs(p.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	p.fromFile = true
	return nil
}

type TimerInfo struct {
	Seconds int    `json:"seconds"`
	Source  string `json:"source"` // "file" or "default"
}

func (p *Preferences) TimerInfo() TimerInfo {
	seconds := p.TimerSeconds()

	p.mu.Lock()
	defer p.mu.Unlock()

	source := "default"
	if p.fromFile {
		source = "file"
	}
	return TimerInfo{Seconds: seconds, Source: source}
}
