package main

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080" validate:"gt=0,lte=65535"`
	PublicURL            string        `env:"PUBLIC_URL"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,default=./data/progress"`
	BufferSize           int           `env:"BUFFER_SIZE,default=256" validate:"gt=0"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64" validate:"gt=0"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	TelemetryInterval    time.Duration `env:"TELEMETRY_INTERVAL,default=30s" validate:"gt=0"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*" validate:"len=1"`

	RoundDuration        time.Duration `env:"ROUND_DURATION,default=5m" validate:"gt=0"`
	MeetingDuration      time.Duration `env:"MEETING_DURATION,default=30s" validate:"gt=0"`
	KillCooldown         time.Duration `env:"KILL_COOLDOWN,default=30s" validate:"gt=0"`
	LobbyResetDelay      time.Duration `env:"LOBBY_RESET_DELAY,default=5s" validate:"gt=0"`
	TickInterval         time.Duration `env:"TICK_INTERVAL,default=1s" validate:"gt=0"`
	EliminationThreshold int           `env:"ELIMINATION_THRESHOLD,default=3" validate:"gt=0"`
	TaskGoal             int           `env:"TASK_GOAL,default=3" validate:"gt=0"`
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// CharacterRune enforces that the censor replacement is a single character.
func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.CharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf("CHARACTER_REPLACEMENT must be a single character, got %q", c.CharReplacement)
	}
	return r[0], nil
}

// JoinURL is what the QR code points to.
func (c Config) JoinURL() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	return fmt.Sprintf("http://%s:%d/", c.Host, c.Port)
}
