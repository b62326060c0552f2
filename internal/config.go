package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=200ms"`
	PersistTimeout       time.Duration `env:"PERSIST_TIMEOUT,default=2s"`
	HistoryLimit         int           `env:"HISTORY_LIMIT,default=50"`
	FallbackCapacity     int           `env:"FALLBACK_CAPACITY,default=1000"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	AllowAnonymous       bool          `env:"ALLOW_ANONYMOUS,default=true"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	GCInterval           time.Duration `env:"GC_INTERVAL,default=10m"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
