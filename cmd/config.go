package main

import "time"

type Config struct {
	EventBufferSize           int           `env:"EVENT_BUFFER_SIZE,default=256"`
	ModerationCharReplacement rune          `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	LimitMessages             *int          `env:"LIMIT_MESSAGES"`
	SinkTimeout               time.Duration `env:"SINK_TIMEOUT,required=true"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,required=true"`
	TelemetryInterval         time.Duration `env:"TELEMETRY_INTERVAL,default=10s"`
	TimelineSize              int           `env:"TIMELINE_SIZE,default=50"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	IndexFilepath             string        `env:"INDEX_FILEPATH,required=true"`
	UploadsFilepath           string        `env:"UPLOADS_FILEPATH,required=true"`
	JWTKey                    string        `env:"JWT_KEY,required=true"`
	TokenDuration             time.Duration `env:"TOKEN_DURATION,default=24h"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
}
