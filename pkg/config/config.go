package config

import "time"

// Tracker defaults
const (
	DefaultEndpoint   = "http://localhost:8080/hit"
	DefaultAppVersion = "1"
	DefaultTimezone   = "UTC"
	DefaultLogLevel   = "info"
)

// Storage defaults
const (
	DefaultBackend     = "badger"
	DefaultStoragePath = "./data/tracker"
	DefaultMaxMemoryMB = 48
	MinMemoryMB        = 8
	DefaultRedisAddr   = "localhost:6379"
	BadgerGCInterval   = 10 * time.Minute
)

// Storage backends
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Collector defaults and limits
const (
	DefaultPort          = 8080
	DefaultMaxHits       = 1000
	MaxHitsLimit         = 100000
	ShutdownTimeout      = 10 * time.Second
	ReadHeaderTimeout    = 5 * time.Second
)

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSBroadcastBuffer = 256
	WSChannelBuffer   = 10
	WSWriteDeadline   = 10 * time.Second
	WSReadDeadline    = 60 * time.Second
	WSPingInterval    = 30 * time.Second
)
