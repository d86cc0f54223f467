package constants

import "time"

// Application Information
const (
	AppName    = "Clockwork"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Cache Key Prefixes
const (
	CacheKeyPrefix     = "clockwork:"
	CacheKeyStats      = CacheKeyPrefix + "stats:"
	CacheKeyUserStats  = CacheKeyStats + "user:"
	CacheKeyTeamStats  = CacheKeyStats + "team:"
	CacheKeyStatsMatch = CacheKeyStats + "*"
)

// Time formats accepted on query strings
const (
	TimeFormatISO8601  = time.RFC3339
	TimeFormatDateOnly = "2006-01-02"
)
