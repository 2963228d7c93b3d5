package constants

import "time"

const (
	AccountCacheTTL = 24 * time.Hour
)

const (
	ExternalAPITimeout = 10 * time.Second
	StoreTimeout       = 5 * time.Second
	RequestTimeout     = 60 * time.Second
	BridgeTimeout      = 5 * time.Second
)

const (
	RemoteRetryBase       = 200 * time.Millisecond
	RemoteRetryJitterPct  = 20
	RemoteMaxConnsPerHost = 100
)

const (
	DBMaxOpenConns    = 1
	DBMaxIdleConns    = 1
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	AccountsKey      = "accounts"
	TopChampionCount = 3
)
