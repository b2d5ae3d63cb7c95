package authcore

import (
	"errors"
	"time"
)

// Config carries every tunable the engine recognizes. Zero values are filled
// in by normalize; the one setting without a usable default is the signing
// secret, which Validate rejects up front so a misconfigured deployment fails
// at startup rather than on the first login.
type Config struct {
	JWT     JWTConfig
	Refresh RefreshConfig
	Cache   CacheConfig
	Audit   AuditConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the access token codec. Signing is HMAC-SHA256 with a
// shared symmetric secret; issuer and audience are stamped into and checked
// on every token.
type JWTConfig struct {
	Secret   []byte
	Issuer   string
	Audience string

	// AccessTTLMinutes is the access token lifetime. Defaults to 15.
	AccessTTLMinutes int

	// Leeway tolerated when checking exp, for clock skew between issuer and
	// verifier. Defaults to zero; capped at two minutes.
	Leeway time.Duration
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig configures refresh token lifetimes.
type RefreshConfig struct {
	// TTLDays is the refresh token lifetime. Defaults to 7.
	TTLDays int
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig configures the shared cache coordinator used by the revocation
// registry and by derived-view caching.
type CacheConfig struct {
	// Namespace prefixes every cache key, isolating instances that share a
	// Redis deployment. Defaults to "authcore".
	Namespace string

	// DefaultTTL applies to Set calls without an explicit TTL.
	// Defaults to 15 minutes.
	DefaultTTL time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// DefaultConfig returns a Config with every default applied. The JWT secret
// is intentionally left empty and must be supplied by the caller.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.normalize()
	return cfg
}

const minSecretBytes = 32

func (c *Config) normalize() {
	if c.JWT.AccessTTLMinutes <= 0 {
		c.JWT.AccessTTLMinutes = 15
	}
	if c.Refresh.TTLDays <= 0 {
		c.Refresh.TTLDays = 7
	}
	if c.Cache.Namespace == "" {
		c.Cache.Namespace = "authcore"
	}
	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = 15 * time.Minute
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = 256
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if len(c.JWT.Secret) == 0 {
		return errors.New("jwt signing secret is required")
	}
	if len(c.JWT.Secret) < minSecretBytes {
		return errors.New("jwt signing secret must be at least 32 bytes")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("invalid leeway configuration")
	}
	if c.JWT.AccessTTLMinutes < 0 {
		return errors.New("invalid access TTL configuration")
	}
	if c.Refresh.TTLDays < 0 {
		return errors.New("invalid refresh TTL configuration")
	}
	return nil
}

// AccessTTL returns the configured access token lifetime as a duration.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the configured refresh token lifetime as a duration.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.Refresh.TTLDays) * 24 * time.Hour
}
