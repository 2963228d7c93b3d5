// Package staleness decides when cached account statistics must be fetched again.
package staleness

import "time"

type Policy struct {
	TTL time.Duration
	Now func() time.Time
}

func New(ttl time.Duration) *Policy {
	return &Policy{TTL: ttl, Now: time.Now}
}

func (p *Policy) nowMillis() int64 {
	if p.Now == nil {
		return time.Now().UnixMilli()
	}
	return p.Now().UnixMilli()
}

// NeedsUpdate is true when lastUpdated (epoch ms) is absent or older than the TTL.
func (p *Policy) NeedsUpdate(lastUpdated int64) bool {
	if lastUpdated == 0 {
		return true
	}
	return p.nowMillis()-lastUpdated > p.TTL.Milliseconds()
}

// IsFresh is false for absent timestamps. At exactly TTL an account is
// neither fresh nor due for update.
func (p *Policy) IsFresh(lastUpdated int64) bool {
	if lastUpdated == 0 {
		return false
	}
	return p.nowMillis()-lastUpdated < p.TTL.Milliseconds()
}

func (p *Policy) HoursSince(lastUpdated int64) int {
	if lastUpdated == 0 {
		return 0
	}
	elapsed := p.nowMillis() - lastUpdated
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Hour.Milliseconds())
}
