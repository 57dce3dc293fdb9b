package utils

import (
	"context"
	"sync"
	"time"

	"github.com/cppla/aiblog/config"
)

var (
	regCooldown   = map[string]time.Time{}
	regCooldownMu sync.Mutex
)

// RegistrationCooldownTry enforces a short cooldown between registration
// attempts per IP. It reports false while the IP is still cooling down.
func RegistrationCooldownTry(ip string) bool {
	sec := config.Get().RegisterAttemptCooldownSec
	if sec <= 0 || ip == "" {
		return true
	}
	ttl := time.Duration(sec) * time.Second

	if cli := GetRedis(); cli != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		ok, err := cli.SetNX(ctx, "reg:cooldown:"+ip, "1", ttl).Result()
		if err == nil {
			return ok
		}
		// fail over to the in-memory guard
	}

	regCooldownMu.Lock()
	defer regCooldownMu.Unlock()
	now := time.Now()
	if until, ok := regCooldown[ip]; ok && now.Before(until) {
		return false
	}
	regCooldown[ip] = now.Add(ttl)
	return true
}
