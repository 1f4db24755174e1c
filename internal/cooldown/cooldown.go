package cooldown

import "github.com/rovshanmuradov/shrimp-farm/internal/domain"

// Check fails with *domain.OnCooldownError when fewer than secs seconds
// passed since last. A zero last means the action never happened.
func Check(kind domain.CooldownKind, now, last int64, secs uint64) error {
	if last == 0 || secs == 0 {
		return nil
	}
	elapsed := now - last
	if elapsed < int64(secs) {
		return &domain.OnCooldownError{Kind: kind, Remaining: int64(secs) - elapsed}
	}
	return nil
}
