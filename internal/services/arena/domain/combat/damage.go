// Package combat resolves elemental battle rounds between the player's
// creature and the AI opponent.
package combat

import "github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"

// ComputeDamage applies the attacker's elemental modifiers to base.
//
// A strength matchup deals floor(base*1.5), a weakness matchup deals
// floor(base*0.5), anything else deals base. Strength wins when a malformed
// profile would match both. Negative base is treated as zero.
func ComputeDamage(table rules.Table, attacker, defender rules.CreatureType, base int) int {
	if base <= 0 {
		return 0
	}
	profile, ok := table.Profile(attacker)
	if !ok {
		return base
	}
	switch defender {
	case rules.None:
		return base
	case profile.Strength:
		return base * 3 / 2
	case profile.Weakness:
		return base / 2
	}
	return base
}
