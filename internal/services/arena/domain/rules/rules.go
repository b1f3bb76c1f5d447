// Package rules defines the elemental creature types and the immutable
// table of per-type combat profiles.
package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/elemental-arena/internal/platform/errors"
)

// CreatureType names an elemental creature.
type CreatureType string

const (
	Fire  CreatureType = "fire"
	Water CreatureType = "water"
	Earth CreatureType = "earth"
	Air   CreatureType = "air"
)

// None marks an absent strength or weakness.
const None CreatureType = ""

// AllTypes lists every creature type in canonical order.
var AllTypes = []CreatureType{Fire, Water, Earth, Air}

// ErrInvalidCreature is returned for type names outside AllTypes.
var ErrInvalidCreature = apperrors.New(apperrors.CodeInvalidCreature, "Invalid creature type")

// Valid reports whether t is one of the known creature types.
func (t CreatureType) Valid() bool {
	switch t {
	case Fire, Water, Earth, Air:
		return true
	}
	return false
}

func (t CreatureType) String() string { return string(t) }

// ParseCreatureType resolves a user-supplied name, ignoring case and
// surrounding whitespace.
func ParseCreatureType(name string) (CreatureType, error) {
	t := CreatureType(strings.ToLower(strings.TrimSpace(name)))
	if !t.Valid() {
		return None, apperrors.WithMetadata(ErrInvalidCreature.Code, ErrInvalidCreature.Message,
			map[string]string{"creature_type": name})
	}
	return t, nil
}

// Profile is the static combat record of a creature type.
type Profile struct {
	HP       int          `json:"hp" yaml:"hp"`
	Attack   int          `json:"attack" yaml:"attack"`
	Weakness CreatureType `json:"weakness,omitempty" yaml:"weakness"`
	Strength CreatureType `json:"strength,omitempty" yaml:"strength"`
}

// Table maps every creature type to its profile. The zero value is empty;
// use Default or NewTable. A Table is never mutated after construction and
// is safe to share between goroutines.
type Table struct {
	profiles map[CreatureType]Profile
}

// NewTable validates profiles and returns a Table holding a private copy.
func NewTable(profiles map[CreatureType]Profile) (Table, error) {
	for t := range profiles {
		if !t.Valid() {
			return Table{}, fmt.Errorf("unknown creature type %q", t)
		}
	}
	copied := make(map[CreatureType]Profile, len(AllTypes))
	for _, t := range AllTypes {
		p, ok := profiles[t]
		if !ok {
			return Table{}, fmt.Errorf("missing profile for %s", t)
		}
		if err := p.validate(t); err != nil {
			return Table{}, fmt.Errorf("%s: %w", t, err)
		}
		copied[t] = p
	}
	return Table{profiles: copied}, nil
}

func (p Profile) validate(self CreatureType) error {
	if p.HP <= 0 {
		return fmt.Errorf("hp must be positive, got %d", p.HP)
	}
	if p.Attack <= 0 {
		return fmt.Errorf("attack must be positive, got %d", p.Attack)
	}
	for label, other := range map[string]CreatureType{"weakness": p.Weakness, "strength": p.Strength} {
		if other == None {
			continue
		}
		if !other.Valid() {
			return fmt.Errorf("%s %q is not a creature type", label, other)
		}
		if other == self {
			return fmt.Errorf("%s cannot be the type itself", label)
		}
	}
	if p.Weakness != None && p.Weakness == p.Strength {
		return fmt.Errorf("weakness and strength are both %s", p.Weakness)
	}
	return nil
}

// Profile returns the profile for ct.
func (t Table) Profile(ct CreatureType) (Profile, bool) {
	p, ok := t.profiles[ct]
	return p, ok
}

// Types returns the types present in the table in canonical order.
func (t Table) Types() []CreatureType {
	types := make([]CreatureType, 0, len(t.profiles))
	for _, ct := range AllTypes {
		if _, ok := t.profiles[ct]; ok {
			types = append(types, ct)
		}
	}
	return types
}

// MarshalJSON renders the table as an object keyed by type name.
func (t Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.profiles)
}

// Default returns the built-in table: every type has 100 hp and 20 attack;
// fire beats earth, earth beats water, water beats fire; air is neutral.
func Default() Table {
	table, err := NewTable(map[CreatureType]Profile{
		Fire:  {HP: 100, Attack: 20, Weakness: Water, Strength: Earth},
		Water: {HP: 100, Attack: 20, Weakness: Earth, Strength: Fire},
		Earth: {HP: 100, Attack: 20, Weakness: Fire, Strength: Water},
		Air:   {HP: 100, Attack: 20},
	})
	if err != nil {
		panic(err)
	}
	return table
}
