package domain

// Mode is a game mode. The numeric values match the client protocol.
type Mode int

const (
	ModeStandard Mode = 0
	ModeTaiko    Mode = 1
	ModeCatch    Mode = 2
	ModeMania    Mode = 3
)

func AllModes() []Mode {
	return []Mode{ModeStandard, ModeTaiko, ModeCatch, ModeMania}
}

func (m Mode) Valid() bool {
	return m >= ModeStandard && m <= ModeMania
}

func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "std"
	case ModeTaiko:
		return "taiko"
	case ModeCatch:
		return "ctb"
	case ModeMania:
		return "mania"
	}
	return "unknown"
}

// Variant is a score ruleset variant. Each mode has a leaderboard per variant.
type Variant int

const (
	VariantVanilla Variant = 0
	VariantRelax   Variant = 1
)

func AllVariants() []Variant {
	return []Variant{VariantVanilla, VariantRelax}
}

// KeySuffix is appended to leaderboard cache keys. The vanilla variant has no
// suffix for compatibility with keys written before variants existed.
func (v Variant) KeySuffix() string {
	if v == VariantRelax {
		return ":relax"
	}
	return ""
}
