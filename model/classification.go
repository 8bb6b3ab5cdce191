package model

import "strings"

// Tier is the display intensity bucket derived from a classification label.
// It drives color coding only; the label itself stays the source of truth.
type Tier int

const (
	TierUnknown Tier = iota // Unrecognized label, neutral treatment.
	TierNormal
	TierElevated
	TierStage1
	TierStage2
	TierCrisis
)

var tierByLabel = map[string]Tier{
	"normal":               TierNormal,
	"elevated":             TierElevated,
	"hypertension stage 1": TierStage1,
	"hypertension stage 2": TierStage2,
	"hypertensive crisis":  TierCrisis,
}

// TierFor maps a server classification label to its display tier. The match
// is case-insensitive and the function is total: any unknown label yields
// TierUnknown, never an error.
func TierFor(label string) Tier {
	if t, ok := tierByLabel[strings.ToLower(strings.TrimSpace(label))]; ok {
		return t
	}
	return TierUnknown
}

func (t Tier) String() string {
	switch t {
	case TierNormal:
		return "normal"
	case TierElevated:
		return "elevated"
	case TierStage1:
		return "stage1"
	case TierStage2:
		return "stage2"
	case TierCrisis:
		return "crisis"
	default:
		return "unknown"
	}
}
