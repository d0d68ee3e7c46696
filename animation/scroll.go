// Package animation builds declarative animation variants for the client-side
// renderer. A variant is a named target state plus its transition.
package animation

const (
	Offscreen = "offscreen"
	Onscreen  = "onscreen"

	DefaultOnscreenDuration = 2.0
)

type Transition struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration"`
}

// Target is the visual state a variant animates to.
type Target struct {
	Y          float64     `json:"y"`
	Opacity    float64     `json:"opacity"`
	Transition *Transition `json:"transition,omitempty"`
}

// Custom carries per-element parameters for dynamic variants. A nil Duration
// selects the variant default.
type Custom struct {
	Duration *float64 `json:"duration,omitempty"`
}

// Duration returns a Custom overriding the transition duration.
func Duration(d float64) *Custom {
	return &Custom{Duration: &d}
}

// Variant resolves a target for the given custom parameters, which may be nil.
type Variant func(custom *Custom) Target

type Variants map[string]Variant

// ScrollAnimation returns the reveal-on-scroll variants.
func ScrollAnimation() Variants {
	return Variants{
		Offscreen: func(*Custom) Target {
			return Target{Y: 120, Opacity: 0}
		},
		Onscreen: func(custom *Custom) Target {
			duration := DefaultOnscreenDuration
			if custom != nil && custom.Duration != nil {
				duration = *custom.Duration
			}

			return Target{
				Y:       0,
				Opacity: 1,
				Transition: &Transition{
					Type:     "spring",
					Duration: duration,
				},
			}
		},
	}
}

// Resolve evaluates the named variant.
func (v Variants) Resolve(name string, custom *Custom) (Target, bool) {
	fn, ok := v[name]
	if !ok {
		return Target{}, false
	}
	return fn(custom), true
}

// ResolveAll evaluates every variant with the same custom parameters.
func (v Variants) ResolveAll(custom *Custom) map[string]Target {
	out := make(map[string]Target, len(v))
	for name, fn := range v {
		out[name] = fn(custom)
	}
	return out
}
