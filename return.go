package ribose

import "github.com/ribose-run/ribose/internal/effect"

// Return is the bitset a Target's Invoke (and every built-in effector)
// reports back to the transductor core.
type Return = effect.Return

// Structural return flags.
const (
	None    = effect.None
	Start   = effect.Start
	Stop    = effect.Stop
	Input   = effect.Input
	Pause   = effect.Pause
	Stopped = effect.Stopped
)

// WithSignal returns r with a signal injection request packed in,
// for a Target implementation that wants to inject a signal from a
// host-defined effector.
func WithSignal(r Return, sym int32) Return { return effect.WithSignal(r, sym) }
