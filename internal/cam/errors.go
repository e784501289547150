package cam

import (
	"fmt"
)

// LayerNotFoundError reports that an explicitly requested layer path does
// not resolve to an instrumentable convolutional layer. An explicit path is
// honored verbatim: no fallback selection is attempted.
type LayerNotFoundError struct {
	Path   string
	Reason string
}

func (e *LayerNotFoundError) Error() string {
	return fmt.Sprintf("cam: layer %q not found: %s", e.Path, e.Reason)
}

// NoTargetLayerError reports that automatic target selection found no
// convolutional layer anywhere in the model.
type NoTargetLayerError struct {
	Detail string
}

func (e *NoTargetLayerError) Error() string {
	return fmt.Sprintf("cam: no target layer found: %s", e.Detail)
}

// CaptureMissingError reports that an expected capture (activation or
// gradient) was absent after the forward/backward pass.
type CaptureMissingError struct {
	What string // "activation" or "gradient"
}

func (e *CaptureMissingError) Error() string {
	return fmt.Sprintf("cam: %s capture missing after forward/backward pass", e.What)
}

// TensorRankError reports that a captured tensor does not have the
// expected rank.
type TensorRankError struct {
	What string
	Got  int
	Want int
}

func (e *TensorRankError) Error() string {
	return fmt.Sprintf("cam: unexpected %s tensor rank: got %dD, want %dD", e.What, e.Got, e.Want)
}
