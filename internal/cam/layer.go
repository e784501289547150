package cam

import (
	"strings"

	"github.com/sightline-ml/sightline/internal/nn"
)

// featuresPrefix is the conventional name of the convolutional stage in a
// classifier. Automatic target selection prefers the deepest convolution
// under this child.
const featuresPrefix = "features."

// resolveTarget locates the convolutional layer to instrument.
//
// With an explicit path, the path is honored verbatim: a missing or
// non-convolutional module is an error, never a fallback. With an empty
// path, the last Conv2D under the "features" child is selected; if the
// model has no "features" stage, the last Conv2D anywhere is used.
func resolveTarget[B Backend](model nn.Module[B], path string) (*nn.Conv2D[B], string, error) {
	if path != "" {
		module, ok := nn.ModuleByPath(model, path)
		if !ok {
			return nil, "", &LayerNotFoundError{Path: path, Reason: "no module at this path"}
		}
		conv, ok := module.(*nn.Conv2D[B])
		if !ok {
			return nil, "", &LayerNotFoundError{Path: path, Reason: "module is not a Conv2D layer"}
		}
		return conv, path, nil
	}

	convs := nn.Convolutions(model)
	if len(convs) == 0 {
		return nil, "", &NoTargetLayerError{Detail: "model contains no Conv2D layers"}
	}

	// Deepest convolution in the feature extractor wins: it carries the
	// most class-discriminative spatial information.
	for i := len(convs) - 1; i >= 0; i-- {
		if strings.HasPrefix(convs[i].Path, featuresPrefix) {
			conv := convs[i].Module.(*nn.Conv2D[B])
			return conv, convs[i].Path, nil
		}
	}

	last := convs[len(convs)-1]
	return last.Module.(*nn.Conv2D[B]), last.Path, nil
}
