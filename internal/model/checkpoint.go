package model

import (
	"fmt"

	"github.com/sightline-ml/sightline/internal/serialization"
	"github.com/sightline-ml/sightline/internal/tensor"
)

// SaveCheckpoint writes the model's parameters to a .sght file.
func SaveCheckpoint[B tensor.Backend](m *ChestNet[B], path string) error {
	metadata := map[string]string{
		"num_classes": fmt.Sprintf("%d", m.NumClasses()),
	}
	if err := serialization.SaveFile(path, m.StateDict(), "ChestNet", metadata); err != nil {
		return fmt.Errorf("model: failed to save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint loads parameters from a .sght file into the model.
//
// Key normalization and shape validation follow ChestNet.LoadStateDict.
func LoadCheckpoint[B tensor.Backend](m *ChestNet[B], path string) error {
	stateDict, _, err := serialization.LoadFile(path)
	if err != nil {
		return fmt.Errorf("model: failed to read checkpoint: %w", err)
	}
	if err := m.LoadStateDict(stateDict); err != nil {
		return fmt.Errorf("model: failed to load checkpoint: %w", err)
	}
	return nil
}
