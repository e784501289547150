// Copyright 2025 The Sightline Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model provides the ChestNet reference classifier and its
// checkpoint format.
package model

import (
	"github.com/sightline-ml/sightline/internal/model"
	"github.com/sightline-ml/sightline/internal/tensor"
)

// DefaultLabels are the 14 NIH ChestX-ray14 finding labels, in model
// output order.
var DefaultLabels = model.DefaultLabels

// InputSize is the expected spatial input resolution.
const InputSize = model.InputSize

// ChestNet is a compact CNN classifier for 224x224 RGB chest X-rays.
type ChestNet[B tensor.Backend] = model.ChestNet[B]

// Prediction pairs a finding label with its sigmoid score.
type Prediction = model.Prediction

// New creates a ChestNet with the default NIH labels.
func New[B tensor.Backend](backend B) *ChestNet[B] {
	return model.New(backend)
}

// NewWithLabels creates a ChestNet with a custom label set.
func NewWithLabels[B tensor.Backend](backend B, labels []string) *ChestNet[B] {
	return model.NewWithLabels(backend, labels)
}

// SaveCheckpoint writes the model's parameters to a .sght file.
func SaveCheckpoint[B tensor.Backend](m *ChestNet[B], path string) error {
	return model.SaveCheckpoint(m, path)
}

// LoadCheckpoint loads parameters from a .sght file into the model.
func LoadCheckpoint[B tensor.Backend](m *ChestNet[B], path string) error {
	return model.LoadCheckpoint(m, path)
}
