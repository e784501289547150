// Command sightline renders a Grad-CAM saliency overlay for a chest X-ray.
//
// It loads an image, runs it through a ChestNet classifier, computes the
// Grad-CAM heatmap for the requested (or top predicted) class, and writes
// the tinted overlay next to the per-class sigmoid scores.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/sightline-ml/sightline/autodiff"
	"github.com/sightline-ml/sightline/backend/cpu"
	"github.com/sightline-ml/sightline/cam"
	"github.com/sightline-ml/sightline/imaging"
	"github.com/sightline-ml/sightline/model"
	"github.com/sightline-ml/sightline/overlay"
)

func main() {
	imagePath := flag.String("image", "", "Path to the input image (PNG or JPEG)")
	checkpointPath := flag.String("checkpoint", "", "Path to a .sght checkpoint (optional; random weights if omitted)")
	layerPath := flag.String("layer", "", "Target convolutional layer path, e.g. features.9 (default: auto-select)")
	classIndex := flag.Int("class", -1, "Class index to explain (-1: top predicted class)")
	outPath := flag.String("out", "overlay.png", "Path for the rendered overlay PNG")
	maxAlpha := flag.Uint("alpha", uint(overlay.DefaultMaxAlpha), "Overlay opacity at full saliency (0-255)")
	topK := flag.Int("top", 5, "Number of top predictions to report")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	if *imagePath == "" {
		logger.Error("missing required -image flag")
		flag.Usage()
		os.Exit(2)
	}
	if *maxAlpha > 255 {
		logger.Error("invalid -alpha value", "alpha", *maxAlpha, "max", 255)
		os.Exit(2)
	}

	if err := run(logger, *imagePath, *checkpointPath, *layerPath, *outPath, *classIndex, uint8(*maxAlpha), *topK); err != nil {
		logger.Error("sightline failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, imagePath, checkpointPath, layerPath, outPath string, classIndex int, maxAlpha uint8, topK int) error {
	start := time.Now()

	logger.Debug("loading image", "path", imagePath)
	base, err := imaging.LoadImage(imagePath)
	if err != nil {
		return err
	}

	backend := autodiff.New(cpu.New())

	net := model.New(backend)
	if checkpointPath != "" {
		logger.Info("loading checkpoint", "path", checkpointPath)
		if err := model.LoadCheckpoint(net, checkpointPath); err != nil {
			return err
		}
	} else {
		logger.Warn("no checkpoint given, using randomly initialized weights")
	}

	input, err := imaging.Preprocess(base, backend)
	if err != nil {
		return err
	}

	engine, err := cam.New(net, backend, layerPath)
	if err != nil {
		return err
	}
	logger.Info("instrumented layer", "path", engine.TargetPath())

	heatmap, err := engine.ComputeHeatmap(input, classIndex)
	if err != nil {
		return err
	}
	if heatmap.IsZero() {
		logger.Warn("saliency map is degenerate, overlay will be transparent")
	}

	opts := overlay.DefaultOptions()
	opts.MaxAlpha = maxAlpha
	rendered, err := overlay.Render(base, heatmap, opts)
	if err != nil {
		return err
	}
	if err := imaging.SavePNG(outPath, rendered); err != nil {
		return err
	}
	logger.Info("wrote overlay", "path", outPath, "elapsed", time.Since(start).Round(time.Millisecond))

	for i, p := range net.TopPredictions(input, topK) {
		fmt.Printf("%2d. %-20s %.4f\n", i+1, p.Label, p.Score)
	}
	return nil
}
