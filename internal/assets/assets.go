// Package assets validates the branding images embedded in every payslip.
package assets

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	// Register decoders for the formats branding assets may use.
	_ "image/jpeg"
	_ "image/png"
)

// ValidationError is the run-fatal branding asset failure. It surfaces before
// any record is read.
type ValidationError struct {
	Asset   string // "logo" or "signature"
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("asset validation error: %s (%s): %s", e.Asset, e.Path, e.Message)
}

// Spec describes one required branding asset and its constraints.
type Spec struct {
	Label             string
	Path              string
	AllowedExtensions []string
	RequiredPx        []int // [width, height]; empty disables the resolution check
}

// Bundle is the validated pair of branding assets consumed by the renderer.
type Bundle struct {
	LogoPath      string
	SignaturePath string
}

// Validate checks one asset for existence, extension, and (optionally) exact
// pixel resolution.
func Validate(spec Spec) error {
	info, err := os.Stat(spec.Path)
	if err != nil {
		return &ValidationError{Asset: spec.Label, Path: spec.Path, Message: "file not found"}
	}
	if info.IsDir() {
		return &ValidationError{Asset: spec.Label, Path: spec.Path, Message: "path is a directory"}
	}

	ext := strings.ToLower(filepath.Ext(spec.Path))
	if len(spec.AllowedExtensions) > 0 {
		allowed := false
		for _, a := range spec.AllowedExtensions {
			if strings.ToLower(a) == ext {
				allowed = true
				break
			}
		}
		if !allowed {
			return &ValidationError{
				Asset: spec.Label, Path: spec.Path,
				Message: fmt.Sprintf("extension %q not allowed (allowed: %s)", ext, strings.Join(spec.AllowedExtensions, ", ")),
			}
		}
	}

	if len(spec.RequiredPx) == 2 {
		w, h, err := dimensions(spec.Path)
		if err != nil {
			return &ValidationError{Asset: spec.Label, Path: spec.Path, Message: fmt.Sprintf("cannot decode image: %v", err)}
		}
		if w != spec.RequiredPx[0] || h != spec.RequiredPx[1] {
			return &ValidationError{
				Asset: spec.Label, Path: spec.Path,
				Message: fmt.Sprintf("resolution is %dx%dpx, required %dx%dpx", w, h, spec.RequiredPx[0], spec.RequiredPx[1]),
			}
		}
	}

	return nil
}

// ValidateBundle checks the logo and signature together and returns the
// validated bundle. Both assets are checked even if the first fails so the
// operator sees every problem at once.
func ValidateBundle(logo, signature Spec) (*Bundle, error) {
	var problems []string
	for _, spec := range []Spec{logo, signature} {
		if err := Validate(spec); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("branding assets failed validation:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return &Bundle{LogoPath: logo.Path, SignaturePath: signature.Path}, nil
}

// dimensions reads just the image header to get pixel dimensions.
func dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
