package render

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/matzehuels/lineage/pkg/errors"
)

// Converter turns SVG into PDF or PNG by piping it through rsvg-convert.
type Converter struct {
	// Binary is the converter executable, looked up in PATH when it has
	// no directory part. Empty means "rsvg-convert".
	Binary string

	// Scale is the PNG zoom factor. Zero or less means 1.
	Scale float64
}

// DefaultConverter renders PNGs at twice the SVG size.
var DefaultConverter = Converter{Binary: "rsvg-convert", Scale: 2}

// Convert returns svg in format, "pdf" or "png". It fails with
// UNSUPPORTED when the binary is missing and INVALID_FORMAT for any other
// format.
func (c Converter) Convert(ctx context.Context, svg []byte, format string) ([]byte, error) {
	args := []string{"-f", format}
	switch format {
	case "pdf":
	case "png":
		scale := c.Scale
		if scale <= 0 {
			scale = 1
		}
		args = append(args, "-z", strconv.FormatFloat(scale, 'f', 2, 64))
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "cannot convert SVG to %q", format)
	}

	bin := c.Binary
	if bin == "" {
		bin = "rsvg-convert"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnsupported, err,
			"%s output needs %s from librsvg (brew install librsvg, apt install librsvg2-bin)", format, bin)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s: %s", bin, msg)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s", bin)
	}
	return stdout.Bytes(), nil
}
