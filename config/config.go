// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package config loads the YAML configuration of the liftview binaries.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvTriangulatorURL overrides Triangulator.URL when set.
const EnvTriangulatorURL = "LIFTVIEW_TRIANGULATOR_URL"

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Listen       string       `yaml:"listen"`
	LogLevel     string       `yaml:"log_level"`
	Triangulator Triangulator `yaml:"triangulator"`
	Canvas       Canvas       `yaml:"canvas"`
	View         View         `yaml:"view"`
}

type Triangulator struct {
	URL     string        `yaml:"url"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

type Canvas struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	EraseRadius float64 `yaml:"erase_radius"`
}

type View struct {
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	RangeMin      float64       `yaml:"range_min"`
	RangeMax      float64       `yaml:"range_max"`
	FloorMargin   float64       `yaml:"floor_margin"`
}

func Default() Config {
	return Config{
		Listen:   ":8080",
		LogLevel: "info",
		Triangulator: Triangulator{
			URL:     "http://localhost:8081",
			Path:    "/triangulation-visualiser/get-delaunay-edges",
			Timeout: 10 * time.Second,
		},
		Canvas: Canvas{
			Width:       500,
			Height:      500,
			EraseRadius: 10,
		},
		View: View{
			Width:         500,
			Height:        500,
			FrameInterval: time.Second / 30,
			RangeMin:      -175,
			RangeMax:      175,
			FloorMargin:   50,
		},
	}
}

// Load reads the file at path over the defaults, applies the environment and validates the
// result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		defer f.Close()
		if cfg, err = Decode(f); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if v, ok := os.LookupEnv(EnvTriangulatorURL); ok && v != "" {
		cfg.Triangulator.URL = v
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses YAML from r over the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes c as YAML.
func (c Config) Encode(w io.Writer) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Listen != "", "listen is empty")
	_, err := c.Level()
	check(err == nil, "log_level %q", c.LogLevel)

	u, err := url.Parse(c.Triangulator.URL)
	check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "",
		"triangulator.url %q", c.Triangulator.URL)
	check(strings.HasPrefix(c.Triangulator.Path, "/"), "triangulator.path %q must start with /",
		c.Triangulator.Path)
	check(c.Triangulator.Timeout > 0, "triangulator.timeout must be positive")

	check(c.Canvas.Width > 0 && c.Canvas.Height > 0, "canvas size %dx%d", c.Canvas.Width, c.Canvas.Height)
	check(c.Canvas.EraseRadius > 0, "canvas.erase_radius must be positive")

	check(c.View.Width > 0 && c.View.Height > 0, "view size %dx%d", c.View.Width, c.View.Height)
	check(c.View.FrameInterval >= 0, "view.frame_interval is negative")
	check(isFinite(c.View.RangeMin) && isFinite(c.View.RangeMax) && c.View.RangeMin < c.View.RangeMax,
		"view range [%v, %v]", c.View.RangeMin, c.View.RangeMax)
	check(isFinite(c.View.FloorMargin) && c.View.FloorMargin > 0, "view.floor_margin must be positive")

	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
