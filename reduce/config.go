// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reduce

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/gomlx/axisreduce/types/xslices"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Config holds the parameters of a reduction. See Engine.ConfigureWith and ParseConfig.
type Config struct {
	// Kind of reduction.
	Kind Kind

	// Axes to reduce, negative values count from the end. Empty means all axes, unless NoopWithEmptyAxes is set.
	Axes []int

	// KeepDims keeps the reduced axes in the output, with dimension 1.
	KeepDims bool

	// NoopWithEmptyAxes makes an empty Axes list an identity reduction (no axes are reduced), instead of
	// reducing all axes.
	NoopWithEmptyAxes bool

	// Parallelism overrides the engine's default parallelism, if not nil.
	// 0 disables parallelism and -1 makes it unlimited.
	Parallelism *int
}

// ParallelismEnvVar is the environment variable with the default parallelism of new engines.
// 0 disables parallelism, -1 makes it unlimited. If not set, it defaults to runtime.NumCPU().
const ParallelismEnvVar = "AXISREDUCE_PARALLELISM"

// DefaultParallelism returns the parallelism used by new engines: the value of $AXISREDUCE_PARALLELISM if set,
// or runtime.NumCPU() otherwise.
func DefaultParallelism() int {
	value, found := os.LookupEnv(ParallelismEnvVar)
	if !found || value == "" {
		return runtime.NumCPU()
	}
	parallelism, err := strconv.Atoi(value)
	if err != nil {
		klog.Warningf("Invalid value %q for $%s, using runtime.NumCPU()=%d instead", value, ParallelismEnvVar, runtime.NumCPU())
		return runtime.NumCPU()
	}
	return parallelism
}

// ParseConfig parses a configuration string formatted as
//
//	"<kind>[:axes=<a0>,<a1>,...][:keepdims][:noop_empty][:parallelism=<n>]"
//
// Examples: "max", "mean:axes=1,-1:keepdims", "min:axes=0:parallelism=0".
//
// The kind is one of KindStrings() (case-insensitive), except "invalid".
func ParseConfig(config string) (cfg Config, err error) {
	parts := strings.Split(strings.TrimSpace(config), ":")
	cfg.Kind, err = KindString(strings.TrimSpace(parts[0]))
	if err != nil || cfg.Kind == KindInvalid {
		return Config{}, errors.Wrapf(ErrInvalidConfig, "unknown reduction kind %q in %q, valid kinds are max, min and mean", parts[0], config)
	}
	for _, part := range parts[1:] {
		key, value, hasValue := strings.Cut(strings.TrimSpace(part), "=")
		switch key {
		case "axes":
			cfg.Axes, err = xslices.ParseInts(value)
			if err != nil {
				return Config{}, errors.Wrapf(ErrInvalidConfig, "parsing axes in %q: %v", config, err)
			}
		case "keepdims":
			if cfg.KeepDims, err = parseBoolOption(key, value, hasValue); err != nil {
				return Config{}, errors.WithMessagef(err, "in %q", config)
			}
		case "noop_empty":
			if cfg.NoopWithEmptyAxes, err = parseBoolOption(key, value, hasValue); err != nil {
				return Config{}, errors.WithMessagef(err, "in %q", config)
			}
		case "parallelism":
			parallelism, convErr := strconv.Atoi(value)
			if convErr != nil {
				return Config{}, errors.Wrapf(ErrInvalidConfig, "invalid parallelism %q in %q", value, config)
			}
			cfg.Parallelism = &parallelism
		default:
			return Config{}, errors.Wrapf(ErrInvalidConfig, "unknown option %q in %q", key, config)
		}
	}
	return cfg, nil
}

func parseBoolOption(key, value string, hasValue bool) (bool, error) {
	if !hasValue {
		return true, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Wrapf(ErrInvalidConfig, "invalid value %q for option %q", value, key)
	}
	return b, nil
}

// String returns the configuration in the format accepted by ParseConfig.
func (cfg Config) String() string {
	parts := []string{cfg.Kind.String()}
	if cfg.Axes != nil {
		parts = append(parts, "axes="+xslices.FormatInts(cfg.Axes))
	}
	if cfg.KeepDims {
		parts = append(parts, "keepdims")
	}
	if cfg.NoopWithEmptyAxes {
		parts = append(parts, "noop_empty")
	}
	if cfg.Parallelism != nil {
		parts = append(parts, "parallelism="+strconv.Itoa(*cfg.Parallelism))
	}
	return strings.Join(parts, ":")
}
