// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/logutil"
)

const (
	defaultMaxBatchRows = 8192 * 16
	defaultLogLevel     = "info"
	defaultLogFormat    = "console"
)

// Config is the root of the toml configuration file.
type Config struct {
	Log logutil.LogConfig `toml:"log"`

	Projection ProjectionParameters `toml:"projection"`
}

// ProjectionParameters controls derivation and evaluation of projections.
type ProjectionParameters struct {
	//the size of the worker pool used by CalculateBatches. default: runtime.NumCPU()
	MaxCalculateWorkers int `toml:"maxCalculateWorkers"`

	//synthesize the built-in minmax count projection. default: true
	EnableMinMaxCount *bool `toml:"enableMinMaxCount"`

	//the max rows of a single input batch accepted by Calculate. default: 8192 * 16
	MaxBatchRows int `toml:"maxBatchRows"`
}

// SetDefaultValues fills the zero valued parameters.
func (c *Config) SetDefaultValues() {
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
	c.Projection.SetDefaultValues()
}

func (pp *ProjectionParameters) SetDefaultValues() {
	if pp.MaxCalculateWorkers == 0 {
		pp.MaxCalculateWorkers = runtime.NumCPU()
	}
	if pp.EnableMinMaxCount == nil {
		enable := true
		pp.EnableMinMaxCount = &enable
	}
	if pp.MaxBatchRows == 0 {
		pp.MaxBatchRows = defaultMaxBatchRows
	}
}

// MinMaxCountEnabled reports the effective value of EnableMinMaxCount.
func (pp *ProjectionParameters) MinMaxCountEnabled() bool {
	return pp.EnableMinMaxCount == nil || *pp.EnableMinMaxCount
}

// Validate checks the values that SetDefaultValues cannot repair.
func (c *Config) Validate(ctx context.Context) error {
	if c.Projection.MaxCalculateWorkers < 0 {
		return moerr.NewBadConfig(ctx, "maxCalculateWorkers must be positive, got %d", c.Projection.MaxCalculateWorkers)
	}
	if c.Projection.MaxBatchRows < 0 {
		return moerr.NewBadConfig(ctx, "maxBatchRows must be positive, got %d", c.Projection.MaxBatchRows)
	}
	return nil
}

// NewDefaultConfig returns a config with every default applied.
func NewDefaultConfig() *Config {
	c := &Config{}
	c.SetDefaultValues()
	return c
}

// LoadConfig decodes a toml file and applies the defaults.
func LoadConfig(ctx context.Context, file string) (*Config, error) {
	c := &Config{}
	if _, err := toml.DecodeFile(file, c); err != nil {
		return nil, moerr.NewBadConfig(ctx, "decode %s: %v", file, err)
	}
	c.SetDefaultValues()
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseConfig is LoadConfig over an in-memory document.
func ParseConfig(ctx context.Context, data string) (*Config, error) {
	c := &Config{}
	if _, err := toml.Decode(data, c); err != nil {
		return nil, moerr.NewBadConfig(ctx, "decode: %v", err)
	}
	c.SetDefaultValues()
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
