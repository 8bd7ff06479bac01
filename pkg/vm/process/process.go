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

package process

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/matrixorigin/moprojection/pkg/config"
	"github.com/matrixorigin/moprojection/pkg/logutil"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/projection"
)

// New creates a process with a fresh query id. A nil ctx means
// context.Background.
func New(ctx context.Context, params config.ProjectionParameters) *Process {
	if ctx == nil {
		ctx = context.Background()
	}
	params.SetDefaultValues()
	return &Process{
		Ctx: ctx,
		Id:  uuid.NewString(),
		Lim: Limitation{
			BatchRows: int64(params.MaxBatchRows),
			Workers:   params.MaxCalculateWorkers,
		},
		EnableMinMaxCount: params.MinMaxCountEnabled(),
		Parser:            projection.Parser{},
	}
}

// NewFromConfig is New over the projection section of cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config) *Process {
	if cfg == nil {
		return New(ctx, config.ProjectionParameters{})
	}
	return New(ctx, cfg.Projection)
}

func (proc *Process) QueryId() string {
	return proc.Id
}

func (proc *Process) SetQueryId(id string) {
	proc.Id = id
}

func (proc *Process) GetLim() Limitation {
	return proc.Lim
}

// WithContext returns a shallow copy of proc running under ctx.
func (proc *Process) WithContext(ctx context.Context) *Process {
	p := *proc
	p.Ctx = ctx
	return &p
}

// SetLogger replaces the logger, nil restores the global one.
func (proc *Process) SetLogger(logger *zap.Logger) {
	proc.logger = logger
}

func (proc *Process) getLogger() *zap.Logger {
	if proc.logger != nil {
		return proc.logger
	}
	return logutil.GetGlobalLogger()
}

// log do logging.
// just for Info/Error/Warn/Debug
func (proc *Process) log(level zapcore.Level, msg string, fields ...zap.Field) {
	logger := proc.getLogger()
	if ce := logger.Check(level, msg); ce != nil {
		ce.Write(append(fields, logutil.QueryIDField(proc.Id))...)
	}
}

func (proc *Process) logf(level zapcore.Level, msg string, args ...any) {
	logger := proc.getLogger()
	if logger.Core().Enabled(level) {
		proc.log(level, fmt.Sprintf(msg, args...))
	}
}

func (proc *Process) Info(msg string, fields ...zap.Field) {
	proc.log(zap.InfoLevel, msg, fields...)
}

func (proc *Process) Error(msg string, fields ...zap.Field) {
	proc.log(zap.ErrorLevel, msg, fields...)
}

func (proc *Process) Warn(msg string, fields ...zap.Field) {
	proc.log(zap.WarnLevel, msg, fields...)
}

func (proc *Process) Debug(msg string, fields ...zap.Field) {
	proc.log(zap.DebugLevel, msg, fields...)
}

func (proc *Process) Infof(msg string, args ...any) {
	proc.logf(zap.InfoLevel, msg, args...)
}

func (proc *Process) Errorf(msg string, args ...any) {
	proc.logf(zap.ErrorLevel, msg, args...)
}

func (proc *Process) Warnf(msg string, args ...any) {
	proc.logf(zap.WarnLevel, msg, args...)
}

func (proc *Process) Debugf(msg string, args ...any) {
	proc.logf(zap.DebugLevel, msg, args...)
}
