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

package logutil

import (
	"path/filepath"
	"testing"

	"github.com/lni/goutils/leaktest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogConfig_getter(t *testing.T) {
	cfg := &LogConfig{
		Level:        "debug",
		Format:       "console",
		DisableStore: true,
	}
	require.Equal(t, zap.NewAtomicLevelAt(zap.DebugLevel), cfg.getLevel())
	require.Equal(t, 2, len(cfg.getOptions()))
	require.Equal(t, getConsoleSyncer(), cfg.getSyncer())
	require.Equal(t, 1, len(cfg.getSinks()))
	require.Equal(t, zapcore.PanicLevel, cfg.getStacktraceLevel())

	entry := zapcore.Entry{Level: zapcore.DebugLevel, Message: "console msg"}
	wantMsg, _ := getLoggerEncoder("console").EncodeEntry(entry, nil)
	gotMsg, _ := cfg.getEncoder().EncodeEntry(entry, nil)
	require.Equal(t, wantMsg.String(), gotMsg.String())

	cfg.Level = "not-a-level"
	require.Equal(t, zap.NewAtomicLevelAt(zap.InfoLevel), cfg.getLevel())
	cfg.StacktraceLevel = "error"
	require.Equal(t, zapcore.ErrorLevel, cfg.getStacktraceLevel())
}

func TestLogConfig_fileSyncer(t *testing.T) {
	cfg := &LogConfig{
		Level:        "info",
		Format:       "json",
		Filename:     filepath.Join(t.TempDir(), "mo.log"),
		DisableStore: true,
	}
	require.NotEqual(t, getConsoleSyncer(), cfg.getSyncer())
	require.Equal(t, 512, cfg.MaxSize)
}

func TestSetupMOLogger(t *testing.T) {
	defer leaktest.AfterTest(t)()
	old := GetGlobalLogger()
	defer replaceGlobalLogger(old)

	for _, format := range []string{"console", "json"} {
		SetupMOLogger(&LogConfig{
			Level:  zapcore.DebugLevel.String(),
			Format: format,
		})
		require.Equal(t, format, getGlobalLogConfig().Format)
		Info("hello", ProjectionField("p1"), TableField("t"), QueryIDField("q"))
		Debugf("hello %s", format)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	require.Panics(t, func() { getLoggerEncoder("xml") })
}
