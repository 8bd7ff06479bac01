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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matrixorigin/moprojection/pkg/config"
	"github.com/matrixorigin/moprojection/pkg/logutil"
	"github.com/matrixorigin/moprojection/pkg/vm/process"
)

type rootOptions struct {
	configFile string
	cfg        *config.Config
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "mo-projection",
		Short: "Derive and evaluate table projections",
		Long: `mo-projection loads a table and its projection definitions from a toml
table file, derives the projections and evaluates them over the rows of
the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "cfg", "", "toml configuration file")

	cmd.AddCommand(
		newDeriveCommand(opts),
		newInspectCommand(opts),
		newEvaluateCommand(opts),
		newRecalculateCommand(opts),
	)
	return cmd
}

func (opts *rootOptions) setup(ctx context.Context) error {
	if opts.configFile == "" {
		opts.cfg = config.NewDefaultConfig()
	} else {
		cfg, err := config.LoadConfig(ctx, opts.configFile)
		if err != nil {
			return err
		}
		opts.cfg = cfg
	}
	logutil.SetupMOLogger(&opts.cfg.Log)
	return nil
}

func (opts *rootOptions) newProcess(ctx context.Context) *process.Process {
	return process.NewFromConfig(ctx, opts.cfg)
}

// load reads and derives the table file through a fresh process.
func (opts *rootOptions) load(cmd *cobra.Command, file string) (*process.Process, *table, error) {
	proc := opts.newProcess(cmd.Context())
	tf, err := loadTableFile(proc.Ctx, file)
	if err != nil {
		return nil, nil, err
	}
	t, err := tf.build(proc)
	if err != nil {
		return nil, nil, err
	}
	return proc, t, nil
}
