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
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/batch"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/projection"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
)

func newDeriveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "derive <table-file>",
		Short: "Derive every projection of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			t.projections.Iter(func(desc *projection.Description) bool {
				printSummary(w, desc)
				return true
			})
			fmt.Fprintf(w, "projections: %s\n", t.projections.String())
			return nil
		},
	}
}

func newInspectCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <table-file> <projection>",
		Short: "Show the derived metadata of one projection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, t, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			desc, err := t.projections.Get(proc.Ctx, args[1])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printSummary(w, desc)
			fmt.Fprintf(w, "definition: %s\n", desc.Definition())
			fmt.Fprintf(w, "query: %s\n", desc.Query())
			if info, ok := desc.AggregateInfo(); ok {
				fmt.Fprintf(w, "group by: %s\n", tree.String(info.GroupBy))
				fmt.Fprintf(w, "aggregates: %s\n", strings.Join(info.Aggregates, ", "))
			}
			if desc.IsMinMaxCount() {
				fmt.Fprintf(w, "partition value indices: %v\n", desc.PartitionValueIndices())
				fmt.Fprintf(w, "primary key max column: %s\n", desc.PrimaryKeyMaxColumnName())
			}
			return nil
		},
	}
}

func newEvaluateCommand(opts *rootOptions) *cobra.Command {
	var batchRows int
	var single bool
	cmd := &cobra.Command{
		Use:   "evaluate <table-file> [projection...]",
		Short: "Evaluate projections over the rows of a table file",
		Long: `Evaluate the named projections, or all of them, over the rows of the
table file. With --single the columns every projection reads are computed in
one pass instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, t, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			if batchRows <= 0 {
				batchRows = len(t.rows)
			}
			bats, err := t.batches(proc.Ctx, max(batchRows, 1))
			if err != nil {
				return err
			}

			selected := t.projections
			if len(args) > 1 {
				selected = projection.NewProjections()
				for _, name := range args[1:] {
					desc, err := t.projections.Get(proc.Ctx, name)
					if err != nil {
						return err
					}
					if err = selected.Add(proc.Ctx, desc, projection.AddOptions{}); err != nil {
						return err
					}
				}
			}

			w := cmd.OutOrStdout()
			if single {
				ep, err := projection.GetSingleExpressionForProjections(proc, selected, t.def.Columns)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "inputs: %s\n", strings.Join(ep.Inputs(), ", "))
				fmt.Fprintf(w, "steps: %d\n", ep.StepCount())
				for _, bat := range bats {
					res, err := ep.Run(proc, bat)
					if err != nil {
						return err
					}
					printBatch(w, res)
				}
				return nil
			}

			for _, desc := range selected.All() {
				results, err := projection.CalculateBatches(proc, desc, bats)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s:\n", desc.Name)
				for _, res := range results {
					printBatch(w, res)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&batchRows, "batch-rows", 0, "rows per input batch, 0 puts every row in one batch")
	cmd.Flags().BoolVar(&single, "single", false, "compute the inputs of all projections in one pass")
	return cmd
}

func newRecalculateCommand(opts *rootOptions) *cobra.Command {
	var drop []string
	var add []string
	cmd := &cobra.Command{
		Use:   "recalculate <table-file>",
		Short: "Recalculate the projections after a column change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, t, err := opts.load(cmd, args[0])
			if err != nil {
				return err
			}
			columns := t.def.Columns.Without(drop...)
			for _, arg := range add {
				name, typ, ok := strings.Cut(strings.TrimSpace(arg), " ")
				if !ok {
					return moerr.NewInvalidInput(proc.Ctx, "column '%s' must be written as '<name> <type>'", arg)
				}
				ty, err := types.ParseType(typ)
				if err != nil {
					return err
				}
				if columns, err = columns.With(proc.Ctx, catalog.ColDef{Name: name, Typ: ty}); err != nil {
					return err
				}
			}

			ps, err := t.projections.RecalculateWithNewColumns(proc, columns)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "columns: %s\n", columns)
			ps.Iter(func(desc *projection.Description) bool {
				printSummary(w, desc)
				return true
			})
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&drop, "drop", nil, "columns to drop")
	cmd.Flags().StringArrayVar(&add, "add", nil, "column to add, as '<name> <type>'")
	return cmd
}

func printSummary(w io.Writer, desc *projection.Description) {
	fmt.Fprintf(w, "%s\t%s\tkeys=%d\trequired=[%s]\tdir=%s\n",
		desc.Name, desc.Kind, desc.KeySize(), strings.Join(desc.GetRequiredColumns(), " "), desc.GetDirectoryName())
	for _, col := range desc.OutputSchema() {
		fmt.Fprintf(w, "  %s\n", col)
	}
}

func printBatch(w io.Writer, bat *batch.Batch) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(bat.Attrs, "\t"))
	for i := 0; i < bat.RowCount(); i++ {
		vals := make([]string, len(bat.Vecs))
		for j, vec := range bat.Vecs {
			if val := vec.GetAny(i); val == nil {
				vals[j] = "null"
			} else {
				vals[j] = fmt.Sprint(val)
			}
		}
		fmt.Fprintln(tw, strings.Join(vals, "\t"))
	}
	_ = tw.Flush()
}
