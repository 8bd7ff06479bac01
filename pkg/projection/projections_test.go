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

package projection

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
)

func testProjections(t *testing.T, columns *catalog.ColumnsDescription, decls ...string) *Projections {
	ps := NewProjections()
	for _, sql := range decls {
		require.NoError(t, ps.Add(context.Background(), mustDerive(t, columns, sql), AddOptions{}))
	}
	return ps
}

func TestProjectionsAdd(t *testing.T) {
	ctx := context.Background()
	columns := testColumns(t)
	ps := testProjections(t, columns,
		"p1 (select a, sum(b) group by a)",
		"p2 (select b order by a)")
	require.Equal(t, 2, ps.Len())
	require.True(t, ps.Has("p1"))
	require.False(t, ps.Has("p3"))

	require.NoError(t, ps.Add(ctx, mustDerive(t, columns, "p0 (select s order by s)"), AddOptions{First: true}))
	require.NoError(t, ps.Add(ctx, mustDerive(t, columns, "px (select a order by b)"), AddOptions{After: "p1"}))
	require.NoError(t, ps.Add(ctx, mustDerive(t, columns, "py (select a order by s)"), AddOptions{After: "p2"}))
	require.Equal(t, []string{"p0", "p1", "px", "p2", "py"}, ps.Names())
	require.Equal(t, ps.Names(), ps.GetAllRegisteredNames())

	desc, err := ps.Get(ctx, "px")
	require.NoError(t, err)
	require.Equal(t, "px", desc.Name)

	err = ps.Add(ctx, mustDerive(t, columns, "p1 (select a order by a)"), AddOptions{})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrDuplicateProjection))
	require.NoError(t, ps.Add(ctx, mustDerive(t, columns, "p1 (select a order by a)"), AddOptions{IfNotExists: true}))
	desc, err = ps.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, Aggregate, desc.Kind)

	err = ps.Add(ctx, mustDerive(t, columns, "pz (select a order by a)"), AddOptions{First: true, After: "p1"})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
	err = ps.Add(ctx, mustDerive(t, columns, "pz (select a order by a)"), AddOptions{After: "nope"})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionNotFound))
	err = ps.Add(ctx, nil, AddOptions{})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	require.Equal(t, 5, ps.Len())
}

func TestProjectionsRemove(t *testing.T) {
	ctx := context.Background()
	ps := testProjections(t, testColumns(t),
		"p1 (select a order by a)",
		"p2 (select b order by b)",
		"p3 (select s order by s)")

	require.NoError(t, ps.Remove(ctx, "p2", false))
	require.Equal(t, []string{"p1", "p3"}, ps.Names())
	require.False(t, ps.Has("p2"))

	err := ps.Remove(ctx, "p2", false)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionNotFound))
	require.NoError(t, ps.Remove(ctx, "p2", true))

	// the name is free again
	require.NoError(t, ps.Add(ctx, mustDerive(t, testColumns(t), "p2 (select a order by b)"), AddOptions{}))
	require.Equal(t, []string{"p1", "p3", "p2"}, ps.Names())
}

func TestProjectionsHints(t *testing.T) {
	ctx := context.Background()
	ps := testProjections(t, testColumns(t),
		"by_a (select a order by a)",
		"by_b (select b order by b)",
		"by_s (select s order by s)",
		"totals (select a, sum(b) group by a)")

	_, err := ps.Get(ctx, "TOTALS")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionNotFound))
	require.Contains(t, err.Error(), "Maybe you meant: [totals]")

	_, err = ps.Get(ctx, "BY_A")
	require.Contains(t, err.Error(), "Maybe you meant: [by_a by_b by_s]")

	require.Equal(t, []string{"by_a", "by_b", "by_s"}, ps.GetHints("by_x"))
	require.Equal(t, []string{"totals"}, ps.GetHints("total"))
	require.Empty(t, ps.GetHints("nothing_close"))

	_, err = ps.Get(ctx, "unrelated")
	require.NotContains(t, err.Error(), "Maybe")
}

func TestEditDistance(t *testing.T) {
	for _, c := range []struct {
		a, b string
		d    int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"p1", "p2", 1},
		{"ab", "ba", 2},
		{"proj", "projs", 1},
	} {
		require.Equal(t, c.d, editDistance(c.a, c.b), "%s %s", c.a, c.b)
		require.Equal(t, c.d, editDistance(c.b, c.a), "%s %s", c.b, c.a)
	}
}

func TestProjectionsReplace(t *testing.T) {
	ctx := context.Background()
	proc := testProcess()
	columns := testColumns(t)
	ps := testProjections(t, columns,
		"p1 (select a order by a)",
		"p2 (select a, sum(b) group by a)",
		"p3 (select s order by s)")

	wider, err := columns.With(ctx, catalog.ColDef{Name: "c", Typ: columns.All()[0].Typ})
	require.NoError(t, err)
	old, err := ps.Get(ctx, "p2")
	require.NoError(t, err)
	desc, err := RecalculateWithNewColumns(proc, old, wider)
	require.NoError(t, err)

	require.NoError(t, ps.Replace(ctx, desc))
	require.Equal(t, []string{"p1", "p2", "p3"}, ps.Names())
	got, err := ps.Get(ctx, "p2")
	require.NoError(t, err)
	require.Same(t, desc, got)

	missing := mustDerive(t, columns, "p9 (select a order by a)")
	require.True(t, moerr.IsMoErrCode(ps.Replace(ctx, missing), moerr.ErrProjectionNotFound))
	require.True(t, moerr.IsMoErrCode(ps.Replace(ctx, nil), moerr.ErrInvalidArg))
}

func TestProjectionsSerialization(t *testing.T) {
	ctx := context.Background()
	proc := testProcess()
	columns := testColumns(t)
	ps := testProjections(t, columns,
		"p1 (select a, sum(b) as total group by a)",
		"`p 2` (select * order by (b, a))")
	minmax, err := GetMinMaxCountProjection(proc, columns, parseExprs(t, "a"), nil, nil)
	require.NoError(t, err)
	require.NoError(t, ps.Add(ctx, minmax, AddOptions{}))

	text := ps.String()
	require.Equal(t, "p1 (SELECT a, sum(b) AS total GROUP BY a), `p 2` (SELECT * ORDER BY (b, a))", text)

	parsed, err := ParseProjections(proc, text, columns)
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p 2"}, parsed.Names())
	require.Equal(t, text, parsed.String())

	without := NewProjections()
	require.NoError(t, without.Add(ctx, ps.All()[0], AddOptions{}))
	require.NoError(t, without.Add(ctx, ps.All()[1], AddOptions{}))
	require.True(t, without.Equal(parsed))

	empty, err := ParseProjections(proc, "", columns)
	require.NoError(t, err)
	require.Equal(t, 0, empty.Len())
	require.Equal(t, "", empty.String())

	_, err = ParseProjections(proc, "p1 (select a order by", columns)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionParse))
	_, err = ParseProjections(proc, "p1 (select z order by a)", columns)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionDerive))
	_, err = ParseProjections(proc, "p1 (select a order by a), p1 (select b order by b)", columns)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrDuplicateProjection))
}

func TestProjectionsClone(t *testing.T) {
	ctx := context.Background()
	columns := testColumns(t)
	ps := testProjections(t, columns,
		"p1 (select a order by a)",
		"p2 (select a, sum(b) group by a)")

	c := ps.Clone()
	require.True(t, ps.Equal(c))
	for i, desc := range c.All() {
		require.NotSame(t, ps.All()[i], desc)
		require.NotSame(t, ps.All()[i].query, desc.query)
	}

	require.NoError(t, c.Remove(ctx, "p1", false))
	require.Equal(t, []string{"p1", "p2"}, ps.Names())
	require.False(t, ps.Equal(c))

	other := testProjections(t, columns,
		"p2 (select a, sum(b) group by a)",
		"p1 (select a order by a)")
	require.False(t, ps.Equal(other))
}

func TestProjectionsIter(t *testing.T) {
	ps := testProjections(t, testColumns(t),
		"p1 (select a order by a)",
		"p2 (select b order by b)",
		"p3 (select s order by s)")
	var names []string
	ps.Iter(func(desc *Description) bool {
		names = append(names, desc.Name)
		return desc.Name != "p2"
	})
	require.Equal(t, []string{"p1", "p2"}, names)
}

func TestProjectionsRecalculate(t *testing.T) {
	ctx := context.Background()
	proc := testProcess()
	columns := testColumns(t)
	ps := testProjections(t, columns,
		"p1 (select a order by a)",
		"p2 (select a, sum(b) group by a)")

	_, err := ps.RecalculateWithNewColumns(proc, columns.Without("b"))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrStaleProjection))
	require.Equal(t, 2, ps.Len())

	wider, err := columns.With(ctx, catalog.ColDef{Name: "c", Typ: columns.All()[1].Typ})
	require.NoError(t, err)
	r, err := ps.RecalculateWithNewColumns(proc, wider)
	require.NoError(t, err)
	require.True(t, ps.Equal(r))
	require.True(t, r.Has("p2"))
}

func TestProjectionsWithTable(t *testing.T) {
	columns := testColumns(t)
	ps := testProjections(t, columns,
		"p1 (select a order by a)",
		"p2 (select a, sum(b) group by a)")
	table := &catalog.TableDef{Name: "t", Columns: columns}

	bound := ps.WithTable(table)
	require.True(t, ps.Equal(bound))
	for i, desc := range bound.All() {
		require.Same(t, table, desc.Table())
		require.Nil(t, ps.All()[i].Table())
	}
	runtime.KeepAlive(table)
}
