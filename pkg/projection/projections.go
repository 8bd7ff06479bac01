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
	"sort"
	"strings"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/logutil"
	"github.com/matrixorigin/moprojection/pkg/util/list"
	v2 "github.com/matrixorigin/moprojection/pkg/util/metric/v2"
	"github.com/matrixorigin/moprojection/pkg/vm/process"
)

// maxHintDistance bounds the edit distance of the names suggested by a not
// found error.
const maxHintDistance = 1

// AddOptions places a projection added to Projections. After and First are
// mutually exclusive, neither appends.
type AddOptions struct {
	After       string
	First       bool
	IfNotExists bool
}

// Projections is the ordered set of the projections of a table. The order is
// the order of definition and survives String and ParseProjections.
//
// Projections has a single writer, readers may share a snapshot.
type Projections struct {
	list *list.Ordered[string, *Description]
}

func NewProjections() *Projections {
	return &Projections{list: list.NewOrdered[string, *Description]()}
}

func (ps *Projections) Len() int {
	return ps.list.Len()
}

func (ps *Projections) Has(name string) bool {
	return ps.list.Has(name)
}

func (ps *Projections) Get(ctx context.Context, name string) (*Description, error) {
	desc, ok := ps.list.Get(name)
	if !ok {
		return nil, ps.notFound(ctx, name)
	}
	return desc, nil
}

func (ps *Projections) notFound(ctx context.Context, name string) error {
	return moerr.NewProjectionNotFound(ctx, name, ps.GetHints(name)...)
}

// Add inserts desc. A duplicate name fails unless IfNotExists is set, the
// collection is then left as is.
func (ps *Projections) Add(ctx context.Context, desc *Description, opts AddOptions) error {
	if desc == nil {
		return moerr.NewInvalidArg(ctx, "projection", "nil")
	}
	if opts.First && opts.After != "" {
		return moerr.NewBadConfig(ctx, "cannot add projection '%s' both first and after '%s'", desc.Name, opts.After)
	}
	if ps.Has(desc.Name) {
		if opts.IfNotExists {
			return nil
		}
		return moerr.NewDuplicateProjection(ctx, desc.Name)
	}

	switch {
	case opts.First:
		ps.list.PushFront(desc.Name, desc)
	case opts.After != "":
		if !ps.list.InsertAfter(opts.After, desc.Name, desc) {
			return ps.notFound(ctx, opts.After)
		}
	default:
		ps.list.PushBack(desc.Name, desc)
	}

	v2.ProjectionAddCounter.Inc()
	logutil.Info("add projection", logutil.ProjectionField(desc.Name), logutil.KindField(desc.Kind.String()))
	return nil
}

// Remove drops the named projection. A missing name fails unless ifExists.
func (ps *Projections) Remove(ctx context.Context, name string, ifExists bool) error {
	if _, ok := ps.list.Remove(name); !ok {
		if ifExists {
			return nil
		}
		return ps.notFound(ctx, name)
	}

	v2.ProjectionRemoveCounter.Inc()
	logutil.Info("remove projection", logutil.ProjectionField(name))
	return nil
}

// Replace swaps the projection of the same name for desc, keeping its
// position. It is how a recalculated projection takes the place of the old
// one.
func (ps *Projections) Replace(ctx context.Context, desc *Description) error {
	if desc == nil {
		return moerr.NewInvalidArg(ctx, "projection", "nil")
	}
	if !ps.list.Set(desc.Name, desc) {
		return ps.notFound(ctx, desc.Name)
	}

	v2.ProjectionReplaceCounter.Inc()
	logutil.Info("replace projection", logutil.ProjectionField(desc.Name))
	return nil
}

// Iter calls fn on every projection in order until fn returns false.
func (ps *Projections) Iter(fn func(*Description) bool) {
	ps.list.Iter(func(_ string, desc *Description) bool {
		return fn(desc)
	})
}

func (ps *Projections) All() []*Description {
	return ps.list.Values()
}

func (ps *Projections) Names() []string {
	return ps.list.Keys()
}

// GetAllRegisteredNames lists the names hints are picked from.
func (ps *Projections) GetAllRegisteredNames() []string {
	return ps.Names()
}

// GetHints returns the registered names close to name, sorted.
func (ps *Projections) GetHints(name string) []string {
	var hints []string
	lower := strings.ToLower(name)
	for _, registered := range ps.GetAllRegisteredNames() {
		if registered == name {
			continue
		}
		if editDistance(lower, strings.ToLower(registered)) <= maxHintDistance {
			hints = append(hints, registered)
		}
	}
	sort.Strings(hints)
	return hints
}

// editDistance is the Levenshtein distance of a and b over bytes.
func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// String is the persisted form: the definitions as written, comma separated
// in order. The minmax count projection is synthesized and not written.
func (ps *Projections) String() string {
	defs := make([]string, 0, ps.Len())
	ps.Iter(func(desc *Description) bool {
		if !desc.IsMinMaxCount() {
			defs = append(defs, desc.DefinitionString())
		}
		return true
	})
	return strings.Join(defs, ", ")
}

// ParseProjections rebuilds the collection persisted by String, deriving
// every definition again over columns.
func ParseProjections(proc *process.Process, text string, columns *catalog.ColumnsDescription) (*Projections, error) {
	ctx := proc.Ctx
	decls, err := proc.Parser.ParseProjectionDeclList(ctx, text)
	if err != nil {
		return nil, err
	}
	ps := NewProjections()
	for _, decl := range decls {
		desc, err := GetProjectionFromDefinition(proc, decl, columns)
		if err != nil {
			return nil, err
		}
		if err = ps.Add(ctx, desc, AddOptions{}); err != nil {
			return nil, err
		}
	}
	v2.ProjectionParseCounter.Inc()
	return ps, nil
}

// RecalculateWithNewColumns recalculates every projection over new columns
// into a new collection. The first stale projection fails the whole call and
// ps is left untouched.
func (ps *Projections) RecalculateWithNewColumns(proc *process.Process, newColumns *catalog.ColumnsDescription) (*Projections, error) {
	r := NewProjections()
	for _, desc := range ps.All() {
		recalculated, err := RecalculateWithNewColumns(proc, desc, newColumns)
		if err != nil {
			return nil, err
		}
		r.list.PushBack(recalculated.Name, recalculated)
	}
	return r, nil
}

// Clone deep copies every projection.
func (ps *Projections) Clone() *Projections {
	r := NewProjections()
	ps.Iter(func(desc *Description) bool {
		r.list.PushBack(desc.Name, desc.Clone())
		return true
	})
	return r
}

// WithTable returns a new collection whose projections are bound to table.
func (ps *Projections) WithTable(table *catalog.TableDef) *Projections {
	r := NewProjections()
	ps.Iter(func(desc *Description) bool {
		r.list.PushBack(desc.Name, desc.WithTable(table))
		return true
	})
	return r
}

// Equal compares the projections pairwise in order.
func (ps *Projections) Equal(other *Projections) bool {
	if ps.Len() != other.Len() {
		return false
	}
	a, b := ps.All(), other.All()
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
