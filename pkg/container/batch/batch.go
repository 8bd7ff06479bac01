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

package batch

import (
	"bytes"
	"fmt"

	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
)

// Batch represents a block of rows held column by column
//
//	(Attrs) - list of attributes
//	(Vecs)  - columns
type Batch struct {
	// Attrs column name list
	Attrs []string
	// Vecs col data
	Vecs     []*vector.Vector
	rowCount int
}

func New(attrs []string) *Batch {
	return &Batch{
		Attrs: attrs,
		Vecs:  make([]*vector.Vector, len(attrs)),
	}
}

// NewWithVectors builds a batch over vecs, the row count is taken from the
// first vector.
func NewWithVectors(attrs []string, vecs []*vector.Vector) (*Batch, error) {
	if len(attrs) != len(vecs) {
		return nil, moerr.NewInternalErrorNoCtx("batch has %d attributes but %d vectors", len(attrs), len(vecs))
	}
	bat := &Batch{Attrs: attrs, Vecs: vecs}
	for i, vec := range vecs {
		if i == 0 {
			bat.rowCount = vec.Length()
			continue
		}
		if vec.Length() != bat.rowCount {
			return nil, moerr.NewInternalErrorNoCtx("column '%s' has %d rows, expected %d", attrs[i], vec.Length(), bat.rowCount)
		}
	}
	return bat, nil
}

func (bat *Batch) RowCount() int {
	return bat.rowCount
}

func (bat *Batch) SetRowCount(rowCount int) {
	bat.rowCount = rowCount
}

// GetVectorByName returns the column named attr, nil if the batch has no
// such column.
func (bat *Batch) GetVectorByName(attr string) *vector.Vector {
	for i, name := range bat.Attrs {
		if name == attr {
			return bat.Vecs[i]
		}
	}
	return nil
}

// GetSubBatch returns a batch sharing the vectors named by cols.
func (bat *Batch) GetSubBatch(cols []string) *Batch {
	mp := make(map[string]int, len(bat.Attrs))
	for i, attr := range bat.Attrs {
		mp[attr] = i
	}
	rbat := New(cols)
	for i, col := range cols {
		if pos, ok := mp[col]; ok {
			rbat.Vecs[i] = bat.Vecs[pos]
		}
	}
	rbat.rowCount = bat.rowCount
	return rbat
}

// Shuffle returns a new batch holding the rows picked by sels.
func (bat *Batch) Shuffle(sels []int64) *Batch {
	rbat := New(bat.Attrs)
	for i, vec := range bat.Vecs {
		rbat.Vecs[i] = vec.Select(sels)
	}
	rbat.rowCount = len(sels)
	return rbat
}

func (bat *Batch) Dup() *Batch {
	rbat := New(append([]string(nil), bat.Attrs...))
	for i, vec := range bat.Vecs {
		rbat.Vecs[i] = vec.Dup()
	}
	rbat.rowCount = bat.rowCount
	return rbat
}

// Append appends the rows of b, both batches must share the same layout.
func (bat *Batch) Append(b *Batch) error {
	if len(bat.Vecs) != len(b.Vecs) {
		return moerr.NewInternalErrorNoCtx("append batch of %d columns to batch of %d columns", len(b.Vecs), len(bat.Vecs))
	}
	for i := range bat.Vecs {
		for j := 0; j < b.rowCount; j++ {
			if err := bat.Vecs[i].UnionOne(b.Vecs[i], int64(j)); err != nil {
				return err
			}
		}
	}
	bat.rowCount += b.rowCount
	return nil
}

func (bat *Batch) IsEmpty() bool {
	return bat.rowCount == 0
}

func (bat *Batch) String() string {
	var buf bytes.Buffer

	for i, vec := range bat.Vecs {
		buf.WriteString(fmt.Sprintf("%d : %s\n", i, vec.String()))
	}
	return buf.String()
}
