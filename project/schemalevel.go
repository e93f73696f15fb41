// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package project

import "github.com/SnellerInc/sneller/schema"

// ResolveSchema implements 4.4(c): resolves the file-level
// projection against the reader's TupleSchema, producing the
// fully resolved output schema and its matching output tuple
// (for downstream schema comparison, e.g. smoother.Fingerprint).
func ResolveSchema(list FileList, table *schema.Tuple, nullType schema.Column) ([]ResolvedColumn, *schema.Tuple) {
	var out []ResolvedColumn
	outSchema := schema.NewTuple()

	addTable := func(name string) {
		if col, id, ok := table.Find(name); ok {
			out = append(out, ResolvedColumn{Kind: ResolvedTableColumn, OutputName: col.Name, SourceID: id})
			outSchema.Add(*col.Clone())
			return
		}
		nt := nullType
		nt.Name = name
		out = append(out, ResolvedColumn{Kind: ResolvedNullColumn, OutputName: name, NullType: nt})
		outSchema.Add(*nt.Clone())
	}

	for _, c := range list.Columns {
		switch c.Kind {
		case FileTable:
			addTable(c.Name)
		case FileWildcard:
			for _, col := range table.Columns() {
				out = append(out, ResolvedColumn{Kind: ResolvedTableColumn, OutputName: col.Name, SourceID: mustFind(table, col.Name)})
				cp := col
				outSchema.Add(*cp.Clone())
			}
		case FileConstant:
			out = append(out, ResolvedColumn{Kind: ResolvedMetadataColumn, OutputName: c.Name, ConstantValue: c.Value})
			outSchema.Add(schema.Column{Name: c.Name, Type: schema.VarChar, Cardinality: schema.Required})
		case FileColumnsArray:
			out = append(out, ResolvedColumn{Kind: ResolvedColumnsArray, OutputName: "columns", Indices: c.Indices})
			outSchema.Add(schema.Column{Name: "columns", Type: schema.VarChar, Cardinality: schema.Repeated})
		}
	}
	return out, outSchema
}

func mustFind(table *schema.Tuple, name string) schema.ColumnID {
	_, id, _ := table.Find(name)
	return id
}
