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

// Package vector implements typed, per-column append-only
// writers over backing buffers, including the main/lookahead
// buffer pair used to implement batch overflow (see package
// rowset).
package vector

import "fmt"

// ConversionOverflow is raised when a value doesn't fit the
// target column's type (e.g. int64 -> int32 out of range).
type ConversionOverflow struct {
	Column string
	Value  any
	Target string
}

func (e *ConversionOverflow) Error() string {
	return fmt.Sprintf("vector: value %v for column %q overflows %s", e.Value, e.Column, e.Target)
}

// InvalidConversion is raised when a value's type cannot be
// coerced into the target column's type at all (e.g. a
// struct written to a scalar column).
type InvalidConversion struct {
	Column string
	Value  any
	Target string
}

func (e *InvalidConversion) Error() string {
	return fmt.Sprintf("vector: cannot convert value %v for column %q to %s", e.Value, e.Column, e.Target)
}
