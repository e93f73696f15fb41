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

package scan

import "github.com/SnellerInc/sneller/schema"

// JSONConfig groups the json.* configuration keys from §6;
// the scan core only threads them through to package jsonscan.
type JSONConfig struct {
	AllTextMode         bool
	ReadNumbersAsDouble bool
	AllowNaNInf         bool
	ExtendedTypes       bool
	SkipOuterList       bool
	UseRepeatedArrays   bool
}

// Config is the enumerated configuration surface from §6.
type Config struct {
	MaxBatchRows  int
	MaxBatchBytes int

	LegacyWildcardExpansion       bool
	LegacyPartitionColumnLocation bool
	PartitionDepthHint            int

	NullType schema.Column

	SchemaSmoothing bool

	AllowEmptyScan bool
	// AllowEmptyBatch, like AllowEmptyScan, lets BuildSchema
	// return nil instead of ErrEmptyScan when the factory
	// yields no reader with data (no readers at all, or only
	// empty ones); the next Operator.Next then reports
	// OutcomeStop. The two flags have the same effect.
	AllowEmptyBatch bool

	WildcardExpandsToColumns bool

	JSON JSONConfig
}

// DefaultConfig matches the defaults enumerated in §6.
func DefaultConfig() Config {
	return Config{
		MaxBatchRows:  65535,
		MaxBatchBytes: 16 << 20,
		NullType:      schema.Column{Type: schema.Int64, Cardinality: schema.Optional},
	}
}
