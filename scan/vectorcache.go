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

import (
	"strings"

	"github.com/SnellerInc/sneller/schema"
	"github.com/SnellerInc/sneller/vector"
)

// vectorCache lets a column of the same name and type across
// successive readers reuse its backing writer, scoped to one
// scan (§3's vector cache).
type vectorCache struct {
	writers map[string]vector.Writer
}

func newVectorCache() *vectorCache {
	return &vectorCache{writers: map[string]vector.Writer{}}
}

func cacheKey(name string, typ schema.MinorType) string {
	return strings.ToLower(name) + ":" + typ.String()
}

// get returns the cached writer for (name, typ) if present,
// otherwise builds one via newWriter and caches it.
func (c *vectorCache) get(name string, typ schema.MinorType, newWriter func() vector.Writer) vector.Writer {
	key := cacheKey(name, typ)
	if w, ok := c.writers[key]; ok {
		return w
	}
	w := newWriter()
	c.writers[key] = w
	return w
}

// cached reports whether any entry exists for name,
// regardless of type -- used by the smoother's rule-3
// exception (a required prior column absent from the new
// schema may still be reused if its vector is cached).
func (c *vectorCache) cached(name string) bool {
	prefix := strings.ToLower(name) + ":"
	for k := range c.writers {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// release drops every cached writer, for scan Close.
func (c *vectorCache) release() {
	c.writers = map[string]vector.Writer{}
}
