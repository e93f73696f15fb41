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

package date

// parse scans data for an RFC3339-ish timestamp:
//
//	YYYY-MM-DD(T| )HH:MM:SS(.fraction)?(Z|(+|-)HH:MM)?
//
// Leading and trailing whitespace is ignored. A missing offset is
// taken to mean UTC. The offset, if present, is folded into the
// returned minute component and left for the caller's Date (and its
// normalization cascade) to carry into hour/day/month/year.
func parse(data []byte) (year, month, day, hour, min, sec, ns int, ok bool) {
	s := trimSpace(data)

	var okDigits bool
	year, s, okDigits = takeDigits(s, 4)
	if !okDigits {
		return
	}
	if s, ok = takeByte(s, '-'); !ok {
		return
	}
	month, s, okDigits = takeDigits(s, 2)
	if !okDigits {
		ok = false
		return
	}
	if s, ok = takeByte(s, '-'); !ok {
		return
	}
	day, s, okDigits = takeDigits(s, 2)
	if !okDigits {
		ok = false
		return
	}

	if len(s) == 0 {
		ok = false
		return
	}
	switch s[0] {
	case 'T', 't', ' ':
		s = s[1:]
	default:
		ok = false
		return
	}

	hour, s, okDigits = takeDigits(s, 2)
	if !okDigits {
		ok = false
		return
	}
	if s, ok = takeByte(s, ':'); !ok {
		return
	}
	min, s, okDigits = takeDigits(s, 2)
	if !okDigits {
		ok = false
		return
	}
	if s, ok = takeByte(s, ':'); !ok {
		return
	}
	sec, s, okDigits = takeDigits(s, 2)
	if !okDigits {
		ok = false
		return
	}

	if len(s) > 0 && s[0] == '.' {
		s = s[1:]
		digits := 0
		for digits < 9 && len(s) > 0 && isDigit(s[0]) {
			ns = ns*10 + int(s[0]-'0')
			s = s[1:]
			digits++
		}
		if digits == 0 {
			ok = false
			return
		}
		// a fraction with more than 9 digits is truncated to
		// nanosecond precision, not rejected.
		for len(s) > 0 && isDigit(s[0]) {
			s = s[1:]
		}
		for digits < 9 {
			ns *= 10
			digits++
		}
	}

	switch {
	case len(s) == 0:
		// no offset: assume UTC
	case s[0] == 'Z' || s[0] == 'z':
		s = s[1:]
		if len(s) != 0 {
			ok = false
			return
		}
	case s[0] == '+' || s[0] == '-':
		neg := s[0] == '-'
		s = s[1:]
		var offHour, offMin int
		offHour, s, okDigits = takeDigits(s, 2)
		if !okDigits {
			ok = false
			return
		}
		if s, ok = takeByte(s, ':'); !ok {
			return
		}
		offMin, s, okDigits = takeDigits(s, 2)
		if !okDigits || len(s) != 0 {
			ok = false
			return
		}
		total := offHour*60 + offMin
		if neg {
			total = -total
		}
		min -= total
	default:
		ok = false
		return
	}

	ok = true
	return
}

func trimSpace(data []byte) []byte {
	i, j := 0, len(data)
	for i < j && isSpace(data[i]) {
		i++
	}
	for j > i && isSpace(data[j-1]) {
		j--
	}
	return data[i:j]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// takeDigits consumes exactly n decimal digits from the front of s.
func takeDigits(s []byte, n int) (v int, rest []byte, ok bool) {
	if len(s) < n {
		return 0, s, false
	}
	for i := 0; i < n; i++ {
		if !isDigit(s[i]) {
			return 0, s, false
		}
		v = v*10 + int(s[i]-'0')
	}
	return v, s[n:], true
}

func takeByte(s []byte, c byte) (rest []byte, ok bool) {
	if len(s) == 0 || s[0] != c {
		return s, false
	}
	return s[1:], true
}
