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

// Package scanlog is a tiny leveled wrapper around the
// standard library logger, matching the plain "log" usage
// found throughout the rest of this codebase. It exists so
// that the handful of warn/info sites in the scan core can be
// silenced in tests without replacing every call site.
package scanlog

import "log"

// Level controls which messages reach the underlying logger.
type Level int

const (
	LevelSilent Level = iota
	LevelWarn
	LevelInfo
)

// std is the package-wide sink; SetLevel changes its level.
var std = &Logger{level: LevelWarn, out: log.Default()}

// Logger is a minimal leveled logger.
type Logger struct {
	level Level
	out   *log.Logger
}

// New returns a Logger writing through l at the given level.
func New(l *log.Logger, level Level) *Logger {
	return &Logger{level: level, out: l}
}

func (l *Logger) Warnf(format string, args ...any) {
	if l.level >= LevelWarn {
		l.out.Printf("warn: "+format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	if l.level >= LevelInfo {
		l.out.Printf("info: "+format, args...)
	}
}

// SetLevel adjusts the package-default logger's verbosity.
func SetLevel(lvl Level) { std.level = lvl }

func Warnf(format string, args ...any) { std.Warnf(format, args...) }
func Infof(format string, args ...any) { std.Infof(format, args...) }
