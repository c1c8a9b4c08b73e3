// SPDX-License-Identifier: GPL-2.0-or-later

// Package conlog is the warning and statistics sink of the compiler.
// Sinks are replaceable so a frontend can reroute output.
package conlog

import (
	"fmt"
	"os"
)

var (
	p  = func(format string, v ...interface{}) { fmt.Fprintf(os.Stdout, format, v...) }
	wp = func(format string, v ...interface{}) { fmt.Fprintf(os.Stderr, "WARNING: "+format, v...) }
	sp = func(format string, v ...interface{}) { fmt.Fprintf(os.Stdout, format, v...) }
)

func SetPrintf(f func(string, ...interface{})) {
	p = f
}

func SetWarnPrintf(f func(string, ...interface{})) {
	wp = f
}

func SetStatPrintf(f func(string, ...interface{})) {
	sp = f
}

func Printf(format string, v ...interface{}) {
	p(format, v...)
}

// Warnf reports a semantic warning; compilation continues.
func Warnf(format string, v ...interface{}) {
	wp(format+"\n", v...)
}

// Statf reports a statistics line after a pass completes.
func Statf(format string, v ...interface{}) {
	sp(format+"\n", v...)
}
