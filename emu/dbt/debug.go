/*
   mipscore DBT debug flags, set from the DEBUG config stanza.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/
package dbt

import (
	"fmt"
	"log/slog"
)

// debugDBT gates translation/chaining trace logging, toggled by the
// "DEBUG DBT ..." config stanza (config/debugconfig), mirroring
// emu/cpu's debugCPU/debugMMU flags set from the same directive.
var debugDBT bool

// Debug enables or disables DBT trace logging.
func Debug(flag string) error {
	switch flag {
	case "DBT", "TRACE":
		debugDBT = true
	case "OFF":
		debugDBT = false
	default:
		return fmt.Errorf("unknown-debug-flag: %s", flag)
	}
	return nil
}

func logDebugf(format string, args ...any) {
	if debugDBT {
		slog.Debug(format, args...)
	}
}
