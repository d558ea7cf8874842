/*
 * mipscore - Debug options configuration.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package debugconfig wires the "DEBUG <subsystem> <flags...>" config
// directive to each subsystem's own Debug(flag) entry point.
package debugconfig

import (
	"errors"
	"strings"

	config "github.com/gxemu-go/mipscore/config/configparser"
	"github.com/gxemu-go/mipscore/emu/cpu"
	"github.com/gxemu-go/mipscore/emu/dbt"
)

func init() {
	config.RegisterModel("DEBUG", config.TypeOptions, setDebug)
}

// setDebug processes "DEBUG <subsystem> <flag> [<flag>...]" lines. devNum is
// unused: no subsystem here is addressed by unit number.
func setDebug(_ uint16, subsystem string, options []config.Option) error {
	var debugFn func(string) error

	switch strings.ToUpper(subsystem) {
	case "CPU":
		debugFn = cpu.Debug
	case "MMU":
		debugFn = cpu.DebugMMU
	case "DBT":
		debugFn = dbt.Debug
	default:
		return errors.New("debug subsystem invalid: " + subsystem)
	}

	for _, opt := range options {
		if err := debugFn(strings.ToUpper(opt.Name)); err != nil {
			return err
		}
		for _, value := range opt.Value {
			if err := debugFn(strings.ToUpper(*value)); err != nil {
				return err
			}
		}
	}
	return nil
}
