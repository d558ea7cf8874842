/*
   mipsrun - Main process.

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
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	config "github.com/gxemu-go/mipscore/config/configparser"
	"github.com/gxemu-go/mipscore/emu/core"
	"github.com/gxemu-go/mipscore/emu/cpu"
	"github.com/gxemu-go/mipscore/emu/dbt"
	"github.com/gxemu-go/mipscore/emu/memory"
	logger "github.com/gxemu-go/mipscore/util/logger"

	_ "github.com/gxemu-go/mipscore/config/debugconfig"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "mipscore.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optNumCPU := getopt.IntLong("smp", 'n', 1, "Number of CPUs")
	optInstrs := getopt.IntLong("instrs", 'i', 0, "Instructions to execute (0 = run until halted)")
	optDebug := getopt.BoolLong("debug", 'd', "Mirror log output to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		var err error
		file, err = os.Create(*optLogFile)
		if err != nil {
			slog.Error(err.Error())
			os.Exit(1)
		}
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, optDebug))
	slog.SetDefault(Logger)

	Logger.Info("mipsrun started")

	if _, err := os.Stat(*optConfig); os.IsNotExist(err) {
		Logger.Error("configuration file not found", "path", *optConfig)
		os.Exit(1)
	}

	if err := config.LoadConfigFile(*optConfig); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	variant := cpu.Config.Resolve()
	if variant == nil {
		Logger.Error("configuration file did not set CPU")
		os.Exit(1)
	}
	memSize := cpu.Config.MemSize
	if memSize == 0 {
		memSize = 64 << 20
	}

	mem := memory.New(memSize)
	machine, err := core.New(variant, cpu.Config.BigEndian, mem, *optNumCPU, dbt.Config.CacheSize)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		n := *optInstrs
		if n <= 0 {
			n = int(^uint(0) >> 1) // run until halted/faulted
		}
		executed, reason := machine.Run(n)
		switch reason {
		case core.RunHalted:
			Logger.Info("machine halted", "instructions", executed)
		case core.RunFault:
			Logger.Warn("machine stopped on unhandled fault", "instructions", executed)
		case core.RunCompleted:
			Logger.Info("instruction budget exhausted", "instructions", executed)
		case core.RunStopped:
			Logger.Info("machine stopped on request", "instructions", executed)
		}
		close(done)
	}()

	select {
	case <-sigChan:
		Logger.Info("received interrupt, shutting down")
		machine.RequestStop()
		<-done
	case <-done:
	}
}
