// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ezrec/lc3sim/cpu"
	"github.com/ezrec/lc3sim/emulator"
	"github.com/ezrec/lc3sim/monitor"
	"github.com/ezrec/lc3sim/numeric"

	lc3io "github.com/ezrec/lc3sim/io"
)

func loadObject(path string) (prog *cpu.Program, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	prog, err = cpu.ReadObject(inf)
	return
}

// run steps the machine until it halts, faults, runs out of input while
// waiting for it, or reaches limit steps (if limit > 0).
func run(mach *emulator.Machine, tape *lc3io.Tape, limit int) (err error) {
	tape.Start()

	for steps := 0; limit <= 0 || steps < limit; steps++ {
		var text string
		text, err = tape.Receive(mach.AwaitingInput())
		if errors.Is(err, lc3io.ErrTapeEmpty) {
			if mach.AwaitingInput() {
				err = nil
				return
			}
			err = nil
		} else if err != nil {
			return
		}

		if len(text) != 0 {
			mach = mach.EnqueueStdin(text)
		}

		mach, err = mach.Step()
		if err != nil {
			return
		}

		err = tape.Send(mach.Stdout())
		if err != nil {
			return
		}
		mach = mach.ClearStdout()

		if mach.Halted() {
			return
		}
	}

	return
}

// execute runs the machine with keyboard input from the input path and
// display output to the output path, either of which may be "-" for the
// terminal. The terminal is restored before execute returns.
func execute(mach *emulator.Machine, input string, output string, verbose bool, limit int) (err error) {
	tape := &lc3io.Tape{Verbose: verbose}

	if output == "-" {
		tape.Output = os.Stdout
	} else {
		var ouf *os.File
		ouf, err = os.Create(output)
		if err != nil {
			err = fmt.Errorf("%v: %w", output, err)
			return
		}
		defer ouf.Close()
		tape.Output = ouf
	}

	if input == "-" {
		var restore func()
		restore, err = rawMode()
		if err != nil {
			err = fmt.Errorf("%v: %w", input, err)
			return
		}
		defer restore()
		tape.Input = os.Stdin
	} else {
		var inf *os.File
		inf, err = os.Open(input)
		if err != nil {
			err = fmt.Errorf("%v: %w", input, err)
			return
		}
		defer inf.Close()
		tape.Input = inf
	}

	err = run(mach, tape, limit)
	return
}

func main() {
	var input string
	var output string
	var script string
	var start string
	var newline string
	var limit int
	var list bool
	var verbose bool

	flag.StringVar(&input, "i", "-", "Keyboard input")
	flag.StringVar(&output, "o", "-", "Display output")
	flag.StringVar(&script, "s", "", "Starlark monitor script to run instead")
	flag.StringVar(&start, "pc", "", "Start address (x3000 if unset)")
	flag.StringVar(&newline, "newline", "lf", "Newline mode: lf, cr or crlf")
	flag.IntVar(&limit, "n", 0, "Step limit, 0 for none")
	flag.BoolVar(&list, "l", false, "List disassembly, do not execute")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() == 0 && len(script) == 0 {
		log.Fatalf("%v: no object files", os.Args[0])
	}

	mode, err := lc3io.ParseNewlineMode(newline)
	if err != nil {
		log.Fatalf("-newline: %v", err)
	}

	mach := emulator.NewMachine()
	mach.Verbose = verbose
	mach = mach.SetNewlineMode(mode)

	var progs []*cpu.Program
	for _, path := range flag.Args() {
		prog, err := loadObject(path)
		if err != nil {
			log.Fatalf("%v: %v", path, err)
		}

		mach, err = mach.MergeProgram(prog)
		if err != nil {
			log.Fatalf("%v: %v", path, err)
		}
		progs = append(progs, prog)
	}

	if len(start) != 0 {
		addr, err := numeric.ParseNumber(start)
		if err != nil {
			log.Fatalf("-pc: %v", err)
		}
		mach, err = mach.SetPC(addr)
		if err != nil {
			log.Fatalf("-pc: %v", err)
		}
	}

	if list {
		for _, prog := range progs {
			for addr, code := range prog.Codes() {
				fmt.Printf("%v: %v %v\n", numeric.Hex(int(addr)), numeric.Hex(int(code)), code)
			}
		}
		return
	}

	if len(script) != 0 {
		mon := monitor.NewMonitor(mach)
		mon.Verbose = verbose
		mon.Output = os.Stdout
		_, err = mon.Run(script, nil)
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	err = execute(mach, input, output, verbose, limit)
	if err != nil {
		log.Fatal(err)
	}
}
