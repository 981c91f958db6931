package main

/* Tim Henderson (tadh@case.edu)
*
* Copyright (c) 2015, Tim Henderson, Case Western Reserve University
* Cleveland, Ohio 44106. All Rights Reserved.
*
* This library is free software; you can redistribute it and/or modify
* it under the terms of the GNU General Public License as published by
* the Free Software Foundation; either version 3 of the License, or (at
* your option) any later version.
*
* This library is distributed in the hope that it will be useful, but
* WITHOUT ANY WARRANTY; without even the implied warranty of
* MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
* General Public License for more details.
*
* You should have received a copy of the GNU General Public License
* along with this library; if not, write to the Free Software
* Foundation, Inc.,
*   51 Franklin Street, Fifth Floor,
*   Boston, MA  02110-1301
*   USA
 */

import (
	"fmt"
	"os"
	"strconv"
)

import (
	"github.com/dustin/go-humanize"
	"github.com/timtadh/getopt"
	"go.uber.org/zap"
)

import (
	"github.com/timtadh/ftl/device"
	"github.com/timtadh/ftl/driver"
)

var ErrorCodes map[string]int = map[string]int{
	"usage":   0,
	"failed":  1,
	"version": 2,
	"opts":    3,
	"badint":  5,
	"config":  6,
}

var UsageMessage string = "vbd --help"
var ExtendedMessage string = `
vbd -- exercise a simulated flash translation layer block device

There is a subcommand for each script.

Global Options
  -h, --help                view this message
  --commands                list the available subcommands
  --capacity=<bytes>        device size (default $FTL_CAPACITY_BYTES or 8MiB)
  --block-size=<bytes>      block size (default $FTL_BLOCK_SIZE or 4096)
  --no-failures             turn off simulated i/o failures
  --failure-rate=<float>    probability an i/o fails (default 0.05)
  --seed=<int>              seed for simulated failures
  --retries=<int>           write attempts per block (default 3)
  -v, --verbose             log device internals

demo

  $ vbd demo

  Write, read back and trim a small payload, then print the stats.

stress

  $ vbd stress --ops=<int>

  Options
    -h, --help                view this message
    --ops=<int>               number of random operations (default 1000)
`

func Usage(code int) {
	fmt.Fprintln(os.Stderr, UsageMessage)
	if code == 0 {
		fmt.Fprintln(os.Stdout, ExtendedMessage)
		code = ErrorCodes["usage"]
	} else {
		fmt.Fprintln(os.Stderr, "Try -h or --help for help")
	}
	os.Exit(code)
}

func ParseInt(str string) int {
	i, err := strconv.Atoi(str)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing '%v' expected an int\n", str)
		Usage(ErrorCodes["badint"])
	}
	return i
}

func ParseFloat(str string) float64 {
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing '%v' expected a float\n", str)
		Usage(ErrorCodes["badint"])
	}
	return f
}

func PrintStats(dev *device.Device) {
	s := dev.Stats()
	fmt.Printf("Device %v (%v, %v blocks of %v)\n",
		dev.ID(),
		humanize.IBytes(uint64(dev.Capacity())),
		humanize.Comma(int64(dev.TotalBlocks())),
		humanize.IBytes(uint64(dev.BlockSize())))
	fmt.Printf("  total_reads       %v\n", humanize.Comma(int64(s.Reads)))
	fmt.Printf("  total_writes      %v\n", humanize.Comma(int64(s.Writes)))
	fmt.Printf("  trim_operations   %v\n", humanize.Comma(int64(s.Trims)))
	fmt.Printf("  total_failures    %v\n", humanize.Comma(int64(s.Failures)))
	fmt.Printf("  free_blocks       %v\n", humanize.Comma(int64(len(dev.FreeBlocks()))))
}

func main() {
	args, optargs, err := getopt.GetOpt(
		os.Args[1:],
		"hv",
		[]string{
			"help", "commands", "capacity=", "block-size=", "no-failures",
			"failure-rate=", "seed=", "retries=", "verbose",
		},
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		Usage(ErrorCodes["opts"])
	}

	commands := map[string]func(*driver.Driver, *device.Device, []string) error{
		"demo":   Demo,
		"stress": Stress,
	}

	cfg, err := device.ParseConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		Usage(ErrorCodes["config"])
	}
	retries := 0
	verbose := false
	for _, oa := range optargs {
		switch oa.Opt() {
		case "-h", "--help":
			Usage(0)
		case "-v", "--verbose":
			verbose = true
		case "--capacity":
			cfg.CapacityBytes = int64(ParseInt(oa.Arg()))
		case "--block-size":
			cfg.BlockSize = ParseInt(oa.Arg())
		case "--no-failures":
			cfg.SimulateFailures = false
		case "--failure-rate":
			cfg.FailureRate = ParseFloat(oa.Arg())
		case "--seed":
			cfg.Seed = int64(ParseInt(oa.Arg()))
		case "--retries":
			retries = ParseInt(oa.Arg())
		case "--commands":
			fmt.Fprintf(os.Stderr, "Commands\n")
			for name := range commands {
				fmt.Fprintf(os.Stderr, "  %v\n", name)
			}
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown flag '%v'\n", oa.Opt())
			Usage(ErrorCodes["opts"])
		}
	}

	if len(args) <= 0 {
		args = []string{"demo"}
	}

	command, has := commands[args[0]]
	if !has {
		fmt.Fprintf(os.Stderr, "Command '%v' not supported. Try --commands to see the supported commands.\n", args[0])
		Usage(ErrorCodes["opts"])
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(ErrorCodes["failed"])
		}
	}
	defer logger.Sync()

	dev, err := device.New(cfg, device.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		Usage(ErrorCodes["config"])
	}
	defer dev.Close()

	opts := []driver.Option{driver.WithLogger(logger)}
	if retries > 0 {
		opts = append(opts, driver.WithMaxRetries(retries))
	}
	drv := driver.New(dev, opts...)

	err = command(drv, dev, args[1:])
	fmt.Println("Device stats:")
	PrintStats(dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Device error occurred: %v\n", err)
		os.Exit(ErrorCodes["failed"])
	}
}
