package main

import (
	"fmt"
	"math/rand"
	"os"
)

import (
	"github.com/timtadh/getopt"
)

import (
	"github.com/timtadh/ftl/device"
	"github.com/timtadh/ftl/driver"
	"github.com/timtadh/ftl/errors"
)

func Stress(drv *driver.Driver, dev *device.Device, argv []string) error {
	_, optargs, err := getopt.GetOpt(
		argv,
		"h",
		[]string{
			"help", "ops=",
		},
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		Usage(ErrorCodes["opts"])
	}

	ops := 1000
	for _, oa := range optargs {
		switch oa.Opt() {
		case "-h", "--help":
			Usage(0)
		case "--ops":
			ops = ParseInt(oa.Arg())
		default:
			fmt.Fprintf(os.Stderr, "Unknown flag '%v'\n", oa.Opt())
			Usage(ErrorCodes["opts"])
		}
	}

	r := rand.New(rand.NewSource(int64(ops)))
	capacity := drv.Capacity()
	maxLen := int64(3 * dev.BlockSize())
	if maxLen > capacity {
		maxLen = capacity
	}
	exhausted := 0
	transient := 0
	for i := 0; i < ops; i++ {
		length := 1 + r.Int63n(maxLen)
		offset := r.Int63n(capacity - length + 1)
		var err error
		switch r.Intn(3) {
		case 0:
			_, err = drv.Read(offset, length)
		case 1:
			data := make([]byte, length)
			r.Read(data)
			err = drv.Write(offset, data)
		case 2:
			err = drv.Trim(offset, length)
		}
		switch {
		case err == nil:
		case errors.Is(err, errors.RetriesExceeded):
			exhausted++
		case errors.Retryable(err):
			transient++
		default:
			return err
		}
		if err := dev.Verify(); err != nil {
			return err
		}
	}
	fmt.Printf("Ran %d operations: %d reads failed transiently, %d writes exhausted their retries\n",
		ops, transient, exhausted)
	return nil
}
