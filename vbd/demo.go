package main

import (
	"fmt"
)

import (
	"github.com/timtadh/ftl/device"
	"github.com/timtadh/ftl/driver"
)

func Demo(drv *driver.Driver, dev *device.Device, argv []string) error {
	if len(argv) > 0 {
		fmt.Println("demo takes no arguments")
		Usage(ErrorCodes["opts"])
	}
	payload := []byte("Hello Block Device")

	fmt.Println("Writing data...")
	if err := drv.Write(1000, payload); err != nil {
		return err
	}

	fmt.Println("Reading data...")
	data, err := drv.Read(1000, int64(len(payload)))
	if err != nil {
		return err
	}
	fmt.Printf("Read: %q\n", data)

	fmt.Println("Trimming first block...")
	if err := drv.Trim(0, int64(dev.BlockSize())); err != nil {
		return err
	}

	fmt.Println("Reading trimmed block...")
	trimmed, err := drv.Read(0, 16)
	if err != nil {
		return err
	}
	fmt.Printf("Trimmed read: %q\n", trimmed)
	return nil
}
