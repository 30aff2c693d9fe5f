package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rjboer/goadb/adb"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5037", "adb daemon address (host:port)")
	watch := flag.Bool("watch", false, "keep the connection open and print a new list on every change")
	flag.Parse()

	fmt.Println("===============================================================")
	fmt.Println(" adb device listing")
	fmt.Println("===============================================================")
	fmt.Printf(" Daemon : %s\n", *addr)
	fmt.Println("---------------------------------------------------------------")

	if !*watch {
		devices, err := adb.GetDevices(context.Background(), *addr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "devices: %v\n", err)
			os.Exit(1)
		}
		printDevices(devices)
		return
	}

	ch, cancel, err := adb.TrackDevices(context.Background(), *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "track-devices: %v\n", err)
		os.Exit(1)
	}
	defer cancel()
	for devices := range ch {
		printDevices(devices)
		fmt.Println("---------------------------------------------------------------")
	}
}

func printDevices(devices []adb.DeviceInfo) {
	if len(devices) == 0 {
		fmt.Println("No devices attached")
		return
	}
	for _, d := range devices {
		fmt.Printf(" %-20s %-12s product:%s model:%s device:%s\n",
			d.Serial, d.State, d.Product, d.Model, d.Device)
	}
}
