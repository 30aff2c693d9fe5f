package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rjboer/goadb/adb"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5037", "adb daemon address (host:port)")
	serial := flag.String("serial", "", "target device serial (empty uses host:transport-any)")
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		fmt.Fprintln(os.Stderr, "usage: adb-shell [-addr host:port] [-serial SERIAL] <command>")
		os.Exit(2)
	}

	dev, err := adb.ConnectDevice(context.Background(), *addr, *serial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	stream, err := dev.Shell(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shell: %v\n", err)
		os.Exit(1)
	}
	defer stream.Close()

	if _, err := io.Copy(os.Stdout, stream); err != nil && err != io.EOF {
		fmt.Fprintf(os.Stderr, "shell: %v\n", err)
		os.Exit(1)
	}
}
