package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rjboer/goadb/adb"
	"github.com/rjboer/goadb/adb/syncproto"
	"github.com/rjboer/goadb/internal/progress"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5037", "adb daemon address (host:port)")
	serial := flag.String("serial", "", "target device serial (empty uses host:transport-any)")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: adb-pull [-addr host:port] [-serial SERIAL] <remote-path> <local-path>")
		os.Exit(2)
	}
	remotePath, localPath := flag.Arg(0), flag.Arg(1)

	dev, err := adb.ConnectDevice(context.Background(), *addr, *serial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	st, err := dev.Stat(remotePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stat: %v\n", err)
		os.Exit(1)
	}

	out, err := os.Create(localPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	hub := progress.NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()
	go func() {
		for p := range ch {
			fmt.Printf("\r%6.1f%% (%d/%d bytes, eta %s)  ", p.Percent(), p.Received, p.Total, hub.ETA().Truncate(time.Second))
		}
	}()

	report := func(p syncproto.Progress) { hub.Report(p) }
	start := time.Now()
	if err := dev.Pull(remotePath, int64(st.Size), out, report); err != nil {
		fmt.Fprintf(os.Stderr, "\npull: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\npulled %s -> %s in %s\n", remotePath, localPath, time.Since(start).Truncate(time.Millisecond))
}
