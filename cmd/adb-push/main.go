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
		fmt.Fprintln(os.Stderr, "usage: adb-push [-addr host:port] [-serial SERIAL] <local-path> <remote-path>")
		os.Exit(2)
	}
	localPath, remotePath := flag.Arg(0), flag.Arg(1)

	f, err := os.Open(localPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stat: %v\n", err)
		os.Exit(1)
	}

	dev, err := adb.ConnectDevice(context.Background(), *addr, *serial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	hub := progress.NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()
	go func() {
		for p := range ch {
			fmt.Printf("\r%6.1f%% (%d/%d bytes, %.0f B/s)  ", p.Percent(), p.Received, p.Total, hub.Rate())
		}
	}()

	report := func(p syncproto.Progress) { hub.Report(p) }
	start := time.Now()
	if err := dev.Push(remotePath, info.Mode(), info.ModTime().Unix(), info.Size(), f, report); err != nil {
		fmt.Fprintf(os.Stderr, "\npush: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\npushed %s -> %s in %s\n", localPath, remotePath, time.Since(start).Truncate(time.Millisecond))
}
