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
	serial := flag.String("serial", "", "target device serial")
	remove := flag.String("remove", "", "remove the forward rule whose local spec is given, then exit")
	list := flag.Bool("list", false, "list forward rules for -serial, then exit")
	flag.Parse()

	if *serial == "" {
		fmt.Fprintln(os.Stderr, "usage: adb-forward -serial SERIAL [-list | -remove local-spec | local-spec remote-spec]")
		os.Exit(2)
	}

	dev, err := adb.ConnectDevice(context.Background(), *addr, *serial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	switch {
	case *list:
		pairs, err := dev.ForwardList()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list-forward: %v\n", err)
			os.Exit(1)
		}
		for _, p := range pairs {
			fmt.Printf(" %s %s -> %s\n", p.Serial, p.Local, p.Remote)
		}
	case *remove != "":
		if err := dev.ForwardRemove(adb.ForwardSpec(*remove)); err != nil {
			fmt.Fprintf(os.Stderr, "killforward: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("removed forward %s\n", *remove)
	default:
		if flag.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "usage: adb-forward -serial SERIAL local-spec remote-spec")
			os.Exit(2)
		}
		local, remote := adb.ForwardSpec(flag.Arg(0)), adb.ForwardSpec(flag.Arg(1))
		if err := dev.Forward(local, remote); err != nil {
			fmt.Fprintf(os.Stderr, "forward: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("forwarding %s -> %s\n", local, remote)
	}
}
