package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rjboer/goadb/internal/discovery"
)

func main() {
	timeout := flag.Int("timeout", 5, "timeout in seconds")
	plain := flag.Bool("plain", false, "browse _adb._tcp (already-paired devices) instead of _adb-tls-connect._tcp")
	flag.Parse()

	serviceType := discovery.ServiceConnect
	if *plain {
		serviceType = discovery.ServicePlain
	}

	fmt.Println("===============================================================")
	fmt.Println(" ADB mDNS / DNS-SD Discovery")
	fmt.Println("===============================================================")
	fmt.Printf(" Service : %s.local\n", serviceType)
	fmt.Printf(" Timeout : %d seconds\n", *timeout)
	fmt.Println("---------------------------------------------------------------")

	start := time.Now()
	hosts, err := discovery.Discover(context.Background(), serviceType, time.Duration(*timeout)*time.Second)
	duration := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "discovery error: %v\n", err)
		os.Exit(1)
	}

	if len(hosts) == 0 {
		fmt.Printf("No devices found (%s)\n", duration.Truncate(time.Millisecond))
		return
	}

	fmt.Printf("Discovered %d device(s) in %s\n", len(hosts), duration.Truncate(time.Millisecond))
	fmt.Println("===============================================================")
	for i, h := range hosts {
		fmt.Printf(" Device #%d\n", i+1)
		fmt.Println("---------------------------------------------------------------")
		fmt.Printf(" Instance : %s\n", h.Instance)
		fmt.Printf(" Hostname : %s\n", h.Hostname)
		fmt.Printf(" Port     : %d\n", h.Port)
		fmt.Println(" Connection hints:")
		for _, ip := range h.Addresses {
			if ip.To4() != nil {
				fmt.Printf("   - adb connect %s:%d\n", ip.String(), h.Port)
			} else {
				fmt.Printf("   - adb connect [%s]:%d\n", ip.String(), h.Port)
			}
		}
		fmt.Println("===============================================================")
	}
}
