// Package discovery implements mDNS discovery of wireless-debugging ADB
// targets (C8), adapted from the teacher's internal/mdns package: same
// blocking zeroconf browse with a dedup map and context timeout, browsing
// ADB's service types instead of _iio._tcp.
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// Service types ADB's wireless-debugging daemon advertises: the
// pairing-mode connect service used before `adb pair`, and the plain
// service used once a target is already paired or running plain TCP/IP
// debugging.
const (
	ServiceConnect = "_adb-tls-connect._tcp"
	ServicePlain   = "_adb._tcp"
)

// Host is a discovered ADB-capable target.
type Host struct {
	Instance  string // advertised name, e.g. "adb-XXXXXX._adb-tls-connect._tcp"
	Hostname  string // DNS hostname, e.g. "pixel7.local."
	Addresses []net.IP
	Port      int
	TXT       []string
}

// Discover performs a blocking mDNS browse for serviceType (ServiceConnect
// or ServicePlain) for up to timeout, returning deduplicated hosts.
func Discover(ctx context.Context, serviceType string, timeout time.Duration) ([]Host, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("adb: mdns resolver: %w", err)
	}

	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	resultMap := make(map[string]Host)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				if e == nil {
					continue
				}
				addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
				addrs = append(addrs, e.AddrIPv4...)
				addrs = append(addrs, e.AddrIPv6...)
				key := fmt.Sprintf("%s|%d", e.HostName, e.Port)
				resultMap[key] = Host{
					Instance:  cleanInstance(e.Instance),
					Hostname:  e.HostName,
					Addresses: addrs,
					Port:      e.Port,
					TXT:       append([]string{}, e.Text...),
				}
			case <-browseCtx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(browseCtx, serviceType, "local.", entries); err != nil {
		return nil, fmt.Errorf("adb: mdns browse %s: %w", serviceType, err)
	}

	<-done

	out := make([]Host, 0, len(resultMap))
	for _, h := range resultMap {
		out = append(out, h)
	}
	return out, nil
}

func cleanInstance(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}
