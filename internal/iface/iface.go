// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package iface selects the network interface ebaf attaches the
// classifier to, per C8's documented priority: operator argument,
// then the default route's device, then the first non-loopback UP
// interface, then a fatal error.
package iface

import (
	"net"

	"github.com/vishvananda/netlink"

	"ebaf/internal/errors"
)

// Select resolves the interface to attach to. operatorArg is the
// optional single CLI positional argument; empty means "auto-select".
func Select(operatorArg string) (string, error) {
	if operatorArg != "" {
		if _, err := net.InterfaceByName(operatorArg); err != nil {
			return "", errors.Wrapf(err, errors.KindSetupFatal, "interface %s not found", operatorArg)
		}
		return operatorArg, nil
	}

	if name, ok := defaultRouteInterface(); ok {
		return name, nil
	}

	if name, ok := firstUpNonLoopback(); ok {
		return name, nil
	}

	return "", errors.New(errors.KindSetupFatal, "no usable network interface found")
}

func defaultRouteInterface() (string, bool) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return "", false
	}

	for _, r := range routes {
		if r.Dst != nil {
			continue
		}
		link, err := netlink.LinkByIndex(r.LinkIndex)
		if err != nil {
			continue
		}
		return link.Attrs().Name, true
	}
	return "", false
}

func firstUpNonLoopback() (string, bool) {
	links, err := netlink.LinkList()
	if err != nil {
		return "", false
	}

	for _, l := range links {
		attrs := l.Attrs()
		if attrs.Flags&net.FlagLoopback != 0 {
			continue
		}
		if attrs.Flags&net.FlagUp == 0 {
			continue
		}
		return attrs.Name, true
	}
	return "", false
}
