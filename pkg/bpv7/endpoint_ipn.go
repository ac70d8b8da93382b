// SPDX-FileCopyrightText: 2018, 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bpv7

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dtn-go/bpcore/pkg/cboring"
)

// IpnEndpoint is the scheme-specific part of an "ipn" endpoint ID: an
// ordered pair of non-zero node and service numbers.
type IpnEndpoint struct {
	Node    uint64
	Service uint64
}

// NewIpnEndpoint parses a full "ipn:<node>.<service>" URI into an IpnEndpoint.
func NewIpnEndpoint(uri string) (EndpointType, error) {
	const prefix = "ipn:"
	if !strings.HasPrefix(uri, prefix) {
		return nil, fmt.Errorf("ipn endpoint: missing %q prefix in %q", prefix, uri)
	}
	ssp := uri[len(prefix):]

	parts := strings.SplitN(ssp, ".", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("ipn endpoint: %q is missing the node.service separator", uri)
	}

	node, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ipn endpoint: invalid node number in %q: %v", uri, err)
	}
	service, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ipn endpoint: invalid service number in %q: %v", uri, err)
	}

	ep := IpnEndpoint{Node: node, Service: service}
	if err := ep.CheckValid(); err != nil {
		return nil, err
	}
	return ep, nil
}

// SchemeName returns "ipn".
func (IpnEndpoint) SchemeName() string { return "ipn" }

// SchemeNo returns the registered scheme number for "ipn".
func (IpnEndpoint) SchemeNo() uint64 { return endpointSchemeIpn }

// Authority returns the decimal node number.
func (ie IpnEndpoint) Authority() string {
	return strconv.FormatUint(ie.Node, 10)
}

// Path returns the decimal service number.
func (ie IpnEndpoint) Path() string {
	return strconv.FormatUint(ie.Service, 10)
}

// IsSingleton is always true for ipn endpoints.
func (IpnEndpoint) IsSingleton() bool { return true }

// CheckValid returns an error unless both the node and service number are
// non-zero.
func (ie IpnEndpoint) CheckValid() error {
	if ie.Node == 0 || ie.Service == 0 {
		return fmt.Errorf("IpnEndpoint: node and service number must both be non-zero, got (%d, %d)",
			ie.Node, ie.Service)
	}
	return nil
}

func (ie IpnEndpoint) String() string {
	return fmt.Sprintf("ipn:%d.%d", ie.Node, ie.Service)
}

// MarshalCbor writes this IpnEndpoint's scheme-specific part: the array
// [node, service].
func (ie IpnEndpoint) MarshalCbor(w io.Writer) error {
	if err := cboring.WriteArrayLength(2, w); err != nil {
		return err
	}
	if err := cboring.WriteUInt(ie.Node, w); err != nil {
		return err
	}
	return cboring.WriteUInt(ie.Service, w)
}

// UnmarshalCbor reads an IpnEndpoint's scheme-specific part.
func (ie *IpnEndpoint) UnmarshalCbor(r io.Reader) error {
	if l, err := cboring.ReadArrayLength(r); err != nil {
		return err
	} else if l != 2 {
		return fmt.Errorf("ipn endpoint: expected array with length 2, got %d", l)
	}

	node, err := cboring.ReadUInt(r)
	if err != nil {
		return err
	}
	service, err := cboring.ReadUInt(r)
	if err != nil {
		return err
	}

	ie.Node, ie.Service = node, service
	return nil
}
