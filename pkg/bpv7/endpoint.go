// SPDX-FileCopyrightText: 2018, 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bpv7

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/dtn-go/bpcore/pkg/cboring"
)

// EndpointType is the scheme-specific part of an EndpointID. Each supported
// naming scheme -- dtn and ipn -- implements this as its own value type, so
// the scheme-specific part's shape is a property of the scheme rather than a
// loosely typed union of optional fields.
type EndpointType interface {
	// SchemeName returns this scheme's textual name, e.g. "dtn" or "ipn".
	SchemeName() string

	// SchemeNo returns this scheme's registered numeric code.
	SchemeNo() uint64

	// Authority returns the authority part of this endpoint's URI.
	Authority() string

	// Path returns the path part of this endpoint's URI.
	Path() string

	// IsSingleton indicates whether this endpoint identifies at most one
	// registered node at any time.
	IsSingleton() bool

	// CheckValid returns an error for a scheme-specific part violating its
	// scheme's invariants.
	CheckValid() error

	// MarshalCbor writes this EndpointType's scheme-specific part.
	MarshalCbor(w io.Writer) error

	fmt.Stringer
}

// Registered scheme numbers, per RFC 9171 section 4.2.5.1.
const (
	endpointSchemeDtn uint64 = 1
	endpointSchemeIpn uint64 = 2
)

// endpointParser parses a full "<scheme>:..." URI string into an
// EndpointType.
type endpointParser func(uri string) (EndpointType, error)

// endpointFactory constructs a zero-valued EndpointType for CBOR decoding,
// where the scheme number is already known from the wire.
type endpointFactory func() EndpointType

var (
	endpointParsersByName = map[string]endpointParser{
		"dtn": NewDtnEndpoint,
		"ipn": NewIpnEndpoint,
	}

	endpointFactoriesByNo = map[uint64]endpointFactory{
		endpointSchemeDtn: func() EndpointType { return DtnEndpoint{} },
		endpointSchemeIpn: func() EndpointType { return IpnEndpoint{} },
	}
)

// EndpointID represents an endpoint identifier as defined in section 4.2.5.
type EndpointID struct {
	EndpointType
}

// NewEndpointID parses an EndpointID from a string, e.g. "dtn://foo/bar" or
// "ipn:23.42". An unsupported scheme results in a BadScheme-style error.
func NewEndpointID(uri string) (e EndpointID, err error) {
	schemeName, _, found := strings.Cut(uri, ":")
	if !found {
		err = fmt.Errorf("endpoint ID %q has no scheme separator", uri)
		return
	}

	parser, ok := endpointParsersByName[schemeName]
	if !ok {
		err = fmt.Errorf("endpoint ID %q: unknown scheme %q", uri, schemeName)
		return
	}

	ep, err := parser(uri)
	if err != nil {
		return
	}

	e = EndpointID{EndpointType: ep}
	return
}

// MustNewEndpointID parses an EndpointID, panicking on a parse error. This is
// meant for static endpoint IDs, e.g. within tests.
func MustNewEndpointID(uri string) EndpointID {
	e, err := NewEndpointID(uri)
	if err != nil {
		panic(err)
	}
	return e
}

// DtnNone returns the "dtn:none" null endpoint.
func DtnNone() EndpointID {
	return EndpointID{EndpointType: DtnEndpoint{IsDtnNone: true}}
}

// CheckValid returns an error for a missing scheme-specific part or one
// violating its scheme's invariants.
func (eid EndpointID) CheckValid() error {
	if eid.EndpointType == nil {
		return fmt.Errorf("EndpointID has no scheme-specific part")
	}
	return eid.EndpointType.CheckValid()
}

// SameNode returns whether both EndpointIDs identify the same node, ignoring
// any service/demux component. A missing scheme-specific part counts as
// dtn:none.
func (eid EndpointID) SameNode(other EndpointID) bool {
	if eid.EndpointType == nil {
		eid = DtnNone()
	}
	if other.EndpointType == nil {
		other = DtnNone()
	}
	return eid.SchemeNo() == other.SchemeNo() && eid.Authority() == other.Authority()
}

func (eid EndpointID) String() string {
	if eid.EndpointType == nil {
		return "<nil>"
	}
	return eid.EndpointType.String()
}

// MarshalCbor writes this EndpointID as the two element array [scheme, ssp].
func (eid *EndpointID) MarshalCbor(w io.Writer) error {
	if eid.EndpointType == nil {
		return fmt.Errorf("EndpointID has no scheme-specific part")
	}

	if err := cboring.WriteArrayLength(2, w); err != nil {
		return err
	}
	if err := cboring.WriteUInt(eid.EndpointType.SchemeNo(), w); err != nil {
		return err
	}
	return eid.EndpointType.MarshalCbor(w)
}

// UnmarshalCbor reads an EndpointID from the two element array [scheme, ssp].
func (eid *EndpointID) UnmarshalCbor(r io.Reader) error {
	if l, err := cboring.ReadArrayLength(r); err != nil {
		return err
	} else if l != 2 {
		return fmt.Errorf("expected array with length 2, got %d", l)
	}

	schemeNo, err := cboring.ReadUInt(r)
	if err != nil {
		return err
	}

	factory, ok := endpointFactoriesByNo[schemeNo]
	if !ok {
		return fmt.Errorf("unknown endpoint scheme number %d", schemeNo)
	}

	ep := reflect.New(reflect.TypeOf(factory()))
	if err := ep.Interface().(cboring.CborUnmarshaler).UnmarshalCbor(r); err != nil {
		return err
	}

	eid.EndpointType = ep.Elem().Interface().(EndpointType)
	return nil
}
