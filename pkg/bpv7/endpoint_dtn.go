// SPDX-FileCopyrightText: 2018, 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bpv7

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dtn-go/bpcore/pkg/cboring"
)

// DtnEndpoint is the scheme-specific part of a "dtn" endpoint ID, either the
// well-known null endpoint dtn:none or a dtn://<node>/<demux> URI.
type DtnEndpoint struct {
	IsDtnNone bool
	NodeName  string
	Demux     string
}

// NewDtnEndpoint parses a full "dtn:..." URI into a DtnEndpoint.
func NewDtnEndpoint(uri string) (EndpointType, error) {
	const prefix = "dtn:"
	if !strings.HasPrefix(uri, prefix) {
		return nil, fmt.Errorf("dtn endpoint: missing %q prefix in %q", prefix, uri)
	}
	ssp := uri[len(prefix):]

	if ssp == "none" {
		return DtnEndpoint{IsDtnNone: true}, nil
	}

	if !strings.HasPrefix(ssp, "//") {
		return nil, fmt.Errorf("dtn endpoint: %q must start with dtn:// or be dtn:none", uri)
	}
	rest := ssp[2:]

	slashIdx := strings.IndexByte(rest, '/')
	if slashIdx < 0 {
		return nil, fmt.Errorf("dtn endpoint: %q is missing the node/demux separator", uri)
	}

	nodeName, demux := rest[:slashIdx], rest[slashIdx+1:]
	if nodeName == "" {
		return nil, fmt.Errorf("dtn endpoint: %q has an empty node name", uri)
	}
	if !isValidDtnNodeName(nodeName) {
		return nil, fmt.Errorf("dtn endpoint: %q contains an invalid character in its node name", uri)
	}

	return DtnEndpoint{NodeName: nodeName, Demux: demux}, nil
}

func isValidDtnNodeName(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '.', r == '_':
		default:
			return false
		}
	}
	return true
}

// SchemeName returns "dtn".
func (DtnEndpoint) SchemeName() string { return "dtn" }

// SchemeNo returns the registered scheme number for "dtn".
func (DtnEndpoint) SchemeNo() uint64 { return endpointSchemeDtn }

// Authority returns "none" for the null endpoint, otherwise the node name.
func (de DtnEndpoint) Authority() string {
	if de.IsDtnNone {
		return "none"
	}
	return de.NodeName
}

// Path returns the demux part prefixed with a slash.
func (de DtnEndpoint) Path() string {
	return "/" + de.Demux
}

// IsSingleton reports false for the null endpoint and for any demux starting
// with "~", which by convention marks a non-singleton group endpoint.
func (de DtnEndpoint) IsSingleton() bool {
	if de.IsDtnNone {
		return false
	}
	return !strings.HasPrefix(de.Demux, "~")
}

// CheckValid returns an error if this is neither the null endpoint nor a
// properly formed dtn://<node>/<demux> value.
func (de DtnEndpoint) CheckValid() error {
	if de.IsDtnNone {
		return nil
	}
	if de.NodeName == "" {
		return fmt.Errorf("DtnEndpoint: empty node name")
	}
	if !isValidDtnNodeName(de.NodeName) {
		return fmt.Errorf("DtnEndpoint: invalid node name %q", de.NodeName)
	}
	return nil
}

func (de DtnEndpoint) String() string {
	if de.IsDtnNone {
		return "dtn:none"
	}
	return fmt.Sprintf("dtn://%s/%s", de.NodeName, de.Demux)
}

// MarshalCbor writes this DtnEndpoint's scheme-specific part: the integer 0
// for dtn:none, or the "//<node>/<demux>" text string otherwise.
func (de DtnEndpoint) MarshalCbor(w io.Writer) error {
	if de.IsDtnNone {
		return cboring.WriteUInt(0, w)
	}
	return cboring.WriteTextString(fmt.Sprintf("//%s/%s", de.NodeName, de.Demux), w)
}

// UnmarshalCbor reads a DtnEndpoint's scheme-specific part, dispatching on
// the next item's major type since it is either an unsigned integer or a
// text string.
func (de *DtnEndpoint) UnmarshalCbor(r io.Reader) error {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return err
	}
	rr := io.MultiReader(bytes.NewReader(first[:]), r)

	switch first[0] >> 5 {
	case cboring.MajorUnsignedInt:
		v, err := cboring.ReadUInt(rr)
		if err != nil {
			return err
		} else if v != 0 {
			return fmt.Errorf("dtn endpoint: expected 0 for dtn:none, got %d", v)
		}
		*de = DtnEndpoint{IsDtnNone: true}
		return nil

	case cboring.MajorTextString:
		s, err := cboring.ReadTextString(rr)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(s, "//") {
			return fmt.Errorf("dtn endpoint: %q is missing the // prefix", s)
		}
		rest := s[2:]
		slashIdx := strings.IndexByte(rest, '/')
		if slashIdx < 0 {
			return fmt.Errorf("dtn endpoint: %q is missing the node/demux separator", s)
		}
		*de = DtnEndpoint{NodeName: rest[:slashIdx], Demux: rest[slashIdx+1:]}
		return nil

	default:
		return fmt.Errorf("dtn endpoint: unexpected CBOR major type %d", first[0]>>5)
	}
}
