// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
// SPDX-FileCopyrightText: 2019, 2020 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tcpclconf loads the TOML configuration for a TCPCLv4 listener/dialer
// setup: the local node's identity and the set of peers to listen for or dial.
package tcpclconf

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/dtn-go/bpcore/pkg/bpv7"
)

// Config is the root of the TOML configuration, modeled after the teacher's
// "Core"/"Listen"/"Peer" blocks, trimmed to the fields a TCPCLv4 session needs.
type Config struct {
	Core   CoreConf
	Listen []ListenConf
	Peer   []PeerConf
}

// CoreConf describes the local node's identity and default session parameters.
type CoreConf struct {
	// NodeId is this node's own endpoint ID, e.g. "dtn://node/".
	NodeId string `toml:"node-id"`

	// Keepalive interval in seconds used for negotiation. A zero value disables keepalives.
	Keepalive uint16

	// SegmentMru is the largest accepted single XFER_SEGMENT payload in bytes.
	SegmentMru uint64 `toml:"segment-mru"`

	// TransferMru is the largest accepted total bundle payload in bytes.
	TransferMru uint64 `toml:"transfer-mru"`
}

// ListenConf describes one TCPCLv4 listener bound to a local TCP address.
type ListenConf struct {
	// Endpoint is the local "host:port" TCP address to listen on.
	Endpoint string
}

// PeerConf describes one TCPCLv4 peer to be dialed.
type PeerConf struct {
	// Endpoint is the peer's "host:port" TCP address.
	Endpoint string

	// Permanent peers are redialed after a failure instead of being dropped.
	Permanent bool
}

// defaultKeepalive, defaultSegmentMru and defaultTransferMru mirror the teacher's
// cla/tcpclv4.Client defaults for an unconfigured Core block.
const (
	defaultKeepalive   uint16 = 30
	defaultSegmentMru  uint64 = 1048576
	defaultTransferMru uint64 = 1073741824
)

// NodeId parses this Config's Core.NodeId.
func (c Config) NodeId() (bpv7.EndpointID, error) {
	if c.Core.NodeId == "" {
		return bpv7.EndpointID{}, fmt.Errorf("core.node-id is empty")
	}

	return bpv7.NewEndpointID(c.Core.NodeId)
}

// Keepalive returns the configured keepalive interval, falling back to the teacher's default.
func (c Config) Keepalive() uint16 {
	if c.Core.Keepalive == 0 {
		return defaultKeepalive
	}
	return c.Core.Keepalive
}

// SegmentMru returns the configured segment MRU, falling back to the teacher's default.
func (c Config) SegmentMru() uint64 {
	if c.Core.SegmentMru == 0 {
		return defaultSegmentMru
	}
	return c.Core.SegmentMru
}

// TransferMru returns the configured transfer MRU, falling back to the teacher's default.
func (c Config) TransferMru() uint64 {
	if c.Core.TransferMru == 0 {
		return defaultTransferMru
	}
	return c.Core.TransferMru
}

// Validate reports whether this Config is well-formed: the node ID must parse and every
// listener/peer must carry a non-empty endpoint.
func (c Config) Validate() error {
	if _, err := c.NodeId(); err != nil {
		return fmt.Errorf("core.node-id is invalid: %w", err)
	}

	for i, l := range c.Listen {
		if l.Endpoint == "" {
			return fmt.Errorf("listen[%d].endpoint is empty", i)
		}
	}

	for i, p := range c.Peer {
		if p.Endpoint == "" {
			return fmt.Errorf("peer[%d].endpoint is empty", i)
		}
	}

	return nil
}

// Load reads and parses a Config from a TOML file, following the teacher's
// toml.DecodeFile-based parseCore.
func Load(filename string) (conf Config, err error) {
	if _, err = toml.DecodeFile(filename, &conf); err != nil {
		return
	}

	err = conf.Validate()
	return
}

// WatchInterval is the minimum delay between successive reloads triggered by the file watcher,
// debouncing editors which emit several fsnotify events for a single save.
const WatchInterval = 500 * time.Millisecond

func logFields(filename string) log.Fields {
	return log.Fields{"file": filename}
}
