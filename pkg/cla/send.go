// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cla

import (
	"errors"

	"github.com/dtn-go/bpcore/pkg/bpv7"
)

// ErrNoRoute is returned by Manager.SendBundle when no registered ConvergenceSender's peer matches the bundle's
// destination, and no NextHopResolver supplied an alternative.
var ErrNoRoute = errors.New("cla: no session for bundle destination")

// NextHopResolver maps a bundle's destination endpoint to the endpoint of a directly reachable peer. A full Bundle
// Protocol Agent supplies this to implement store-and-forward routing; the Manager itself performs no routing
// decisions beyond a direct destination/peer endpoint match.
type NextHopResolver interface {
	NextHop(destination bpv7.EndpointID) (peer bpv7.EndpointID, ok bool)
}

// SendBundle transmits a bundle over the ConvergenceSender whose peer endpoint matches the bundle's destination.
// If resolver is non-nil and no directly connected peer matches, the resolver is consulted for a next hop, and
// that peer's session is used instead.
//
// Returns ErrNoRoute if no matching session exists.
func (manager *Manager) SendBundle(bndl bpv7.Bundle, resolver NextHopResolver) error {
	dest := bndl.PrimaryBlock.Destination

	if cs, ok := manager.senderFor(dest); ok {
		if err := cs.Send(bndl); err != nil {
			manager.reportSendFailed(cs, dest, err)
			return err
		}
		return nil
	}

	if resolver != nil {
		if nextHop, ok := resolver.NextHop(dest); ok {
			if cs, ok := manager.senderFor(nextHop); ok {
				if err := cs.Send(bndl); err != nil {
					manager.reportSendFailed(cs, dest, err)
					return err
				}
				return nil
			}
		}
	}

	manager.reportSendFailed(nil, dest, ErrNoRoute)
	return ErrNoRoute
}

// reportSendFailed pushes a SendFailed ConvergenceStatus onto the Manager's status channel, best-effort. The
// Manager may already be shutting down, in which case inChnl is closed and the send would panic; isStopped guards
// against that without requiring the caller to synchronize with Close.
func (manager *Manager) reportSendFailed(sender Convergence, dest bpv7.EndpointID, reason error) {
	if manager.isStopped() {
		return
	}
	manager.inChnl <- NewConvergenceSendFailed(sender, dest, reason)
}

// senderFor returns the active ConvergenceSender whose peer endpoint equals eid, if any.
func (manager *Manager) senderFor(eid bpv7.EndpointID) (ConvergenceSender, bool) {
	for _, cs := range manager.Sender() {
		if cs.GetPeerEndpointID() == eid {
			return cs, true
		}
	}
	return nil, false
}
