// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cla defines the interfaces a convergence layer adapter must
// implement to be supervised by a Manager.
//
// A ConvergenceReceiver receives bundles and forwards them to an exposed
// channel. A ConvergenceSender sends bundles to a remote endpoint. A
// convergence layer adapter can be a ConvergenceReceiver, ConvergenceSender
// or both, depending on its own semantics.
package cla

import "github.com/dtn-go/bpcore/pkg/bpv7"

// Convergable is anything a Manager can supervise: a Convergence or a
// ConvergenceProvider. It carries no methods of its own; the Manager uses a
// type switch to decide which kind it has been handed.
type Convergable interface{}

// Convergence is the common interface of all convergence layer adapters.
// There should be no direct implementation of this interface; implement
// ConvergenceReceiver and/or ConvergenceSender instead, both of which
// extend it.
type Convergence interface {
	// Start starts this Convergence and might return an error and a
	// boolean indicating if another Start should be tried later.
	Start() (err error, retry bool)

	// Close signals this Convergence to shut down.
	Close() error

	// Channel returns a channel of ConvergenceStatus reports.
	Channel() chan ConvergenceStatus

	// Address should return a unique address string to both identify this
	// Convergence and ensure it will not be opened twice.
	Address() string

	// IsPermanent returns true, if this CLA should not be removed after
	// failures.
	IsPermanent() bool
}

// ConvergenceReceiver is an interface for types which are able to receive
// bundles and report them through a ConvergenceStatus on their Channel.
type ConvergenceReceiver interface {
	Convergence

	// GetEndpointID returns the endpoint ID assigned to this CLA.
	GetEndpointID() bpv7.EndpointID
}

// ConvergenceSender is an interface for types which are able to transmit
// bundles to another node.
type ConvergenceSender interface {
	Convergence

	// Send transmits a bundle to this ConvergenceSender's endpoint. This
	// method should be thread safe and finish transmitting one bundle
	// before acting on the next.
	Send(bndl bpv7.Bundle) error

	// GetPeerEndpointID returns the endpoint ID assigned to this CLA's
	// peer, if it's known. Otherwise the zero endpoint will be returned.
	GetPeerEndpointID() bpv7.EndpointID
}

// ConvergenceProvider creates Convergence instances for incoming
// connections, e.g., a TCP listener, and reports them to a Manager.
type ConvergenceProvider interface {
	// RegisterManager tells this ConvergenceProvider where to report new
	// Convergence instances to.
	RegisterManager(manager *Manager)

	// Start this ConvergenceProvider.
	Start() error

	// Close signals this ConvergenceProvider to shut down.
	Close() error
}
