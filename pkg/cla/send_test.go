// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cla

import (
	"errors"
	"testing"
	"time"

	"github.com/dtn-go/bpcore/pkg/bpv7"
)

type staticResolver struct {
	peer bpv7.EndpointID
	ok   bool
}

func (r staticResolver) NextHop(bpv7.EndpointID) (bpv7.EndpointID, bool) {
	return r.peer, r.ok
}

func TestManagerSendBundleDirect(t *testing.T) {
	manager := NewManager()
	defer func() { _ = manager.Close() }()
	go func() {
		for range manager.Channel() {
		}
	}()

	peer := bpv7.MustNewEndpointID("dtn://peer/")
	sender := newMockConvSender(true, "mock://direct/", peer)
	manager.Register(sender)

	// Registration activates the sender synchronously; give the Manager a
	// moment to handle the sender's status.
	time.Sleep(20 * time.Millisecond)

	bndl, err := bpv7.Builder().
		Source("dtn://src/").
		Destination("dtn://peer/").
		CreationTimestampEpoch().
		Lifetime("10m").
		BundleAgeBlock(0).
		PayloadBlock([]byte("hello")).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	if err := manager.SendBundle(bndl, nil); err != nil {
		t.Fatalf("SendBundle failed: %v", err)
	}

	if len(sender.sentBndls) != 1 {
		t.Fatalf("expected one sent bundle, got %d", len(sender.sentBndls))
	}
}

func TestManagerSendBundleNoRoute(t *testing.T) {
	manager := NewManager()
	defer func() { _ = manager.Close() }()
	go func() {
		for range manager.Channel() {
		}
	}()

	bndl, err := bpv7.Builder().
		Source("dtn://src/").
		Destination("dtn://nowhere/").
		CreationTimestampEpoch().
		Lifetime("10m").
		BundleAgeBlock(0).
		PayloadBlock([]byte("hello")).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	if err := manager.SendBundle(bndl, nil); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestManagerSendBundleResolved(t *testing.T) {
	manager := NewManager()
	defer func() { _ = manager.Close() }()
	go func() {
		for range manager.Channel() {
		}
	}()

	peer := bpv7.MustNewEndpointID("dtn://next-hop/")
	sender := newMockConvSender(true, "mock://resolved/", peer)
	manager.Register(sender)

	time.Sleep(20 * time.Millisecond)

	bndl, err := bpv7.Builder().
		Source("dtn://src/").
		Destination("dtn://far-away/").
		CreationTimestampEpoch().
		Lifetime("10m").
		BundleAgeBlock(0).
		PayloadBlock([]byte("hello")).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	resolver := staticResolver{peer: peer, ok: true}
	if err := manager.SendBundle(bndl, resolver); err != nil {
		t.Fatalf("SendBundle failed: %v", err)
	}

	if len(sender.sentBndls) != 1 {
		t.Fatalf("expected one sent bundle, got %d", len(sender.sentBndls))
	}
}
