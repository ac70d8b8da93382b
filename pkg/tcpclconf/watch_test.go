// SPDX-FileCopyrightText: 2020, 2021 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package tcpclconf

import (
	"os"
	"testing"
	"time"
)

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	filename := writeConfig(t, dir, "[core]\nnode-id = \"dtn://node/\"\n")

	w, err := NewWatcher(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	if nodeId, err := w.Current().NodeId(); err != nil {
		t.Fatal(err)
	} else if nodeId.String() != "dtn://node/" {
		t.Fatalf("unexpected initial node ID: %v", nodeId)
	}

	if err := os.WriteFile(filename, []byte("[core]\nnode-id = \"dtn://updated/\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case conf := <-w.Changes():
		if nodeId, err := conf.NodeId(); err != nil {
			t.Fatal(err)
		} else if nodeId.String() != "dtn://updated/" {
			t.Fatalf("unexpected reloaded node ID: %v", nodeId)
		}

	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for configuration reload")
	}

	if nodeId, err := w.Current().NodeId(); err != nil {
		t.Fatal(err)
	} else if nodeId.String() != "dtn://updated/" {
		t.Fatalf("unexpected current node ID after reload: %v", nodeId)
	}
}

func TestWatcherKeepsPreviousOnInvalidReload(t *testing.T) {
	dir := t.TempDir()
	filename := writeConfig(t, dir, "[core]\nnode-id = \"dtn://node/\"\n")

	w, err := NewWatcher(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	if err := os.WriteFile(filename, []byte("[core]\nnode-id = \"not an endpoint\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Changes():
		t.Fatal("expected no configuration change for an invalid reload")

	case <-time.After(2 * time.Second):
	}

	if nodeId, err := w.Current().NodeId(); err != nil {
		t.Fatal(err)
	} else if nodeId.String() != "dtn://node/" {
		t.Fatalf("expected previous configuration to be kept, got %v", nodeId)
	}
}
