// SPDX-FileCopyrightText: 2019, 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package tcpclconf

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()

	filename := filepath.Join(dir, "dtn.toml")
	if err := os.WriteFile(filename, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	return filename
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		toml  string
		valid bool
	}{
		{
			"minimal",
			"[core]\nnode-id = \"dtn://node/\"\n",
			true,
		},
		{
			"listen and peer",
			"[core]\nnode-id = \"dtn://node/\"\n\n" +
				"[[listen]]\nendpoint = \"0.0.0.0:4556\"\n\n" +
				"[[peer]]\nendpoint = \"remote:4556\"\npermanent = true\n",
			true,
		},
		{
			"missing node id",
			"[[listen]]\nendpoint = \"0.0.0.0:4556\"\n",
			false,
		},
		{
			"invalid node id",
			"[core]\nnode-id = \"not an endpoint\"\n",
			false,
		},
		{
			"empty listen endpoint",
			"[core]\nnode-id = \"dtn://node/\"\n\n[[listen]]\nendpoint = \"\"\n",
			false,
		},
		{
			"empty peer endpoint",
			"[core]\nnode-id = \"dtn://node/\"\n\n[[peer]]\nendpoint = \"\"\n",
			false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			filename := writeConfig(t, t.TempDir(), test.toml)

			_, err := Load(filename)
			if (err == nil) != test.valid {
				t.Fatalf("expected valid=%t, got error: %v", test.valid, err)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config

	if ka := c.Keepalive(); ka != defaultKeepalive {
		t.Fatalf("expected default keepalive %d, got %d", defaultKeepalive, ka)
	}
	if mru := c.SegmentMru(); mru != defaultSegmentMru {
		t.Fatalf("expected default segment MRU %d, got %d", defaultSegmentMru, mru)
	}
	if mru := c.TransferMru(); mru != defaultTransferMru {
		t.Fatalf("expected default transfer MRU %d, got %d", defaultTransferMru, mru)
	}

	c.Core.Keepalive = 10
	c.Core.SegmentMru = 2048
	c.Core.TransferMru = 4096

	if ka := c.Keepalive(); ka != 10 {
		t.Fatalf("expected configured keepalive 10, got %d", ka)
	}
	if mru := c.SegmentMru(); mru != 2048 {
		t.Fatalf("expected configured segment MRU 2048, got %d", mru)
	}
	if mru := c.TransferMru(); mru != 4096 {
		t.Fatalf("expected configured transfer MRU 4096, got %d", mru)
	}
}
