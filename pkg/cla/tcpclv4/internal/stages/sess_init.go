// SPDX-FileCopyrightText: 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package stages

import (
	log "github.com/sirupsen/logrus"

	"github.com/dtn-go/bpcore/pkg/bpv7"
	"github.com/dtn-go/bpcore/pkg/cla/tcpclv4/internal/msgs"
)

// SessInitStage models the session initialization resp. SESS_INIT exchange described in RFC 9174 section 4.2.
type SessInitStage struct {
	state     *State
	closeChan <-chan struct{}
}

// Handle this Stage's action based on the previous Stage's State and the StageHandler's close channel.
func (ci *SessInitStage) Handle(state *State, closeChan <-chan struct{}) {
	ci.state = state
	ci.closeChan = closeChan

	ciOut := msgs.NewSessionInitMessage(
		ci.state.Configuration.Keepalive,
		ci.state.Configuration.SegmentMru,
		ci.state.Configuration.TransferMru,
		ci.state.Configuration.NodeId.String())

	ciIn, err := ci.exchange(ciOut)
	if err != nil {
		log.WithError(err).Debug("SESS_INIT stage failed to exchange session parameters")
		ci.state.StageError = err
		return
	}

	ci.state.Keepalive = negotiateKeepalive(ci.state.Configuration.Keepalive, ciIn.KeepaliveInterval)
	ci.state.SegmentMtu = ciIn.SegmentMru
	ci.state.TransferMtu = ciIn.TransferMru

	ci.state.PeerNodeId, err = bpv7.NewEndpointID(ciIn.NodeId)
	if err != nil {
		log.WithError(err).WithField("node_id", ciIn.NodeId).Debug("SESS_INIT stage received an invalid peer node ID")
	}
	ci.state.StageError = err
}

// exchange sends and receives the SESS_INIT message, respecting which side initiates based on ActivePeer.
func (ci *SessInitStage) exchange(ciOut *msgs.SessionInitMessage) (ciIn *msgs.SessionInitMessage, err error) {
	if ci.state.Configuration.ActivePeer {
		ci.state.MsgOut <- ciOut
		return receiveTypedOrClose[*msgs.SessionInitMessage](ci.closeChan, ci.state.MsgIn)
	}

	ciIn, err = receiveTypedOrClose[*msgs.SessionInitMessage](ci.closeChan, ci.state.MsgIn)
	if err == nil {
		ci.state.MsgOut <- ciOut
	}
	return
}
