// SPDX-FileCopyrightText: 2020 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package stages

import (
	log "github.com/sirupsen/logrus"

	"github.com/dtn-go/bpcore/pkg/cla/tcpclv4/internal/msgs"
)

// ContactStage models the initial ContactHeader exchange that precedes SESS_INIT, per RFC 9174 section 4.1.
type ContactStage struct {
	state     *State
	closeChan <-chan struct{}
}

// Handle this Stage's action based on the previous Stage's State and the StageHandler's close channel.
func (cs *ContactStage) Handle(state *State, closeChan <-chan struct{}) {
	cs.state = state
	cs.closeChan = closeChan

	if cs.state.Configuration.ActivePeer {
		cs.handleActive()
	} else {
		cs.handlePassive()
	}
}

// handleActive sends the local Contact Header first, as the active entity in the TCP connection must.
func (cs *ContactStage) handleActive() {
	cs.state.MsgOut <- msgs.NewContactHeader(cs.state.Configuration.ContactFlags)

	ch, err := receiveTypedOrClose[*msgs.ContactHeader](cs.closeChan, cs.state.MsgIn)
	if err != nil {
		log.WithError(err).Debug("Contact stage failed to receive peer's Contact Header")
		cs.state.StageError = err
		return
	}
	cs.state.ContactFlags = ch.Flags
}

// handlePassive waits for the peer's Contact Header before replying with the local one.
func (cs *ContactStage) handlePassive() {
	ch, err := receiveTypedOrClose[*msgs.ContactHeader](cs.closeChan, cs.state.MsgIn)
	if err != nil {
		log.WithError(err).Debug("Contact stage failed to receive peer's Contact Header")
		cs.state.StageError = err
		return
	}
	cs.state.ContactFlags = ch.Flags

	cs.state.MsgOut <- msgs.NewContactHeader(cs.state.Configuration.ContactFlags)
}
