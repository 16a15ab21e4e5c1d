// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transceiver implements the blocking send/poll-recv half of the
// SWG communication stack: it hands a framed transmission to a transport
// and polls for the TPer's response, aliasing the handle's scratch I/O
// block for the lifetime of that response.
package transceiver

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tcgsed/go-swg-core/pkg/drive"
	"github.com/tcgsed/go-swg-core/pkg/framing"
)

// MaxIOBlock bounds the handle's scratch I/O block; no SWG transmission
// this library builds or parses may exceed it.
const MaxIOBlock = 64 * 1024

var (
	ErrPacketTooLarge = errors.New("transceiver: encoded transmission exceeds max_com_pkt_size")
	ErrBadComID       = framing.ErrBadComID
	ErrTimeout        = errors.New("transceiver: timed out waiting for a TPer response")
)

// Options governs the recv polling loop. The values below mirror the
// "roughly 1ms / roughly 10s" guidance; callers with faster or slower
// transports can override them per handle.
type Options struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

func DefaultOptions() Options {
	return Options{PollInterval: time.Millisecond, Timeout: 10 * time.Second}
}

// Metrics optionally records send/recv activity. A nil Metrics (the
// zero value of Handle.Metrics) disables collection entirely; nothing
// in Send/Recv depends on it being registered anywhere.
type Metrics struct {
	Sends      prometheus.Counter
	Recvs      prometheus.Counter
	PollRounds prometheus.Counter
	RecvWait   prometheus.Histogram
}

// NewMetrics builds a Metrics bound to reg. Pass a nil reg to get a
// Metrics that is valid but registered nowhere (useful for tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swg_transceiver_sends_total",
			Help: "Number of SWG transmissions sent.",
		}),
		Recvs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swg_transceiver_recvs_total",
			Help: "Number of SWG transmissions successfully received.",
		}),
		PollRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swg_transceiver_poll_rounds_total",
			Help: "Number of recv polling rounds that found no response ready.",
		}),
		RecvWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "swg_transceiver_recv_wait_seconds",
			Help:    "Time spent waiting for a TPer response to become ready.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Sends, m.Recvs, m.PollRounds, m.RecvWait)
	}
	return m
}

// Handle is the minimal state the transceiver needs: a transport, the
// negotiated ComID and packet size limit, the session IDs currently in
// effect (zero when no session is open), and a single reusable scratch
// block. pkg/session.Handle embeds this and adds session-manager-level
// bookkeeping (SSC kind, token size limit, target SP, open state); no
// reset-support flag is kept by either handle.
type Handle struct {
	Transport        drive.SendReceive
	ComID            uint16
	MaxComPacketSize int
	TPerSessionID    uint32
	HostSessionID    uint32
	IOBlock          []byte
	Options          Options
	Metrics          *Metrics
}

// NewHandle creates a Handle with the spec's default drive packet size
// (1024 bytes) in effect until a Properties call negotiates the real
// one, and a zeroed 64KiB scratch block.
func NewHandle(t drive.SendReceive, comID uint16) *Handle {
	return &Handle{
		Transport:        t,
		ComID:            comID,
		MaxComPacketSize: 1024,
		IOBlock:          make([]byte, MaxIOBlock),
		Options:          DefaultOptions(),
	}
}

// Send frames payload and hands it to the transport. useSessionIDs must
// be false for calls against the Session Manager object and true for
// every other invoking ID.
func Send(h *Handle, payload []byte, useSessionIDs bool) error {
	out, err := framing.Wrap(h.ComID, h.TPerSessionID, h.HostSessionID, 0, useSessionIDs, payload, h.MaxComPacketSize)
	if err != nil {
		if errors.Is(err, framing.ErrTooLarge) {
			return ErrPacketTooLarge
		}
		return err
	}
	for i := range h.IOBlock {
		h.IOBlock[i] = 0
	}
	copy(h.IOBlock, out)
	block := h.IOBlock[:len(out)]
	if err := h.Transport.IFSend(drive.SecurityProtocolTCGManagement, h.ComID, block); err != nil {
		return err
	}
	if h.Metrics != nil {
		h.Metrics.Sends.Inc()
	}
	return nil
}

// Recv polls the transport until the TPer has a response ready, or
// Options.Timeout elapses, and sets *view to a zero-copy slice of the
// SubPacket payload within h.IOBlock. The caller must consume *view
// before the next Send or Recv call on the same handle.
func Recv(h *Handle, view *[]byte) error {
	n := h.MaxComPacketSize
	if n > len(h.IOBlock) {
		n = len(h.IOBlock)
	}
	deadline := time.Now().Add(h.Options.Timeout)
	start := time.Now()
	for {
		block := h.IOBlock[:n]
		if err := h.Transport.IFRecv(drive.SecurityProtocolTCGManagement, h.ComID, &block); err != nil {
			return err
		}
		payload, err := framing.Unwrap(block, h.ComID)
		if err == nil {
			*view = payload
			if h.Metrics != nil {
				h.Metrics.Recvs.Inc()
				h.Metrics.RecvWait.Observe(time.Since(start).Seconds())
			}
			return nil
		}
		if errors.Is(err, framing.ErrBadComID) {
			return ErrBadComID
		}
		if !errors.Is(err, framing.ErrNotReady) {
			return err
		}
		if h.Metrics != nil {
			h.Metrics.PollRounds.Inc()
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(h.Options.PollInterval)
	}
}
