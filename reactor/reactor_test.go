package reactor_test

import (
	"context"
	"errors"
	"net/netip"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ra5c0/ChatServer/api"
	"github.com/Ra5c0/ChatServer/control"
	"github.com/Ra5c0/ChatServer/fake"
	"github.com/Ra5c0/ChatServer/reactor"
)

type harness struct {
	net    *fake.Network
	poller *fake.Poller
	in     *fake.Input
	out    *fake.Output
	r      *reactor.Reactor
}

func newHarness(t *testing.T, opts ...reactor.Option) *harness {
	t.Helper()
	h := &harness{
		net:    fake.NewNetwork(),
		poller: fake.NewPoller(),
		in:     fake.NewInput(0),
		out:    fake.NewOutput(1),
	}
	local := api.LocalIO{Input: h.in, Output: h.out, Error: fake.NewOutput(2)}
	opts = append([]reactor.Option{
		reactor.WithPoller(h.poller),
		reactor.WithEndpointFactory(h.net.NewEndpoint),
	}, opts...)
	r, err := reactor.New(local, opts...)
	require.NoError(t, err)
	h.r = r
	return h
}

func (h *harness) server() *fake.Endpoint { return h.net.Endpoint(0) }
func (h *harness) client() *fake.Endpoint { return h.net.Endpoint(1) }

func (h *harness) run() error {
	return h.r.Run(context.Background())
}

func (h *harness) cause() any {
	v, _ := h.r.Stats().Value(control.MetricShutdownCause)
	return v
}

func TestNewRejectsMissingStreams(t *testing.T) {
	_, err := reactor.New(api.LocalIO{Input: fake.NewInput(0)}, reactor.WithPoller(fake.NewPoller()))
	require.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestInitialSlots(t *testing.T) {
	h := newHarness(t)

	stdin := h.r.Slot(api.SlotStdin)
	assert.Equal(t, 0, stdin.FD)
	assert.Equal(t, api.EventRead, stdin.Interest)
	assert.Equal(t, 1, h.r.Slot(api.SlotStdout).FD)
	assert.Equal(t, api.EventNone, h.r.Slot(api.SlotStdout).Interest)
	assert.Equal(t, 2, h.r.Slot(api.SlotStderr).FD)
	assert.Equal(t, api.EventNone, h.r.Slot(api.SlotStderr).Interest)
	assert.False(t, h.r.Slot(api.SlotServer).Active())
	assert.False(t, h.r.Slot(api.SlotClient).Active())
	assert.Len(t, h.net.Endpoints, 2)
	assert.Equal(t, api.InvalidFD, h.server().FD())
}

func TestRunPerformsPassiveOpen(t *testing.T) {
	var listened netip.AddrPort
	cfg := reactor.Config{
		Addr:        netip.MustParseAddr("127.0.0.1"),
		Port:        4242,
		Backlog:     7,
		PollTimeout: 250 * time.Millisecond,
	}
	h := newHarness(t,
		reactor.WithConfig(cfg),
		reactor.WithListenHook(func(addr netip.AddrPort) { listened = addr }),
	)

	err := h.run()
	require.ErrorIs(t, err, fake.ErrScriptExhausted)

	srv := h.server()
	assert.True(t, srv.Reuse)
	assert.True(t, srv.Listening)
	assert.Equal(t, cfg.Addr, srv.Addr)
	assert.EqualValues(t, 4242, srv.Port)
	assert.Equal(t, 7, srv.Backlog)
	assert.Equal(t, netip.AddrPortFrom(cfg.Addr, 4242), listened)

	require.Len(t, h.poller.Seen, 1)
	seen := h.poller.Seen[0]
	assert.Equal(t, api.EventRead, seen[api.SlotServer].Interest)
	assert.True(t, seen[api.SlotServer].Active())
	assert.False(t, seen[api.SlotClient].Active())
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, h.poller.Timeouts)

	// failure path still releases the listener and the poller
	assert.Equal(t, api.InvalidFD, srv.FD())
	assert.True(t, h.poller.Closed)
}

func TestDefaultConfig(t *testing.T) {
	cfg := reactor.DefaultConfig()
	assert.Equal(t, netip.IPv4Unspecified(), cfg.Addr)
	assert.EqualValues(t, 10000, cfg.Port)
	assert.Equal(t, 5, cfg.Backlog)
	assert.Equal(t, time.Second, cfg.PollTimeout)
}

func TestForwardStdinToPeer(t *testing.T) {
	h := newHarness(t)
	peer := h.net.Dial()
	h.in.Push([]byte("hello\n"))
	h.poller.Push(
		fake.Readable(api.SlotServer),
		fake.Readable(api.SlotStdin),
		fake.Hangup(api.SlotClient),
	)

	require.NoError(t, h.run())
	assert.Equal(t, "hello\n", string(h.net.Sent(peer)))
	assert.EqualValues(t, 6, h.r.Stats().Counter(control.MetricBytesOut))
	assert.EqualValues(t, 1, h.r.Stats().Counter(control.MetricAccepted))
	assert.Equal(t, "client-hangup", h.cause())
	assert.True(t, h.net.IsClosed(peer))
}

func TestStdinWithoutPeerIsDropped(t *testing.T) {
	h := newHarness(t)
	h.in.Push([]byte("nobody listens"))
	h.poller.Push(fake.Readable(api.SlotStdin), fake.Hangup(api.SlotStdin))

	require.NoError(t, h.run())
	assert.Equal(t, 1, h.in.Reads)
	assert.Equal(t, "stdin-hangup", h.cause())
	assert.False(t, h.r.Slot(api.SlotStdin).Active())
}

func TestForwardingFidelity(t *testing.T) {
	chunks := [][]byte{
		[]byte("plain text"),
		{0x00, 0xff, 0x0d, 0x0a, 0x1b},
		[]byte("no newline normalization\r\n"),
		{},
	}
	h := newHarness(t)
	peer := h.net.Dial()
	h.poller.Push(fake.Readable(api.SlotServer))

	var wantOut, wantSent []byte
	for _, c := range chunks {
		h.in.Push(c)
		wantSent = append(wantSent, c...)
		if len(c) > 0 {
			h.net.Deliver(peer, c)
			wantOut = append(wantOut, c...)
			h.poller.Push(fake.Readable(api.SlotStdin, api.SlotClient))
		} else {
			h.poller.Push(fake.Readable(api.SlotStdin))
		}
	}
	h.net.Hangup(peer)
	h.poller.Push(fake.Readable(api.SlotClient))

	require.NoError(t, h.run())
	assert.Equal(t, wantSent, h.net.Sent(peer))
	assert.Equal(t, wantOut, h.out.Bytes())
	assert.Equal(t, reactor.CausePeerClosed, h.cause())
	assert.Zero(t, h.poller.Pending())
}

func TestSinglePeerExclusivity(t *testing.T) {
	h := newHarness(t)
	first := h.net.Dial()
	h.poller.Push(fake.Readable(api.SlotServer))

	var extra []int
	for i := 0; i < 5; i++ {
		extra = append(extra, h.net.Dial())
		h.poller.Push(fake.Readable(api.SlotServer))
	}
	h.in.Push([]byte("still first"))
	h.poller.Push(fake.Readable(api.SlotStdin))
	h.net.Hangup(first)
	h.poller.Push(fake.Readable(api.SlotClient))

	require.NoError(t, h.run())
	for _, fd := range extra {
		assert.True(t, h.net.IsClosed(fd), "fd %d not closed", fd)
		assert.Empty(t, h.net.Sent(fd))
	}
	assert.Equal(t, "still first", string(h.net.Sent(first)))
	assert.EqualValues(t, 1, h.r.Stats().Counter(control.MetricAccepted))
	assert.EqualValues(t, 5, h.r.Stats().Counter(control.MetricRejected))

	// the client endpoint only ever held the first peer
	for i, e := range h.net.Endpoints[2:] {
		assert.Equal(t, api.InvalidFD, e.FD(), "surplus endpoint %d", i)
	}
	assert.Equal(t, reactor.CausePeerClosed, h.cause())
}

func TestPeerCloseWinsOverSameIterationReadiness(t *testing.T) {
	h := newHarness(t)
	first := h.net.Dial()
	h.poller.Push(fake.Readable(api.SlotServer))

	late := h.net.Dial()
	h.in.Push([]byte("last words"))
	h.net.Hangup(first)
	h.poller.Push(fake.Readable(api.SlotStdin, api.SlotServer, api.SlotClient))

	require.NoError(t, h.run())
	assert.Equal(t, "last words", string(h.net.Sent(first)))
	assert.True(t, h.net.IsClosed(late))
	assert.True(t, h.net.IsClosed(first))
	assert.False(t, h.r.Slot(api.SlotClient).Active())
	assert.False(t, h.r.Slot(api.SlotServer).Active())
	assert.Equal(t, reactor.CausePeerClosed, h.cause())
	assert.Zero(t, h.poller.Pending())
	assert.Equal(t, 2, h.poller.Waits)
}

func TestIdleWaitsAreRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t)
	h.poller.Push(fake.Idle(), fake.Idle(), fake.Idle())
	h.poller.Push(fake.Step{Before: cancel})

	require.NoError(t, h.r.Run(ctx))
	assert.Equal(t, 4, h.poller.Waits)
	assert.Equal(t, reactor.CauseContext, h.cause())
	assert.Len(t, h.net.Closed, 1)
	assert.Equal(t, api.InvalidFD, h.server().FD())
}

func TestServerHangupShutsDown(t *testing.T) {
	h := newHarness(t)
	h.poller.Push(fake.Step{Ready: map[api.Slot]api.EventType{api.SlotServer: api.EventError}})

	require.NoError(t, h.run())
	assert.False(t, h.r.Slot(api.SlotServer).Active())
	assert.Equal(t, "server-error", h.cause())
}

func TestStdinEOFWithPendingDataRecordsHangup(t *testing.T) {
	h := newHarness(t)
	h.in.Push([]byte("last words"))
	h.poller.Push(fake.Step{Ready: map[api.Slot]api.EventType{
		api.SlotStdin: api.EventRead | api.EventHangup,
	}})

	require.NoError(t, h.run())
	assert.Equal(t, 1, h.in.Reads)
	assert.Equal(t, "stdin-hangup", h.cause())
	assert.False(t, h.r.Slot(api.SlotStdin).Active())
}

func TestOutputSlotFailureShutsDown(t *testing.T) {
	cases := []struct {
		slot  api.Slot
		ev    api.EventType
		cause string
	}{
		{api.SlotStdout, api.EventError, "stdout-error"},
		{api.SlotStderr, api.EventHangup, "stderr-hangup"},
		{api.SlotStdout, api.EventWrite | api.EventHangup | api.EventError, "stdout-hangup|error"},
	}
	for _, tc := range cases {
		t.Run(tc.cause, func(t *testing.T) {
			h := newHarness(t)
			peer := h.net.Dial()
			h.poller.Push(
				fake.Readable(api.SlotServer),
				fake.Step{Ready: map[api.Slot]api.EventType{tc.slot: tc.ev}},
			)

			require.NoError(t, h.run())
			assert.Equal(t, tc.cause, h.cause())
			assert.False(t, h.r.Slot(tc.slot).Active())
			assert.False(t, h.r.Slot(api.SlotServer).Active())
			assert.False(t, h.r.Slot(api.SlotClient).Active())
			assert.True(t, h.net.IsClosed(peer))
			assert.Equal(t, api.InvalidFD, h.server().FD())
			assert.Zero(t, h.out.Len())
		})
	}
}

func TestQuitIsIdempotent(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.r.Quit())
	require.NoError(t, h.r.Quit())
	require.NoError(t, h.run())
	assert.Zero(t, h.poller.Waits)
	assert.Equal(t, reactor.CauseQuit, h.cause())
}

func TestAcceptFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.poller.Push(fake.Step{
		Before: func() { h.server().AcceptErr = syscall.EMFILE },
		Ready:  map[api.Slot]api.EventType{api.SlotServer: api.EventRead},
	})

	err := h.run()
	require.Error(t, err)
	assert.Equal(t, "accept", api.Op(err))
	assert.ErrorIs(t, err, syscall.EMFILE)
	assert.Equal(t, api.InvalidFD, h.server().FD())
	assert.Nil(t, h.cause())
}

func TestBindFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.server().BindErr = syscall.EADDRINUSE

	err := h.run()
	require.ErrorIs(t, err, syscall.EADDRINUSE)
	assert.Equal(t, "bind() has failed: "+syscall.EADDRINUSE.Error(), err.Error())
	assert.Zero(t, h.poller.Waits)
}

func TestSendFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	peer := h.net.Dial()
	h.in.Push([]byte("x"))
	h.poller.Push(
		fake.Readable(api.SlotServer),
		fake.Step{
			Before: func() { h.client().SendErr = syscall.ENOBUFS },
			Ready:  map[api.Slot]api.EventType{api.SlotStdin: api.EventRead},
		},
	)

	err := h.run()
	require.Error(t, err)
	assert.Equal(t, "send", api.Op(err))
	assert.True(t, h.net.IsClosed(peer))
}

func TestSendResetEndsSessionGracefully(t *testing.T) {
	h := newHarness(t)
	peer := h.net.Dial()
	h.in.Push([]byte("x"))
	h.poller.Push(
		fake.Readable(api.SlotServer),
		fake.Step{
			Before: func() { h.client().SendErr = syscall.EPIPE },
			Ready:  map[api.Slot]api.EventType{api.SlotStdin: api.EventRead},
		},
	)

	require.NoError(t, h.run())
	assert.True(t, h.net.IsClosed(peer))
	assert.Equal(t, reactor.CausePeerClosed, h.cause())
	assert.False(t, h.r.Slot(api.SlotClient).Active())
}

func TestReceiveResetEndsSessionGracefully(t *testing.T) {
	h := newHarness(t)
	h.net.Dial()
	h.poller.Push(
		fake.Readable(api.SlotServer),
		fake.Step{
			Before: func() { h.client().RecvErr = syscall.ECONNRESET },
			Ready:  map[api.Slot]api.EventType{api.SlotClient: api.EventRead},
		},
	)

	require.NoError(t, h.run())
	assert.Equal(t, reactor.CausePeerClosed, h.cause())
	assert.Empty(t, h.out.Bytes())
}

func TestLocalReadFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.in.Err = syscall.EIO
	h.poller.Push(fake.Readable(api.SlotStdin))

	err := h.run()
	var le *api.LocalIOError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "read", le.Op)
	assert.ErrorIs(t, err, syscall.EIO)
}

func TestLocalWriteFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	peer := h.net.Dial()
	h.net.Deliver(peer, []byte("data"))
	h.out.Err = syscall.ENOSPC
	h.poller.Push(fake.Readable(api.SlotServer), fake.Readable(api.SlotClient))

	err := h.run()
	assert.Equal(t, "write", api.Op(err))
	assert.True(t, h.net.IsClosed(peer))
}

func TestPollFailureIsFatal(t *testing.T) {
	boom := errors.New("poll() has failed: boom")
	h := newHarness(t)
	h.poller.Push(fake.Step{Err: boom})
	require.ErrorIs(t, h.run(), boom)
}

func TestShutdownCloseFailurePropagates(t *testing.T) {
	h := newHarness(t)
	h.poller.Push(fake.Step{
		Before: func() { h.server().CloseErr = syscall.EIO },
		Ready:  map[api.Slot]api.EventType{api.SlotStdin: api.EventHangup},
	})

	err := h.run()
	require.Error(t, err)
	assert.Equal(t, "close", api.Op(err))
	assert.Equal(t, api.InvalidFD, h.server().FD())
}
