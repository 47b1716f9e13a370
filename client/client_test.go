/* SPDX-License-Identifier: MIT */

package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	cryptoops "github.com/PixeLInc/tsclientlib/client/crypto"
	"github.com/PixeLInc/tsclientlib/client/packet"
	"github.com/PixeLInc/tsclientlib/client/transport"
)

// fakeSink is an in-memory Sink recording every packet handed to it, used in
// place of the out-of-scope UDP codec so the handshake can be driven
// end-to-end without a socket.
type fakeSink struct {
	mu   sync.Mutex
	sent []packet.Packet
}

func (f *fakeSink) Send(_ transport.Endpoint, pkt packet.Packet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, pkt)
	return nil
}

func (f *fakeSink) last() packet.Packet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testPeer(t *testing.T) transport.Endpoint {
	t.Helper()
	ep, err := transport.ParseEndpoint("127.0.0.1:9987")
	if err != nil {
		t.Fatalf("ParseEndpoint: %v", err)
	}
	return ep
}

func newTestClient(t *testing.T, queue SendQueue) (*Client, *fakeSink) {
	t.Helper()
	sink := &fakeSink{}
	cfg := DefaultConfig()
	cfg.Limiter = nil // rate limiting would only get in the way of a tight test loop
	cl, err := NewClient(cfg, NopLogger{}, sink, queue)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return cl, sink
}

func reverseBytesForTest(b [4]byte) [4]byte {
	return [4]byte{b[3], b[2], b[1], b[0]}
}

// TestFullHandshakeReachesConnected drives every transition of the
// handshake end to end: Init0/Init1, Init2/Init3, clientinitiv/initivexpand,
// initserver, and finally notifyclientleftview tearing the connection down.
func TestFullHandshakeReachesConnected(t *testing.T) {
	queue := NewMemorySendQueue()
	cl, sink := newTestClient(t, queue)
	peer := testPeer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connectErr := make(chan error, 1)
	go func() { connectErr <- cl.Connect(ctx, peer) }()

	for sink.count() < 1 {
		time.Sleep(time.Millisecond)
	}
	init0, ok := sink.last().Body.(packet.Init0)
	if !ok {
		t.Fatalf("expected Init0, got %#v", sink.last().Body)
	}
	if sink.last().Header.Type != packet.TypeInit || string(sink.last().Header.MAC[:]) != InitHeaderMAC {
		t.Fatalf("Init0 header not per §6: %+v", sink.last().Header)
	}

	// Init1: server echoes random0 reversed plus a fresh random1.
	random0r := reverseBytesForTest(init0.Random0)
	init1 := packet.Packet{Body: packet.Init1{Random1: [16]byte{0xAA}, Random0R: random0r}}
	if _, err := cl.HandleInbound(ctx, peer, init1); err != nil {
		t.Fatalf("HandleInbound(Init1): %v", err)
	}
	if st, _ := cl.State(peer); st != StateInit2 {
		t.Fatalf("state after Init1 = %v, want Init2", st)
	}
	init2, ok := sink.last().Body.(packet.Init2)
	if !ok {
		t.Fatalf("expected Init2, got %#v", sink.last().Body)
	}
	if init2.Random1 != [16]byte{0xAA} || init2.Random0R != random0r {
		t.Fatal("Init2 did not echo random1/random0_r")
	}

	// Init3: puzzle x=2, n=5, level=3 → 2→4→16%5=1→1.
	init3 := packet.Packet{Body: packet.Init3{X: big.NewInt(2), N: big.NewInt(5), Level: 3, Random2: [100]byte{}}}
	if _, err := cl.HandleInbound(ctx, peer, init3); err != nil {
		t.Fatalf("HandleInbound(Init3): %v", err)
	}
	if st, _ := cl.State(peer); st != StateClientInitIv {
		t.Fatalf("state after Init3 = %v, want ClientInitIv", st)
	}
	init4, ok := sink.last().Body.(packet.Init4)
	if !ok {
		t.Fatalf("expected Init4, got %#v", sink.last().Body)
	}
	if y := cryptoops.ArrayToBiguint(init4.Y); y.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("puzzle solution = %s, want 1", y)
	}
	if init4.Command.Name != "clientinitiv" {
		t.Fatalf("Init4 command = %q, want clientinitiv", init4.Command.Name)
	}
	alphaArg, ok := init4.Command.Arg("alpha")
	if !ok {
		t.Fatal("clientinitiv missing alpha")
	}
	if ot, _ := init4.Command.Arg("ot"); ot != "1" {
		t.Fatalf("clientinitiv ot = %q, want 1", ot)
	}

	// clientinitiv/initivexpand: server replies with alpha echo, beta, omega.
	serverKey, err := cryptoops.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	omega, err := cryptoops.ExportECCPublicKey(serverKey.PublicKey())
	if err != nil {
		t.Fatalf("ExportECCPublicKey: %v", err)
	}
	beta := [10]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	expand := packet.NewCommand("initivexpand")
	expand.Push("alpha", alphaArg)
	expand.Push("beta", base64.StdEncoding.EncodeToString(beta[:]))
	expand.Push("omega", base64.StdEncoding.EncodeToString(omega))
	expandPkt := packet.Packet{Body: packet.CommandPacket{Commands: []packet.Command{expand}}}
	if _, err := cl.HandleInbound(ctx, peer, expandPkt); err != nil {
		t.Fatalf("HandleInbound(initivexpand): %v", err)
	}
	if st, _ := cl.State(peer); st != StateConnecting {
		t.Fatalf("state after initivexpand = %v, want Connecting", st)
	}

	select {
	case err := <-connectErr:
		if err != nil {
			t.Fatalf("Connect: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Connect did not resolve once state reached Connecting")
	}

	// initserver: withdraws the clientinit send-queue entry and feeds RTT.
	queue.Push(SendRecord{Type: packet.TypeCommand, ID: 1, Tries: 1, SentAt: time.Now().Add(-50 * time.Millisecond)})
	initserver := packet.NewCommand("initserver")
	initserver.Push("aclid", "42")
	initserverPkt := packet.Packet{Body: packet.CommandPacket{Commands: []packet.Command{initserver}}}
	if _, err := cl.HandleInbound(ctx, peer, initserverPkt); err != nil {
		t.Fatalf("HandleInbound(initserver): %v", err)
	}
	if st, _ := cl.State(peer); st != StateConnected {
		t.Fatalf("state after initserver = %v, want Connected", st)
	}
	if err := cl.WaitUntilConnected(ctx, peer); err != nil {
		t.Fatalf("WaitUntilConnected: %v", err)
	}
	if remaining := queue.Drain(); len(remaining) != 0 {
		t.Fatalf("send queue not drained of clientinit entry: %+v", remaining)
	}
	srtt, err := cl.SRTT(peer)
	if err != nil {
		t.Fatalf("SRTT: %v", err)
	}
	if srtt < 25*time.Millisecond || srtt > 100*time.Millisecond {
		t.Fatalf("SRTT = %s, want roughly 50ms", srtt)
	}

	// notifyclientleftview for our own clid tears the connection down.
	left := packet.NewCommand("notifyclientleftview")
	left.Push("clid", "42")
	leftPkt := packet.Packet{Body: packet.CommandPacket{Commands: []packet.Command{left}}}
	if _, err := cl.HandleInbound(ctx, peer, leftPkt); err != nil {
		t.Fatalf("HandleInbound(notifyclientleftview): %v", err)
	}
	if _, err := cl.State(peer); err != ErrNoConnection {
		t.Fatalf("State after teardown = %v, want ErrNoConnection", err)
	}
}

// TestInit1WrongReversalIsRejected covers the case where Init1 carries
// random0_r equal to random0 unreversed: it must be dropped with no
// transition and no outbound packet. Fixed values (not a live random0)
// keep this deterministic.
func TestInit1WrongReversalIsRejected(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), NopLogger{}, NewMemorySendQueue())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	conn := newConnection(1000000000, [4]byte{0x01, 0x02, 0x03, 0x04})

	bad := packet.Packet{Body: packet.Init1{Random1: [16]byte{0xAA}, Random0R: [4]byte{0x01, 0x02, 0x03, 0x04}}}
	resp, forward, err := engine.OnInbound(context.Background(), conn, "peer", bad)
	if err != nil {
		t.Fatalf("OnInbound: %v", err)
	}
	if resp != nil {
		t.Fatalf("expected no response for an invalid Init1, got %+v", resp)
	}
	if forward {
		t.Fatal("an invalid handshake packet must not be forwarded downstream")
	}
	if conn.State() != StateInit0 {
		t.Fatalf("state = %v, want Init0 unchanged", conn.State())
	}
}

// TestInit1CorrectReversalAdvances checks that a correctly reversed
// random0_r advances to Init2 and echoes random1/random0_r back.
func TestInit1CorrectReversalAdvances(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), NopLogger{}, NewMemorySendQueue())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	conn := newConnection(1000000000, [4]byte{0x01, 0x02, 0x03, 0x04})

	good := packet.Packet{Body: packet.Init1{Random1: [16]byte{0xAA}, Random0R: [4]byte{0x04, 0x03, 0x02, 0x01}}}
	resp, _, err := engine.OnInbound(context.Background(), conn, "peer", good)
	if err != nil {
		t.Fatalf("OnInbound: %v", err)
	}
	if resp == nil {
		t.Fatal("expected an Init2 response")
	}
	init2, ok := resp.Body.(packet.Init2)
	if !ok {
		t.Fatalf("expected Init2, got %#v", resp.Body)
	}
	if init2.Random1 != [16]byte{0xAA} || init2.Random0R != [4]byte{0x04, 0x03, 0x02, 0x01} {
		t.Fatal("Init2 did not echo random1/random0_r")
	}
	if conn.State() != StateInit2 {
		t.Fatalf("state = %v, want Init2", conn.State())
	}
}

// TestInitivexpandBoundaries covers the alpha-mismatch and beta-length
// boundary properties of initivexpand handling.
func TestInitivexpandBoundaries(t *testing.T) {
	advanceToClientInitIv := func(t *testing.T) (*Client, *fakeSink, transport.Endpoint, string) {
		t.Helper()
		queue := NewMemorySendQueue()
		cl, sink := newTestClient(t, queue)
		peer := testPeer(t)
		ctx := context.Background()

		go cl.Connect(ctx, peer)
		for sink.count() < 1 {
			time.Sleep(time.Millisecond)
		}
		init0 := sink.last().Body.(packet.Init0)
		random0r := reverseBytesForTest(init0.Random0)
		cl.HandleInbound(ctx, peer, packet.Packet{Body: packet.Init1{Random1: [16]byte{1}, Random0R: random0r}})
		cl.HandleInbound(ctx, peer, packet.Packet{Body: packet.Init3{X: big.NewInt(2), N: big.NewInt(5), Level: 0, Random2: [100]byte{}}})

		init4 := sink.last().Body.(packet.Init4)
		alphaArg, _ := init4.Command.Arg("alpha")
		return cl, sink, peer, alphaArg
	}

	t.Run("wrong alpha", func(t *testing.T) {
		cl, _, peer, _ := advanceToClientInitIv(t)
		ctx := context.Background()
		serverKey, _ := cryptoops.GenerateKeyPair()
		omega, _ := cryptoops.ExportECCPublicKey(serverKey.PublicKey())
		beta := [10]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		expand := packet.NewCommand("initivexpand")
		expand.Push("alpha", base64.StdEncoding.EncodeToString([]byte("not-the-alpha-we-sent!!")))
		expand.Push("beta", base64.StdEncoding.EncodeToString(beta[:]))
		expand.Push("omega", base64.StdEncoding.EncodeToString(omega))
		cl.HandleInbound(ctx, peer, packet.Packet{Body: packet.CommandPacket{Commands: []packet.Command{expand}}})
		if st, _ := cl.State(peer); st != StateClientInitIv {
			t.Fatalf("state = %v, want ClientInitIv unchanged", st)
		}
	})

	for _, betaLen := range []int{9, 11} {
		betaLen := betaLen
		t.Run(fmt.Sprintf("beta length %d", betaLen), func(t *testing.T) {
			cl, _, peer, alphaArg := advanceToClientInitIv(t)
			ctx := context.Background()
			serverKey, _ := cryptoops.GenerateKeyPair()
			omega, _ := cryptoops.ExportECCPublicKey(serverKey.PublicKey())
			expand := packet.NewCommand("initivexpand")
			expand.Push("alpha", alphaArg)
			expand.Push("beta", base64.StdEncoding.EncodeToString(make([]byte, betaLen)))
			expand.Push("omega", base64.StdEncoding.EncodeToString(omega))
			cl.HandleInbound(ctx, peer, packet.Packet{Body: packet.CommandPacket{Commands: []packet.Command{expand}}})
			if st, _ := cl.State(peer); st != StateClientInitIv {
				t.Fatalf("beta length %d: state = %v, want ClientInitIv unchanged", betaLen, st)
			}
		})
	}
}

// TestConnectedStateForwardsOrdinaryTraffic checks §5's invariant that once
// Connected, only our own notifyclientleftview is consumed by the engine —
// everything else is ordinary post-handshake traffic and must be forwarded.
func TestConnectedStateForwardsOrdinaryTraffic(t *testing.T) {
	queue := NewMemorySendQueue()
	cl, sink := newTestClient(t, queue)
	peer := testPeer(t)
	ctx := context.Background()

	go cl.Connect(ctx, peer)
	for sink.count() < 1 {
		time.Sleep(time.Millisecond)
	}
	init0 := sink.last().Body.(packet.Init0)
	random0r := reverseBytesForTest(init0.Random0)
	cl.HandleInbound(ctx, peer, packet.Packet{Body: packet.Init1{Random1: [16]byte{1}, Random0R: random0r}})
	cl.HandleInbound(ctx, peer, packet.Packet{Body: packet.Init3{X: big.NewInt(2), N: big.NewInt(5), Level: 0, Random2: [100]byte{}}})
	init4 := sink.last().Body.(packet.Init4)
	alphaArg, _ := init4.Command.Arg("alpha")

	serverKey, _ := cryptoops.GenerateKeyPair()
	omega, _ := cryptoops.ExportECCPublicKey(serverKey.PublicKey())
	beta := [10]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	expand := packet.NewCommand("initivexpand")
	expand.Push("alpha", alphaArg)
	expand.Push("beta", base64.StdEncoding.EncodeToString(beta[:]))
	expand.Push("omega", base64.StdEncoding.EncodeToString(omega))
	cl.HandleInbound(ctx, peer, packet.Packet{Body: packet.CommandPacket{Commands: []packet.Command{expand}}})

	initserver := packet.NewCommand("initserver")
	initserver.Push("aclid", "7")
	cl.HandleInbound(ctx, peer, packet.Packet{Body: packet.CommandPacket{Commands: []packet.Command{initserver}}})
	if st, _ := cl.State(peer); st != StateConnected {
		t.Fatalf("state = %v, want Connected", st)
	}

	chat := packet.NewCommand("notifytextmessage")
	chat.Push("msg", "hello")
	forward, err := cl.HandleInbound(ctx, peer, packet.Packet{Body: packet.CommandPacket{Commands: []packet.Command{chat}}})
	if err != nil {
		t.Fatalf("HandleInbound(chat): %v", err)
	}
	if !forward {
		t.Fatal("ordinary post-handshake command was swallowed instead of forwarded")
	}
	if st, _ := cl.State(peer); st != StateConnected {
		t.Fatalf("state changed on ordinary traffic: %v", st)
	}
}
