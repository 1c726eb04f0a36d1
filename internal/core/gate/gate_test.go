package gate

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-conngate/internal/core/eventbus"
	"github.com/dep2p/go-conngate/internal/core/pipeline"
	pkgif "github.com/dep2p/go-conngate/pkg/interfaces"
	"github.com/dep2p/go-conngate/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

// fakeConn 可控远程地址的假连接
type fakeConn struct {
	id string

	mu     sync.Mutex
	remote net.Addr

	closed atomic.Bool
}

var _ pkgif.Conn = (*fakeConn)(nil)

func newFakeConn() *fakeConn {
	return &fakeConn{id: "conn-test"}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) LocalAddr() net.Addr { return nil }

func (c *fakeConn) RemoteAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote
}

func (c *fakeConn) setRemote(addr net.Addr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remote = addr
}

func (c *fakeConn) Read(_ []byte) (int, error) { return 0, io.EOF }

func (c *fakeConn) Write(p []byte) (int, error) { return len(p), nil }

func (c *fakeConn) WriteNotify(p []byte) pkgif.PendingWrite {
	w := newFakePending()
	w.complete(nil)
	return w
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *fakeConn) Closed() bool { return c.closed.Load() }

// fakePending 可控完成时机的异步写入
type fakePending struct {
	done chan struct{}
	err  error
	once sync.Once
}

var _ pkgif.PendingWrite = (*fakePending)(nil)

func newFakePending() *fakePending {
	return &fakePending{done: make(chan struct{})}
}

func (p *fakePending) complete(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

func (p *fakePending) Done() <-chan struct{} { return p.done }

func (p *fakePending) Err() error { return p.err }

// recorder 记录收到的事件的下游阶段
type recorder struct {
	registered atomic.Int32
	active     atomic.Int32
	inactive   atomic.Int32
	data       atomic.Int32
}

var _ pkgif.Handler = (*recorder)(nil)

func (r *recorder) HandleRegistered(ctx pkgif.HandlerContext) error {
	r.registered.Add(1)
	return ctx.FireRegistered()
}

func (r *recorder) HandleActive(ctx pkgif.HandlerContext) error {
	r.active.Add(1)
	return ctx.FireActive()
}

func (r *recorder) HandleInactive(ctx pkgif.HandlerContext) error {
	r.inactive.Add(1)
	return ctx.FireInactive()
}

func (r *recorder) HandleData(ctx pkgif.HandlerContext, data []byte) error {
	r.data.Add(1)
	return ctx.FireData(data)
}

// countingPolicy 记录调用次数的策略
type countingPolicy struct {
	mu            sync.Mutex
	acceptCalls   int
	acceptedCalls int
	rejectedCalls int

	admit   bool
	err     error
	pending pkgif.PendingWrite
}

var _ pkgif.Policy[*net.TCPAddr] = (*countingPolicy)(nil)

func (p *countingPolicy) Accept(_ pkgif.HandlerContext, _ *net.TCPAddr) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acceptCalls++
	return p.admit, p.err
}

func (p *countingPolicy) Accepted(_ pkgif.HandlerContext, _ *net.TCPAddr) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acceptedCalls++
}

func (p *countingPolicy) Rejected(_ pkgif.HandlerContext, _ *net.TCPAddr) pkgif.PendingWrite {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejectedCalls++
	return p.pending
}

func (p *countingPolicy) calls() (accept, accepted, rejected int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acceptCalls, p.acceptedCalls, p.rejectedCalls
}

// newTestPipeline 装配 门控 + 记录器 的处理链
func newTestPipeline(t *testing.T, conn pkgif.Conn, g pkgif.Handler) (pkgif.Pipeline, *recorder) {
	t.Helper()
	rec := &recorder{}
	p := pipeline.New(conn)
	p.AddLast("admission", g)
	p.AddLast("recorder", rec)
	return p, rec
}

func testAddr() *net.TCPAddr {
	return &net.TCPAddr{IP: net.IPv4(10, 0, 0, 5), Port: 443}
}

// ============================================================================
//                              构造测试
// ============================================================================

func TestGate_New(t *testing.T) {
	g, err := New[*net.TCPAddr](&countingPolicy{admit: true}, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, g)
}

func TestGate_New_NilPolicy(t *testing.T) {
	_, err := New[*net.TCPAddr](nil, DefaultConfig())
	require.ErrorIs(t, err, ErrNilPolicy)
}

func TestGate_New_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RejectTimeout = -time.Second
	_, err := New[*net.TCPAddr](&countingPolicy{}, cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

// ============================================================================
//                              决策状态机测试
// ============================================================================

// 注册时地址未解析：不做决策，原样转发，保持挂载
func TestGate_RegisteredUnresolved_Defers(t *testing.T) {
	policy := &countingPolicy{admit: true}
	g, err := New[*net.TCPAddr](policy, DefaultConfig())
	require.NoError(t, err)

	conn := newFakeConn()
	p, rec := newTestPipeline(t, conn, g)

	require.NoError(t, p.FireRegistered())

	accept, _, _ := policy.calls()
	assert.Equal(t, 0, accept)
	assert.Equal(t, int32(1), rec.registered.Load())
	assert.Contains(t, p.Names(), "admission")
	assert.False(t, conn.Closed())
}

// 注册时推迟，激活时地址已解析：决策一次并自摘除
func TestGate_DeferredThenActiveAccepts(t *testing.T) {
	policy := &countingPolicy{admit: true}
	g, err := New[*net.TCPAddr](policy, DefaultConfig())
	require.NoError(t, err)

	conn := newFakeConn()
	p, rec := newTestPipeline(t, conn, g)

	require.NoError(t, p.FireRegistered())
	conn.setRemote(testAddr())
	require.NoError(t, p.FireActive())

	accept, accepted, _ := policy.calls()
	assert.Equal(t, 1, accept)
	assert.Equal(t, 1, accepted)
	assert.Equal(t, int32(1), rec.active.Load())
	assert.NotContains(t, p.Names(), "admission")
	assert.False(t, conn.Closed())
}

// 激活时地址仍未解析：致命的契约违反
func TestGate_ActiveUnresolved_Fatal(t *testing.T) {
	policy := &countingPolicy{admit: true}
	g, err := New[*net.TCPAddr](policy, DefaultConfig())
	require.NoError(t, err)

	conn := newFakeConn()
	p, _ := newTestPipeline(t, conn, g)

	err = p.FireActive()
	require.ErrorIs(t, err, ErrAddressUnresolved)

	accept, _, _ := policy.calls()
	assert.Equal(t, 0, accept)
}

// 地址类型不匹配视为未解析
func TestGate_AddressTypeMismatch(t *testing.T) {
	policy := &countingPolicy{admit: true}
	g, err := New[*net.TCPAddr](policy, DefaultConfig())
	require.NoError(t, err)

	conn := newFakeConn()
	conn.setRemote(&net.UDPAddr{IP: net.IPv4(10, 0, 0, 5), Port: 443})
	p, rec := newTestPipeline(t, conn, g)

	// 注册：推迟
	require.NoError(t, p.FireRegistered())
	assert.Equal(t, int32(1), rec.registered.Load())

	// 激活：致命错误
	require.ErrorIs(t, p.FireActive(), ErrAddressUnresolved)

	accept, _, _ := policy.calls()
	assert.Equal(t, 0, accept)
}

// 注册时地址已解析：直接决策
func TestGate_RegisteredResolved_AcceptsAndDetaches(t *testing.T) {
	policy := &countingPolicy{admit: true}
	g, err := New[*net.TCPAddr](policy, DefaultConfig())
	require.NoError(t, err)

	conn := newFakeConn()
	conn.setRemote(testAddr())
	p, rec := newTestPipeline(t, conn, g)

	require.NoError(t, p.FireRegistered())

	accept, accepted, _ := policy.calls()
	assert.Equal(t, 1, accept)
	assert.Equal(t, 1, accepted)
	assert.Equal(t, int32(1), rec.registered.Load())
	assert.NotContains(t, p.Names(), "admission")
	assert.False(t, conn.Closed())

	// 摘除后不再参与：策略不会被第二次评估
	require.NoError(t, p.FireActive())
	accept, _, _ = policy.calls()
	assert.Equal(t, 1, accept)
	assert.Equal(t, int32(1), rec.active.Load())
}

// 拒绝且无响应：立即关闭，信号仍然转发
func TestGate_RejectWithoutResponse_ClosesImmediately(t *testing.T) {
	policy := &countingPolicy{admit: false}
	g, err := New[*net.TCPAddr](policy, DefaultConfig())
	require.NoError(t, err)

	conn := newFakeConn()
	conn.setRemote(&net.TCPAddr{IP: net.IPv4(192, 168, 1, 9), Port: 9000})
	p, rec := newTestPipeline(t, conn, g)

	require.NoError(t, p.FireRegistered())

	_, _, rejected := policy.calls()
	assert.Equal(t, 1, rejected)
	assert.True(t, conn.Closed())
	assert.Equal(t, int32(1), rec.registered.Load())
	assert.NotContains(t, p.Names(), "admission")
}

// 拒绝且有响应：等响应完成再关闭
func TestGate_RejectWithPendingResponse_ClosesAfterCompletion(t *testing.T) {
	pending := newFakePending()
	policy := &countingPolicy{admit: false, pending: pending}
	g, err := New[*net.TCPAddr](policy, DefaultConfig())
	require.NoError(t, err)

	conn := newFakeConn()
	conn.setRemote(testAddr())
	p, rec := newTestPipeline(t, conn, g)

	require.NoError(t, p.FireActive())

	// 响应未完成：连接保持打开
	assert.False(t, conn.Closed())
	assert.Equal(t, int32(1), rec.active.Load())

	pending.complete(nil)
	require.Eventually(t, conn.Closed, time.Second, 10*time.Millisecond)
}

// 响应写入失败：连接仍然关闭，失败不被吞掉
func TestGate_RejectResponseFails_StillCloses(t *testing.T) {
	bus := eventbus.NewBus()
	sub, err := bus.Subscribe(new(types.EvtConnectionRejected))
	require.NoError(t, err)
	defer sub.Close()

	pending := newFakePending()
	policy := &countingPolicy{admit: false, pending: pending}

	cfg := DefaultConfig()
	cfg.Bus = bus
	g, err := New[*net.TCPAddr](policy, cfg)
	require.NoError(t, err)

	conn := newFakeConn()
	conn.setRemote(testAddr())
	p, _ := newTestPipeline(t, conn, g)

	require.NoError(t, p.FireActive())

	writeErr := errors.New("broken pipe")
	pending.complete(writeErr)

	require.Eventually(t, conn.Closed, time.Second, 10*time.Millisecond)

	select {
	case ev := <-sub.Out():
		rej, ok := ev.(types.EvtConnectionRejected)
		require.True(t, ok)
		assert.ErrorIs(t, rej.ResponseErr, writeErr)
		assert.False(t, rej.TimedOut)
	case <-time.After(time.Second):
		t.Fatal("未收到拒绝事件")
	}
}

// 已完成的响应：直接关闭，不再等待
func TestGate_RejectCompletedResponse_ClosesImmediately(t *testing.T) {
	pending := newFakePending()
	pending.complete(nil)
	policy := &countingPolicy{admit: false, pending: pending}
	g, err := New[*net.TCPAddr](policy, DefaultConfig())
	require.NoError(t, err)

	conn := newFakeConn()
	conn.setRemote(testAddr())
	p, _ := newTestPipeline(t, conn, g)

	require.NoError(t, p.FireActive())
	assert.True(t, conn.Closed())
}

// 响应永不完成 + 超时配置：超时后强制关闭
func TestGate_RejectTimeout_ForcesClose(t *testing.T) {
	bus := eventbus.NewBus()
	sub, err := bus.Subscribe(new(types.EvtConnectionRejected))
	require.NoError(t, err)
	defer sub.Close()

	pending := newFakePending() // 永不完成
	policy := &countingPolicy{admit: false, pending: pending}

	cfg := DefaultConfig()
	cfg.RejectTimeout = 50 * time.Millisecond
	cfg.Bus = bus
	g, err := New[*net.TCPAddr](policy, cfg)
	require.NoError(t, err)

	conn := newFakeConn()
	conn.setRemote(testAddr())
	p, _ := newTestPipeline(t, conn, g)

	require.NoError(t, p.FireActive())
	require.Eventually(t, conn.Closed, time.Second, 10*time.Millisecond)

	select {
	case ev := <-sub.Out():
		rej, ok := ev.(types.EvtConnectionRejected)
		require.True(t, ok)
		assert.True(t, rej.TimedOut)
	case <-time.After(time.Second):
		t.Fatal("未收到拒绝事件")
	}
}

// 策略评估失败：错误向上传播，不重试
func TestGate_PolicyError_Propagates(t *testing.T) {
	policyErr := errors.New("rule engine unavailable")
	policy := &countingPolicy{err: policyErr}
	g, err := New[*net.TCPAddr](policy, DefaultConfig())
	require.NoError(t, err)

	conn := newFakeConn()
	conn.setRemote(testAddr())
	p, rec := newTestPipeline(t, conn, g)

	err = p.FireActive()
	require.Error(t, err)

	var pe *PolicyError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, policyErr)

	// 信号仍然转发，连接不关闭（由上层决定处置）
	assert.Equal(t, int32(1), rec.active.Load())
	assert.False(t, conn.Closed())
}

// 准入事件发布
func TestGate_AcceptedEvent(t *testing.T) {
	bus := eventbus.NewBus()
	sub, err := bus.Subscribe(new(types.EvtConnectionAccepted))
	require.NoError(t, err)
	defer sub.Close()

	policy := &countingPolicy{admit: true}
	cfg := DefaultConfig()
	cfg.Bus = bus
	g, err := New[*net.TCPAddr](policy, cfg)
	require.NoError(t, err)

	conn := newFakeConn()
	addr := testAddr()
	conn.setRemote(addr)
	p, _ := newTestPipeline(t, conn, g)

	require.NoError(t, p.FireActive())

	select {
	case ev := <-sub.Out():
		acc, ok := ev.(types.EvtConnectionAccepted)
		require.True(t, ok)
		assert.Equal(t, "conn-test", acc.ConnID)
		assert.Equal(t, addr, acc.Addr)
	case <-time.After(time.Second):
		t.Fatal("未收到准入事件")
	}
}

// 同一个门控实例挂载到多条链：各连接独立决策一次
func TestGate_SharedAcrossConnections(t *testing.T) {
	policy := &countingPolicy{admit: true}
	g, err := New[*net.TCPAddr](policy, DefaultConfig())
	require.NoError(t, err)

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := newFakeConn()
			conn.id = fmt.Sprintf("conn-%d", i)
			conn.setRemote(&net.TCPAddr{IP: net.IPv4(10, 0, 0, byte(i+1)), Port: 443})
			p, _ := newTestPipeline(t, conn, g)
			_ = p.FireRegistered()
			_ = p.FireActive()
		}(i)
	}
	wg.Wait()

	accept, accepted, _ := policy.calls()
	assert.Equal(t, n, accept)
	assert.Equal(t, n, accepted)
}
