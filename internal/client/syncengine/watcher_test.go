package syncengine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	mu  sync.Mutex
	err error
}

func (p *fakePinger) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func TestWatcher_Transitions(t *testing.T) {
	p := &fakePinger{err: errors.New("down")}
	w := NewWatcher(p, time.Hour, logging.Nop())

	var changes []bool
	w.OnChange(func(online bool) { changes = append(changes, online) })
	ctx := context.Background()

	assert.False(t, w.Check(ctx))
	assert.Empty(t, changes, "starting offline and staying offline is not a change")

	p.set(nil)
	assert.True(t, w.Check(ctx))
	assert.True(t, w.Check(ctx))
	p.set(errors.New("down again"))
	assert.False(t, w.Check(ctx))

	assert.Equal(t, []bool{true, false}, changes)
	assert.False(t, w.Online())
}

func TestWatcher_ReconnectTriggersSync(t *testing.T) {
	p := &fakePinger{err: errors.New("down")}
	w := NewWatcher(p, 5*time.Millisecond, logging.Nop())

	o := newFakeOutbox("e1")
	e := New(o, logging.Nop(), WithAdapter(&fakeAdapter{auth: true}), WithConnectivity(w.Online), WithInterval(time.Hour))
	w.OnReconnect(e)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)
	go w.Run(ctx)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, o.syncedIDs())

	p.set(nil)
	require.Eventually(t, func() bool { return len(o.syncedIDs()) == 1 }, time.Second, 5*time.Millisecond)
}
