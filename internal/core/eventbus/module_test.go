package eventbus

import (
	"context"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// ============================================================================
// Fx 模块测试
// ============================================================================

// TestModule_Load 测试 Fx 模块加载
func TestModule_Load(t *testing.T) {
	var loadedBus pkgif.EventBus

	app := fx.New(
		Module(),
		fx.NopLogger,
		fx.Invoke(func(bus pkgif.EventBus) {
			loadedBus = bus
		}),
	)

	ctx := context.Background()

	if err := app.Start(ctx); err != nil {
		t.Fatalf("app.Start() failed: %v", err)
	}

	if loadedBus == nil {
		t.Fatal("EventBus not injected by Fx")
	}

	if err := app.Stop(ctx); err != nil {
		t.Errorf("app.Stop() failed: %v", err)
	}

	// 停止后总线已关闭
	calls := 0
	loadedBus.SubscribeAll(func(types.MeshEvent) { calls++ })
	loadedBus.Publish(types.PeerJoined{})
	if calls != 0 {
		t.Errorf("bus still delivering after stop")
	}
}

// TestModule_Observer 测试可选观察者注入
func TestModule_Observer(t *testing.T) {
	obs := newCountingObserver()
	var bus pkgif.EventBus

	app := fxtest.New(t,
		Module(),
		fx.Provide(func() Observer { return obs }),
		fx.Populate(&bus),
	)
	app.RequireStart()
	defer app.RequireStop()

	bus.Publish(types.PeerJoined{})
	if obs.published[types.EventPeerJoined] != 1 {
		t.Errorf("observer not wired: %+v", obs.published)
	}
}
