package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// discoverInterval 周期发现间隔
const discoverInterval = 30 * time.Second

// watchEvents 打印网格事件
func watchEvents(client *meshsync.Client) func() {
	return client.Events().SubscribeAll(func(ev types.MeshEvent) {
		switch e := ev.(type) {
		case types.ConnectionStateChanged:
			fmt.Printf("[连接] %s\n", e.State)
		case types.PeerJoined:
			fmt.Printf("[节点+] %s %s (%s)\n", e.Peer.ID, e.Peer.DisplayName, e.Peer.Status)
		case types.PeerLeft:
			fmt.Printf("[节点-] %s\n", e.Peer.ID)
		case types.MeshDisconnected:
			fmt.Printf("[断开] %s\n", e.Reason)
		default:
			logger.Debug("事件", "kind", ev.Kind())
		}
	})
}

// discoverLoop 周期发现节点，直到 ctx 取消
func discoverLoop(ctx context.Context, client *meshsync.Client) {
	ticker := time.NewTicker(discoverInterval)
	defer ticker.Stop()

	for {
		res, err := client.DiscoverPeers(ctx)
		if err != nil {
			logger.Warn("节点发现失败", "error", err)
		} else {
			logger.Info("节点发现", "source", res.Source, "peers", len(res.Peers), "degraded", res.Degraded)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// serveMetrics 在 addr 上暴露 /metrics
func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("指标服务退出", "error", err)
		}
	}()
	logger.Info("指标已暴露", "addr", addr)
	return srv
}

func shutdownMetrics(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
