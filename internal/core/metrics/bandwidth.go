package metrics

import "sync/atomic"

// Stats 帧负载流量快照
type Stats struct {
	TotalIn   int64
	TotalOut  int64
	FramesIn  int64
	FramesOut int64
}

// bandwidth 帧负载流量累计
//
// Prometheus 计数器之外保留一份原子累计值，供日志摘要直接读取。
type bandwidth struct {
	totalIn   atomic.Int64
	totalOut  atomic.Int64
	framesIn  atomic.Int64
	framesOut atomic.Int64
}

func (b *bandwidth) logRecv(size int) {
	b.totalIn.Add(int64(size))
	b.framesIn.Add(1)
}

func (b *bandwidth) logSent(size int) {
	b.totalOut.Add(int64(size))
	b.framesOut.Add(1)
}

// Bandwidth 返回累计流量
func (m *Metrics) Bandwidth() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{
		TotalIn:   m.bw.totalIn.Load(),
		TotalOut:  m.bw.totalOut.Load(),
		FramesIn:  m.bw.framesIn.Load(),
		FramesOut: m.bw.framesOut.Load(),
	}
}
