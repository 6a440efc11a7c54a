package slam

import (
	"context"
	"sync"
	"time"

	"github.com/edaniels/golog"
	goutils "go.viam.com/utils"

	"github.com/openrover/core/lidar"
)

// OdometrySource supplies the accumulated odometry delta since it was last
// polled. A nil source means no odometry.
type OdometrySource interface {
	Delta() *OdometryDelta
}

// Feeder drives an Engine from a lidar device on a dedicated worker at the
// engine's scan rate.
type Feeder struct {
	engine *Engine
	dev    lidar.Device
	odom   OdometrySource
	logger golog.Logger

	cancelCtx               context.Context
	cancelFunc              func()
	activeBackgroundWorkers sync.WaitGroup
	startOnce               sync.Once
}

// NewFeeder wires a device and an optional odometry source to an engine.
func NewFeeder(engine *Engine, dev lidar.Device, odom OdometrySource, logger golog.Logger) *Feeder {
	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	return &Feeder{
		engine:     engine,
		dev:        dev,
		odom:       odom,
		logger:     logger,
		cancelCtx:  cancelCtx,
		cancelFunc: cancelFunc,
	}
}

// Start launches the worker. Subsequent calls are no-ops.
func (f *Feeder) Start() {
	f.startOnce.Do(func() {
		interval := time.Duration(float64(time.Second) / f.engine.conf.ScanRateHz)
		f.activeBackgroundWorkers.Add(1)
		goutils.ManagedGo(func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				if !goutils.SelectContextOrWaitChan(f.cancelCtx, ticker.C) {
					return
				}
				scan, err := f.dev.Scan(f.cancelCtx)
				if err != nil {
					f.logger.Warnw("lidar scan failed", "error", err)
					continue
				}
				var delta *OdometryDelta
				if f.odom != nil {
					delta = f.odom.Delta()
				}
				f.engine.Update(scan, delta)
			}
		}, f.activeBackgroundWorkers.Done)
	})
}

// Stop halts the worker and waits for it to exit.
func (f *Feeder) Stop() {
	f.cancelFunc()
	f.activeBackgroundWorkers.Wait()
}
