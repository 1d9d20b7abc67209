package sync

import (
	"context"
	"time"
)

// RunPeriodic drains the queue on a fixed interval until ctx is done.
func (p *Processor) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Drain(ctx)
		}
	}
}

// WatchConnectivity polls the network and drains the queue on every
// offline-to-online transition until ctx is done.
func (p *Processor) WatchConnectivity(ctx context.Context, pollEvery time.Duration) {
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	wasOnline := p.network.Online(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			online := p.network.Online(ctx)
			if online && !wasOnline {
				p.log.Info("connectivity restored, draining queue")
				p.Drain(ctx)
			}
			wasOnline = online
		}
	}
}
