package backgroundworkers

import (
	"sync"

	"github.com/meeow/eventbot/common"
)

var logger = common.GetFixedPrefixLogger("bgworkers")

// BackgroundWorkerPlugin is implemented by plugins running their own loops
// outside the command handling path
type BackgroundWorkerPlugin interface {
	RunBackgroundWorker()
	StopBackgroundWorker(wg *sync.WaitGroup)
}

func RunWorkers() {
	for _, p := range common.Plugins {
		if bwc, ok := p.(BackgroundWorkerPlugin); ok {
			logger.Info("Running background worker: ", p.PluginInfo().Name)
			go bwc.RunBackgroundWorker()
		}
	}
}

func StopWorkers(wg *sync.WaitGroup) {
	for _, p := range common.Plugins {
		if bwc, ok := p.(BackgroundWorkerPlugin); ok {
			logger.Info("Stopping background worker: ", p.PluginInfo().Name)
			wg.Add(1)
			go bwc.StopBackgroundWorker(wg)
		}
	}
}
