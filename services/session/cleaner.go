// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"log/slog"
	"time"
)

// Sweeper removes expired sessions eagerly. The Badger store does not
// need one (entry TTLs handle expiry); the memory store does.
type Sweeper interface {
	Sweep() int
}

// Cleaner drives a Sweeper on a fixed interval.
//
// # Thread Safety
//
// Start and Stop must each be called at most once.
type Cleaner struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewCleaner creates a cleaner. Interval defaults to one minute.
func NewCleaner(sweeper Sweeper, interval time.Duration, logger *slog.Logger) *Cleaner {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins periodic sweeping in a background goroutine.
func (c *Cleaner) Start() {
	go c.run()
}

// Stop halts sweeping and waits for the goroutine to exit.
func (c *Cleaner) Stop() {
	close(c.stop)
	<-c.done
}

func (c *Cleaner) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if removed := c.sweeper.Sweep(); removed > 0 {
				c.logger.Debug("swept expired sessions", "removed", removed)
			}
		}
	}
}
