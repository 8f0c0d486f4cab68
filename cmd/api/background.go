package main

import (
	"context"
	"time"
)

func (app *application) startWorkers(ctx context.Context) {
	app.every(ctx, "booking reminders", app.config.workers.reminderInterval, app.engine.SendDueReminders)
	app.every(ctx, "availability recompute", app.config.workers.recomputeInterval, app.engine.RecomputeAvailability)
}

// every runs job once immediately and then on each tick until ctx is done.
func (app *application) every(ctx context.Context, name string, interval time.Duration, job func(context.Context) (int, error)) {
	if interval <= 0 {
		app.logger.Infof("%s disabled", name)
		return
	}

	run := func() {
		n, err := job(ctx)
		if err != nil {
			app.logger.Errorf("Error running %s: %v", name, err)
			return
		}
		if n > 0 {
			app.logger.Infof("%s: %d processed at %s", name, n, time.Now().Format(time.RFC1123))
		}
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Run once immediately
		run()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}
