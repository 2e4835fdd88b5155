package autoresponder

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// lookback is how far behind the last check the unread query reaches. The
// provider's date filter is day-granular, so the overlap costs little and
// covers messages that arrived while the previous cycle ran.
const lookback = 5 * time.Minute

// cycleState carries what the monitor remembers between polling cycles:
// the ids it already handled and the time the unread query starts from.
type cycleState struct {
	processed map[string]bool
	lastCheck time.Time
}

func newCycleState(now time.Time) *cycleState {
	return &cycleState{
		processed: make(map[string]bool),
		lastCheck: now,
	}
}

// processCycle runs one polling cycle: list unread messages since the last
// check, handle each unseen one, and advance the checkpoint. Messages that
// fail are left unmarked so the next cycle retries them.
func (app *App) processCycle(ctx context.Context, state *cycleState) {
	now := time.Now()
	after := state.lastCheck.Add(-lookback)

	ids, err := app.gateway.ListUnread(ctx, after, app.config.MaxPerRun)
	if err != nil {
		if isTransient(err) {
			app.logger.Warnf("failed to list unread messages, will retry: %+v", err)
		} else {
			app.logger.Errorf("failed to list unread messages: %+v", err)
		}
		return
	}

	seen := 0
	responded := 0
	for _, id := range ids {
		if state.processed[id] {
			continue
		}
		seen++
		ok, created := app.processMessage(ctx, id)
		if ok {
			state.processed[id] = true
		}
		if created {
			responded++
		}
	}

	state.lastCheck = now
	app.recordCycle(seen, responded, now)
	app.logger.Infow("cycle complete",
		"listed", len(ids),
		"handled", seen,
		"responded", responded)
}

// processMessage handles a single inbound message end to end. The first
// return value reports whether the message is settled and must not be
// revisited; the second whether a response was actually created.
func (app *App) processMessage(ctx context.Context, id string) (bool, bool) {
	raw, err := app.gateway.GetMessage(ctx, id)
	if err != nil {
		if isTransient(err) {
			app.logger.Warnf("failed to fetch message %s, will retry: %+v", id, err)
		} else {
			app.logger.Errorf("failed to fetch message %s: %+v", id, err)
		}
		return false, false
	}

	msg, err := normalizeMessage(raw)
	if err != nil {
		app.logger.Warnf("failed to normalize message %s, will retry: %+v", id, err)
		return false, false
	}

	verdict := Evaluate(msg, app.rules.Exclusions, app.rules.Rules)
	if !verdict.Matched {
		app.logger.Infow("no rule matched, skipping",
			"id", id,
			"from", msg.From,
			"subject", msg.Subject)
		return true, false
	}

	rendered := app.templates.Render(app.templates.Load(verdict.Template), msg, time.Now())
	response := composeResponse(msg, rendered)

	if app.config.TestMode {
		app.logger.Infow("test mode, would respond",
			"id", id,
			"rule", verdict.RuleName,
			"to", response.To,
			"subject", response.Subject)
		return true, true
	}

	if app.config.DraftMode {
		err = app.gateway.CreateDraft(ctx, response)
	} else {
		err = app.gateway.SendMessage(ctx, response)
	}
	if err != nil {
		app.logger.Errorf("failed to deliver response for message %s: %+v", id, err)
		return false, false
	}

	app.logger.Infow("response created",
		"id", id,
		"rule", verdict.RuleName,
		"to", response.To,
		"draft", app.config.DraftMode)
	return true, true
}

// RunOnce executes a single polling cycle and exits. Meant for cron-style
// invocation and manual runs.
func RunOnce(config *Config) error {
	app, err := newApp(config)
	if err != nil {
		return err
	}
	defer app.Fini()

	app.processCycle(context.Background(), newCycleState(time.Now()))
	return nil
}

// RunContinuously polls the mailbox at the configured interval until the
// process receives an interrupt or termination signal. The status server
// runs alongside for the whole lifetime.
func RunContinuously(config *Config) error {
	app, err := newApp(config)
	if err != nil {
		return err
	}
	defer app.Fini()

	runStatusServer(app)

	interval := time.Duration(config.CheckInterval) * time.Minute
	app.logger.Infow("starting monitor",
		"interval", interval.String(),
		"max-per-run", config.MaxPerRun)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	state := newCycleState(time.Now())
	for {
		app.processCycle(context.Background(), state)

		select {
		case s := <-sig:
			app.logger.Infow("shutting down", "signal", s.String())
			return nil
		case <-time.After(interval):
		}
	}
}
