// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"graphwatch/cli/internal/logging"
	"graphwatch/cli/internal/render"
	"graphwatch/cli/internal/session"
	"graphwatch/cli/internal/terminal"
)

const watchTick = 120 * time.Millisecond

// watchCmd keeps a live view of the query result.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show a live view of the query result",
	Long: `The watch command runs the configured query and redraws its result every time the
endpoint publishes a new one. Press Ctrl-C to stop.

Send SIGHUP to re-read the query file and restart the session with the new document.
The previous result stays on screen until the new session publishes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup()
		if err != nil {
			return err
		}

		sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)

		sessCtx, cancelSess := context.WithCancel(cmd.Context())
		defer cancelSess()

		p, err := openPipeline(sessCtx, rt)
		if err != nil {
			pterm.Println(logging.PresentError("Could not reach the endpoint", err))
			return err
		}
		defer p.Close()

		latest := session.NewLatest()
		host := session.NewHost(p.consumer, latest)
		defer host.Unmount()

		v := &liveView{
			host:   host,
			latest: latest,
			state:  render.NewRenderState(),
			poke:   make(chan struct{}, 1),
		}
		p.reporter.OnReport(v.failed)

		if _, err := host.Mount(sessCtx, p.request); err != nil {
			return err
		}

		out, err := v.start()
		if err != nil {
			return err
		}
		defer v.stop()

		ticker := time.NewTicker(watchTick)
		defer ticker.Stop()
		for {
			select {
			case <-sigCtx.Done():
				host.Unmount()
				cancelSess()
				out(v.state.Frame())
				return nil
			case <-latest.Changed():
				out(v.state.Frame())
			case <-v.poke:
				out(v.state.Frame())
			case <-ticker.C:
				out(v.state.Tick())
			case <-hup:
				req, err := rt.cfg.Query.Request()
				if err != nil {
					rt.log.Warn("reload failed, keeping the current session", "error", err)
					continue
				}
				v.clearFailure()
				v.state.Reset()
				if _, err := host.Mount(sessCtx, req); err != nil {
					return err
				}
				rt.log.Debug("query reloaded")
			}
		}
	},
}

// liveView draws frames of the watched result.
type liveView struct {
	host   *session.Host
	latest *session.Latest
	state  *render.RenderState
	area   *pterm.AreaPrinter
	poke   chan struct{}

	mu      sync.Mutex
	failure string
}

// start opens the live area, or falls back to printing each new frame when
// stdout is not a terminal.
func (v *liveView) start() (func(frame string), error) {
	if !terminal.Interactive() {
		return func(string) {
			text := render.Body(v.view())
			if f := v.currentFailure(); f != "" {
				text += "\n" + f
			}
			if text != "" && v.state.Swap(text) {
				pterm.Println(text)
			}
		}, nil
	}

	cursor.Hide()
	area, err := pterm.DefaultArea.Start()
	if err != nil {
		cursor.Show()
		return nil, err
	}
	v.area = area
	return v.draw, nil
}

func (v *liveView) stop() {
	if v.area != nil {
		_ = v.area.Stop()
		cursor.Show()
	}
}

func (v *liveView) draw(frame string) {
	st := render.Status{Failure: v.currentFailure()}
	if s := v.host.Current(); s != nil {
		st.SessionID = s.ID()
		st.Live = s.Live()
	}
	text := v.state.Pad(render.Frame(v.view(), st, frame))
	if v.state.Swap(text) {
		v.area.Update(text)
	}
}

func (v *liveView) view() render.View {
	p, ok := v.latest.Load()
	if !ok {
		return render.View{}
	}
	return render.Build(p)
}

// failed runs on the reporting goroutine; reports of replaced sessions are
// ignored.
func (v *liveView) failed(f logging.Failure) {
	if s := v.host.Current(); s == nil || s.ID() != f.SessionID {
		return
	}
	v.mu.Lock()
	v.failure = logging.FormatStreamError(f.Err)
	v.mu.Unlock()
	select {
	case v.poke <- struct{}{}:
	default:
	}
}

func (v *liveView) currentFailure() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.failure
}

func (v *liveView) clearFailure() {
	v.mu.Lock()
	v.failure = ""
	v.mu.Unlock()
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
