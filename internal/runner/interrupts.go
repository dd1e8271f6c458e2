package runner

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
)

// relayInterrupts holds SIGINT for the duration of a run so a Ctrl-C does
// not kill the wrapper before its filters have run. With forward set, each
// interrupt is passed on to the tool once it has started; without it the
// tool is expected to get the interrupt from the terminal it shares with
// the wrapper, and a second one would make it abandon its state lock.
func relayInterrupts(forward bool, started <-chan *os.Process) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var proc *os.Process
		for {
			select {
			case <-done:
				return
			case p := <-started:
				proc = p
			case <-sigs:
				if proc == nil {
					select {
					case proc = <-started:
					default:
					}
				}
				if !forward || proc == nil {
					runLog.Info("interrupt_received", slog.Bool("forwarded", false))
					continue
				}
				if err := interrupt(proc); err != nil {
					runLog.Warn("interrupt_forward_failed", slog.String("error", err.Error()))
					continue
				}
				runLog.Info("interrupt_received", slog.Bool("forwarded", true))
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
		wg.Wait()
	}
}
