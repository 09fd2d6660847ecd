// Package monitorui implements the Monitor TUI (SPEC_FULL.md §4.12): a
// read-only live view of the process table, polling the control socket's
// status verb. It never mutates the process table — every refresh is a new
// independent connection asking a question, never a directive.
//
// Grounded on build/ui_ncurses.go's tview.Flex + tcell.EventKey pattern for
// the interactive view, generalized from a build-progress layout to a
// process-table layout.
package monitorui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"isd/control"
)

// pollInterval is how often the view re-queries the daemon, matching the
// teacher's 1Hz build-stats refresh rate.
const pollInterval = 1 * time.Second

// Monitor polls socketPath for a status snapshot and renders it.
type Monitor struct {
	SocketPath string
}

// New constructs a Monitor against socketPath.
func New(socketPath string) *Monitor {
	return &Monitor{SocketPath: socketPath}
}

// RunTUI starts the interactive tview table view. It blocks until the user
// quits (q or Ctrl+C) or the application errors out.
func (m *Monitor) RunTUI() error {
	app := tview.NewApplication()

	table := tview.NewTable().SetBorders(false).SetFixed(1, 0)
	table.SetBorder(true).SetTitle(" isd monitor ").SetTitleAlign(tview.AlignLeft)
	setHeaderRow(table)

	status := tview.NewTextView().SetDynamicColors(true)
	status.SetText("[yellow]connecting...[white]")

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(table, 0, 1, false).
		AddItem(status, 1, 0, false)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			app.Stop()
			return nil
		}
		if event.Key() == tcell.KeyRune && (event.Rune() == 'q' || event.Rune() == 'Q') {
			app.Stop()
			return nil
		}
		return event
	})

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			m.refresh(app, table, status)
			select {
			case <-ticker.C:
			case <-stop:
				return
			}
		}
	}()

	err := app.SetRoot(layout, true).EnableMouse(true).Run()
	close(stop)
	return err
}

func (m *Monitor) refresh(app *tview.Application, table *tview.Table, status *tview.TextView) {
	lines, err := control.QueryStatus(m.SocketPath)
	app.QueueUpdateDraw(func() {
		if err != nil {
			status.SetText(fmt.Sprintf("[red]no daemon on %s: %v[white]", m.SocketPath, err))
			return
		}
		renderRows(table, lines)
		status.SetText(fmt.Sprintf("[green]%d tags[white] — last refresh %s", len(lines), time.Now().Format("15:04:05")))
	})
}

func setHeaderRow(table *tview.Table) {
	for col, title := range []string{"TAG", "GROUP", "MODE", "PID", "UPTIME"} {
		table.SetCell(0, col, tview.NewTableCell(title).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}
}

func renderRows(table *tview.Table, lines []string) {
	for row := table.GetRowCount() - 1; row > 0; row-- {
		table.RemoveRow(row)
	}
	for i, line := range lines {
		fields := strings.Fields(line)
		for len(fields) < 5 {
			fields = append(fields, "")
		}
		for col, v := range fields[:5] {
			table.SetCell(i+1, col, tview.NewTableCell(v))
		}
	}
}

// RunPlain is the non-interactive fallback for when stdout is not a
// terminal: it polls once per pollInterval and prints a plain snapshot,
// until the caller's stop channel closes.
func RunPlain(socketPath string, out io.Writer, stop <-chan struct{}) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		lines, err := control.QueryStatus(socketPath)
		if err != nil {
			fmt.Fprintf(out, "no daemon on %s: %v\n", socketPath, err)
		} else {
			fmt.Fprintf(out, "--- %s ---\n", time.Now().Format(time.RFC3339))
			fmt.Fprintln(out, "TAG\tGROUP\tMODE\tPID\tUPTIME")
			for _, line := range lines {
				fmt.Fprintln(out, strings.Join(strings.Fields(line), "\t"))
			}
		}

		select {
		case <-ticker.C:
		case <-stop:
			return nil
		}
	}
}
