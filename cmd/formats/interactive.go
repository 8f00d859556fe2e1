package formats

import (
	"fmt"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcformat"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// runBrowser opens the descriptor table in a selectable TUI list.
func runBrowser() error {
	app := tview.NewApplication()

	table := tview.NewTable().SetSelectable(true, false).SetFixed(1, 0)
	for col, title := range []string{"form", "category", "template", "words", "jump", "imm"} {
		table.SetCell(0, col, tview.NewTableCell(title).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}

	for i := range fwcformat.Default.Formats {
		f := &fwcformat.Default.Formats[i]
		row := i + 1

		formColor := tcell.ColorWhite
		category := fmt.Sprint(f.Category)
		if f.Category == fwcformat.CategoryReserved {
			formColor = tcell.ColorGray
			category = "reserved"
		}

		table.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("%03X", f.Form)).SetTextColor(formColor))
		table.SetCell(row, 1, tview.NewTableCell(category))
		table.SetCell(row, 2, tview.NewTableCell(string(f.Template)))
		table.SetCell(row, 3, tview.NewTableCell(fmt.Sprint(f.LengthWords())))
		table.SetCell(row, 4, tview.NewTableCell(fmt.Sprintf("%d@%d", f.JumpSize, f.JumpPos)))
		table.SetCell(row, 5, tview.NewTableCell(fmt.Sprintf("%d@%d", f.ImmSize, f.ImmPos)))
	}

	table.SetDoneFunc(func(key tcell.Key) {
		app.Stop()
	})
	table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	table.SetBorder(true).SetTitle(" instruction formats (q to quit) ")
	return app.SetRoot(table, true).Run()
}
