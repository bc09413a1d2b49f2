package output

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Table buffers rows and renders them borderless, left aligned.
type Table struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
}

// NewTable creates a table writing to stdout.
func NewTable(headers ...string) *Table {
	return NewTableWithWriter(os.Stdout, headers...)
}

// NewTableWithWriter creates a table writing to w.
func NewTableWithWriter(w io.Writer, headers ...string) *Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	return &Table{table: table, header: headers}
}

// AddRow appends one row.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len reports the number of buffered rows.
func (t *Table) Len() int { return len(t.rows) }

// Render writes the header and rows.
func (t *Table) Render() error {
	t.table.Header(t.header)
	if err := t.table.Bulk(t.rows); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return t.table.Render()
}

// UsersTable lists members.
func UsersTable(w io.Writer, users []sdk.User) *Table {
	t := NewTableWithWriter(w, "ID", "Username", "Email", "Role")
	for _, u := range users {
		t.AddRow(strconv.Itoa(u.ID), u.Username, u.Email, dash(u.Role))
	}
	return t
}

// EventsTable lists events.
func EventsTable(w io.Writer, events []sdk.Event) *Table {
	t := NewTableWithWriter(w, "ID", "Title", "Date", "Location")
	for _, e := range events {
		t.AddRow(strconv.Itoa(e.ID), e.Title, dash(e.EventDate), dash(e.Location))
	}
	return t
}

// MerchandiseTable lists catalogue items.
func MerchandiseTable(w io.Writer, items []sdk.Merchandise) *Table {
	t := NewTableWithWriter(w, "ID", "Name", "Price", "Stock")
	for _, m := range items {
		t.AddRow(strconv.Itoa(m.ID), m.Name, Money(m.Price), strconv.Itoa(m.Stock))
	}
	return t
}

// OrdersTable lists orders.
func OrdersTable(w io.Writer, orders []sdk.Order) *Table {
	t := NewTableWithWriter(w, "ID", "Customer", "Item", "Total", "Payment", "Status")
	for _, o := range orders {
		customer := "-"
		if o.User != nil {
			customer = o.User.Username
		}
		t.AddRow(strconv.Itoa(o.ID), customer, o.Item(), Money(o.TotalAmount), dash(o.PaymentStatus), dash(o.OrderStatus))
	}
	return t
}

// Money formats an amount in pesos.
func Money(v float64) string {
	return "₱" + strconv.FormatFloat(v, 'f', 2, 64)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ReportDelete prints the outcome of a delete. An optimistic delete the
// server did not confirm is reported as a warning, not a failure.
func ReportDelete(w io.Writer, what string, outcome sdk.DeleteOutcome, err error) error {
	switch {
	case err == nil:
		fmt.Fprintf(w, "Deleted %s %d\n", what, outcome.ID)
		return nil
	case outcome.Optimistic:
		fmt.Fprintf(w, "Removed %s %d locally; the server did not confirm: %v\n", what, outcome.ID, err)
		return nil
	default:
		return err
	}
}
