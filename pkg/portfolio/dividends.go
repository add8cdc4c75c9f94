package portfolio

import (
	"sort"
	"time"
)

// Dividend is one cash distribution per share.
type Dividend struct {
	Symbol string    `json:"symbol"`
	ExDate time.Time `json:"ex_date"`
	Rate   float64   `json:"rate"`
}

// CalendarRow is one ticker's monthly income. Amounts aligns with
// DividendCalendar.Months.
type CalendarRow struct {
	Symbol  string    `json:"symbol"`
	Amounts []float64 `json:"amounts"`
	Total   float64   `json:"total"`
}

type DividendCalendar struct {
	Months     []time.Time   `json:"months"`
	Rows       []CalendarRow `json:"rows"`
	GrandTotal CalendarRow   `json:"grand_total"`
}

const GRAND_TOTAL = "Grand Total"

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// TwelveMonthWindow runs from the first day of the month after this month
// last year through the last day of the current month.
func TwelveMonthWindow(today time.Time) (start, end time.Time) {
	first := monthStart(today)
	return first.AddDate(0, -11, 0), first.AddDate(0, 1, -1)
}

// Calendar buckets rate x shares into calendar months between start and end.
// Tickers without any distribution in range get no row.
func Calendar(dividends []Dividend, shares Positions, start, end time.Time) DividendCalendar {
	var cal DividendCalendar
	for m := monthStart(start); !m.After(end); m = m.AddDate(0, 1, 0) {
		cal.Months = append(cal.Months, m)
	}
	index := make(map[time.Time]int, len(cal.Months))
	for i, m := range cal.Months {
		index[m] = i
	}

	rows := make(map[string]*CalendarRow)
	for _, d := range dividends {
		if d.ExDate.Before(start) || d.ExDate.After(end) {
			continue
		}
		i, ok := index[monthStart(d.ExDate)]
		if !ok {
			continue
		}
		row, ok := rows[d.Symbol]
		if !ok {
			row = &CalendarRow{Symbol: d.Symbol, Amounts: make([]float64, len(cal.Months))}
			rows[d.Symbol] = row
		}
		amount := d.Rate * shares[d.Symbol]
		row.Amounts[i] += amount
		row.Total += amount
	}

	cal.GrandTotal = CalendarRow{Symbol: GRAND_TOTAL, Amounts: make([]float64, len(cal.Months))}
	for _, row := range rows {
		cal.Rows = append(cal.Rows, *row)
		for i, a := range row.Amounts {
			cal.GrandTotal.Amounts[i] += a
		}
		cal.GrandTotal.Total += row.Total
	}
	sort.Slice(cal.Rows, func(i, j int) bool { return cal.Rows[i].Symbol < cal.Rows[j].Symbol })
	return cal
}

// DividendsPaid totals rate x shares per ticker for ex-dates after cutoff.
func DividendsPaid(dividends []Dividend, shares Positions, cutoff time.Time) map[string]float64 {
	out := make(map[string]float64)
	for _, d := range dividends {
		if d.ExDate.After(cutoff) {
			out[d.Symbol] += d.Rate * shares[d.Symbol]
		}
	}
	return out
}
