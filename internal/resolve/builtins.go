package resolve

import (
	"time"

	"github.com/RoyalIcing/datadown-preview/internal/expression"
)

// ClockBuiltins answers the reserved "now." identifier family from an
// injected clock, keeping resolution a pure function of the snapshot.
func ClockBuiltins(now func() time.Time) Builtins {
	return func(name string) (expression.Value, bool) {
		t := now()
		switch name {
		case "now.seconds":
			return expression.Number(t.Second()), true
		case "now.minute":
			return expression.Number(t.Minute()), true
		case "now.hour":
			return expression.Number(t.Hour()), true
		case "now.day":
			return expression.Number(t.Day()), true
		case "now.month":
			return expression.Number(int(t.Month())), true
		case "now.year":
			return expression.Number(t.Year()), true
		case "now.date.iso":
			return expression.Text(t.Format("2006-01-02")), true
		case "now.time.iso":
			return expression.Text(t.Format("15:04:05")), true
		}
		return nil, false
	}
}
