package export

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/satwerk/gravsim/internal/rangestore"
)

var csvHeader = []string{"agent", "start_time", "end_time", "x", "y", "vx", "vy", "time", "timeStep"}

// WriteCSV flattens doc into one row per record, agents in name order,
// records in time order.
func WriteCSV(w io.Writer, doc rangestore.Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, rec := range doc[name] {
			row := []string{
				name,
				fmtFloat(rec.Start), fmtFloat(rec.End),
				fmtFloat(rec.State.X), fmtFloat(rec.State.Y),
				fmtFloat(rec.State.VX), fmtFloat(rec.State.VY),
				fmtFloat(rec.State.Time), fmtFloat(rec.State.TimeStep),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
