// Package report renders plans for people (Text) and spreadsheets (CSV).
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/eugenenazirov/sidesplit/internal/planner"
	"github.com/eugenenazirov/sidesplit/internal/track"
)

// Summary writes the header block describing a plan.
func Summary(w io.Writer, plan planner.Plan) error {
	ew := &errWriter{w: w}
	ew.printf("Total duration %s\n", track.FormatTime(plan.Total, ":"))
	ew.printf("Side capacity %s\n", track.FormatTime(plan.Capacity, ":"))
	ew.printf("Number of sides %d\n", plan.SideCount)
	ew.printf("Strategy %s, explored %s placements in %s\n",
		plan.Strategy, humanize.Comma(plan.Stats.Nodes), plan.Stats.Elapsed.Round(time.Millisecond))
	if plan.HasSnapshot {
		ew.printf("Load deviation %.2fs\n", plan.Score)
	}
	if plan.Truncated {
		ew.printf("Search stopped at the deadline; the result may not be the most balanced.\n")
	}
	return ew.err
}

// Text writes one block per side: a "Side N - k tracks" heading, one line per
// track and the side total. Plain output lists titles only.
func Text(w io.Writer, plan planner.Plan, plain bool) error {
	ew := &errWriter{w: w}
	ew.printf("\nThe recommended sides are\n")
	for _, side := range plan.Sides {
		ew.printf("%s - %s\n", side.Label, pluralTracks(len(side.Items)))
		for _, t := range side.Items {
			if plain {
				ew.printf("%s\n", t.Title)
				continue
			}
			ew.printf("%s - %s\n", track.FormatTime(t.Seconds, ":"), t.Title)
		}
		ew.printf("%s\n\n", track.FormatTime(side.Seconds, ":"))
	}
	return ew.err
}

// CSV writes one row per track with the header side,position,duration,seconds,title.
func CSV(w io.Writer, plan planner.Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"side", "position", "duration", "seconds", "title"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, side := range plan.Sides {
		for i, t := range side.Items {
			row := []string{
				side.Label,
				strconv.Itoa(i + 1),
				track.FormatTime(t.Seconds, ":"),
				strconv.Itoa(t.Seconds),
				t.Title,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func pluralTracks(n int) string {
	if n == 1 {
		return "1 track"
	}
	return strconv.Itoa(n) + " tracks"
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
