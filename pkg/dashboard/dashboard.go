// Package dashboard renders the session as terminal output: one card
// per location, an optional time-converter panel, and search-result
// tables. Rendering only reads state; every user action goes through
// the session's mutators.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/tzdash/tzdash/pkg/directory"
	"github.com/tzdash/tzdash/pkg/session"
	"github.com/tzdash/tzdash/pkg/tztime"
)

const (
	clearScreen = "\033[2J"
	cursorHome  = "\033[H"

	cardWidth = 56
)

type palette struct {
	title   *color.Color
	clock   *color.Color
	accent  *color.Color
	dim     *color.Color
	weather *color.Color
}

func themePalette(dark bool) palette {
	if dark {
		return palette{
			title:   color.New(color.FgHiCyan, color.Bold),
			clock:   color.New(color.FgHiWhite, color.Bold),
			accent:  color.New(color.FgHiYellow),
			dim:     color.New(color.FgHiBlack),
			weather: color.New(color.FgHiBlue),
		}
	}
	return palette{
		title:   color.New(color.FgCyan, color.Bold),
		clock:   color.New(color.Bold),
		accent:  color.New(color.FgYellow),
		dim:     color.New(color.Faint),
		weather: color.New(color.FgBlue),
	}
}

// RenderCards writes one card per session location. The first card is
// the primary location; secondary cards carry their time difference
// relative to it.
func RenderCards(w io.Writer, s *session.Session) {
	locations := s.Locations()
	if len(locations) == 0 {
		fmt.Fprintln(w, "Locating you...")
		return
	}

	p := themePalette(s.DarkMode())
	now := s.Now()
	refTZ := locations[0].Timezone

	for _, loc := range locations {
		renderCard(w, p, loc, now, refTZ)
		fmt.Fprintln(w)
	}
}

func renderCard(w io.Writer, p palette, loc session.Location, now time.Time, refTZ string) {
	ft := tztime.FormatInstant(now, loc.Timezone)

	glyph := "☾"
	if tztime.IsDaytime(now, loc.Timezone) {
		glyph = "☀"
	}

	header := fmt.Sprintf("%s %s, %s (%s)", glyph, loc.Name, loc.Country, loc.CountryCode)
	p.title.Fprint(w, header)
	if loc.IsPrimary {
		p.dim.Fprint(w, "  [primary]")
	}
	fmt.Fprintln(w)

	p.clock.Fprintf(w, "  %s", ft.Time)
	p.dim.Fprintf(w, "  %s\n", ft.Date)

	p.dim.Fprintf(w, "  %s · %s · UTC%s\n", ft.Time24, ft.DateISO, ft.Offset)

	if !loc.IsPrimary {
		diff := tztime.TimeDifferenceLabel(now, refTZ, loc.Timezone)
		label := tztime.DayLabel(now, loc.Timezone, refTZ)
		if label != "" {
			p.accent.Fprintf(w, "  %s · %s\n", diff, label)
		} else {
			p.accent.Fprintf(w, "  %s\n", diff)
		}
	}

	if loc.Weather != nil {
		p.weather.Fprintf(w, "  %d°C %s (%s)\n",
			loc.Weather.TemperatureCelsius, loc.Weather.Condition, loc.Weather.Description)
	}
}

// RenderConverter writes the time-converter panel: the session's
// reference instant projected into every location's zone.
func RenderConverter(w io.Writer, s *session.Session) {
	locations := s.Locations()
	if len(locations) == 0 {
		return
	}

	p := themePalette(s.DarkMode())
	now := s.Now()
	refTZ := locations[0].Timezone
	ref := tztime.FormatInstant(now, refTZ)

	p.title.Fprintf(w, "Time converter")
	p.dim.Fprintf(w, "  reference %s %s in %s\n", ref.DateISO, ref.Time24, locations[0].Name)

	for _, loc := range locations {
		ft := tztime.FormatInstant(now, loc.Timezone)
		fmt.Fprintf(w, "  %-16s", loc.Name)
		p.clock.Fprintf(w, "%s", ft.Time24)
		p.dim.Fprintf(w, "  %s  UTC%s", ft.DateISO, ft.Offset)
		if label := tztime.DayLabel(now, loc.Timezone, refTZ); label != "" && label != "Same day" {
			p.accent.Fprintf(w, "  %s", label)
		}
		fmt.Fprintln(w)
	}
}

// RenderSearchResults writes directory search results as a table.
func RenderSearchResults(w io.Writer, places []directory.Place) {
	if len(places) == 0 {
		fmt.Fprintln(w, "No matching places.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Country", "Timezone", "Lat", "Lon"})
	table.SetBorder(false)
	table.SetColumnSeparator("  ")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	for _, p := range places {
		table.Append([]string{
			p.Name,
			p.Country,
			p.Timezone,
			fmt.Sprintf("%.4f", p.Lat),
			fmt.Sprintf("%.4f", p.Lon),
		})
	}
	table.Render()
}

// Run drives the live dashboard: a full re-render every second until
// the context is cancelled. Rendering never blocks on providers; the
// session's state is whatever the last fetch left behind.
func Run(ctx context.Context, s *session.Session) {
	render := func() {
		fmt.Fprint(os.Stdout, clearScreen+cursorHome)
		RenderCards(os.Stdout, s)
		if s.CustomInstantSet() {
			RenderConverter(os.Stdout, s)
			fmt.Fprintln(os.Stdout)
		}
		dim := themePalette(s.DarkMode()).dim
		dim.Fprintln(os.Stdout, strings.Repeat("─", cardWidth))
		dim.Fprintln(os.Stdout, "Ctrl+C to exit")
	}

	render()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stdout)
			return
		case <-ticker.C:
			render()
		}
	}
}
