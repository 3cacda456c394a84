package chart

import (
	"fmt"
	"math"

	"github.com/lockgraph/lockgraph/pkg/graphstore"
	"github.com/lockgraph/lockgraph/pkg/metrics"
)

// RadarAxis is one spoke of the radar chart.
type RadarAxis struct {
	Label string
	Query graphstore.Query
}

// RadarAxes are drawn clockwise from the top.
var RadarAxes = []RadarAxis{
	{"Peer Dependencies", graphstore.TotalPeerDependencies},
	{"Cyclic Dependencies", graphstore.TotalCyclicDependencies},
	{"Transitive Dependencies", graphstore.TotalTransitiveDependencies},
	{"Unused Dependencies", graphstore.UnusedDependencies},
	{"Optional Dependencies", graphstore.TotalOptionalDependencies},
}

// Profile is a table reduced to the radar chart's values.
type Profile struct {
	// Averages holds the mean of each [RadarAxes] metric, in axis order.
	Averages []float64
	// Scores are log10(avg / AvgPackages * 100 + 1), in axis order.
	Scores      []float64
	AvgPackages float64
}

// Average returns the mean of q over rows, 0 for no rows.
func Average(rows []metrics.Row, q graphstore.Query) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		sum += r.Value(q)
	}
	return sum / float64(len(rows))
}

// NewProfile computes the radar values of rows. Scores are 0 when the
// average package count is 0.
func NewProfile(rows []metrics.Row) Profile {
	p := Profile{AvgPackages: Average(rows, graphstore.TotalPackages)}
	for _, axis := range RadarAxes {
		avg := Average(rows, axis.Query)
		score := 0.0
		if p.AvgPackages > 0 {
			score = math.Log10(avg/p.AvgPackages*100 + 1)
		}
		p.Averages = append(p.Averages, avg)
		p.Scores = append(p.Scores, score)
	}
	return p
}

// Radar overlays the profiles of two tables. Each vertex is annotated with
// the raw average it stands for.
func Radar(a, b Series, opts ...Option) []byte {
	cfg := newConfig(720, 760, "Dependency Relationships vs. Total Packages", opts)
	profiles := []Profile{NewProfile(a.Rows), NewProfile(b.Rows)}

	top := 0.0
	for _, pr := range profiles {
		for _, s := range pr.Scores {
			top = math.Max(top, s)
		}
	}
	top += 0.5

	c := newCanvas(cfg.width, cfg.height, cfg.title)
	cx, cy := cfg.width/2, cfg.height/2
	radius := math.Min(cfg.width, cfg.height)/2 - 120

	n := len(RadarAxes)
	at := func(i int, v float64) point {
		theta := 2 * math.Pi * float64(i) / float64(n)
		r := v / top * radius
		return point{cx + r*math.Sin(theta), cy - r*math.Cos(theta)}
	}

	const rings = 4
	for k := 1; k <= rings; k++ {
		ring := make([]point, n)
		for i := range ring {
			ring[i] = at(i, top*float64(k)/rings)
		}
		c.polygon(ring, `fill="none" class="grid"`)
	}
	for i, axis := range RadarAxes {
		end := at(i, top)
		c.line(cx, cy, end.x, end.y, `class="grid"`)
		lp := at(i, top*1.12)
		c.text(lp.x, lp.y+4, axis.Label, anchorFor(lp.x, cx), `class="label"`)
	}

	colors := []string{colorFirst, colorSecond}
	for si, pr := range profiles {
		pts := make([]point, n)
		for i, s := range pr.Scores {
			pts[i] = at(i, s)
		}
		c.polygon(pts, fmt.Sprintf(`fill="%s" fill-opacity="0.25" stroke="%s" stroke-width="2"`, colors[si], colors[si]))
		offset := 0.1 * float64(si+1)
		for i, s := range pr.Scores {
			tp := at(i, s+offset)
			c.text(tp.x, tp.y, fmt.Sprintf("%d", int(pr.Averages[i])), "middle", fmt.Sprintf(`class="tick" style="fill:%s"`, colors[si]))
		}
	}

	boxY := cfg.height - 95
	c.rect(cx-130, boxY, 260, 42, `fill="white" stroke="#1e293b" rx="6"`)
	c.text(cx, boxY+17, fmt.Sprintf("Avg Total Packages (%s): %d", a.Name, int(profiles[0].AvgPackages)), "middle", `class="label"`)
	c.text(cx, boxY+34, fmt.Sprintf("Avg Total Packages (%s): %d", b.Name, int(profiles[1].AvgPackages)), "middle", `class="label"`)

	legend(c, cx-60, cfg.height-30, []legendEntry{
		{label: a.Name, color: colorFirst},
		{label: b.Name, color: colorSecond},
	})
	return c.bytes()
}

func anchorFor(x, cx float64) string {
	switch {
	case math.Abs(x-cx) < 1:
		return "middle"
	case x < cx:
		return "end"
	}
	return "start"
}
