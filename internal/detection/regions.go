package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/snaptext/internal/imaging"
)

// DefaultMinConfidence drops weak candidates.
const DefaultMinConfidence = 0.3

// edgeThreshold is the gray-level step between neighbors that marks an edge.
const edgeThreshold = 30

// Density outside this band is either blank paper or texture, not print.
const (
	minDensity  = 0.05
	maxDensity  = 0.4
	peakDensity = 0.2
)

// windows approximate one line of very small, small, medium and large text.
var windows = []struct{ w, h int }{
	{80, 25},
	{100, 30},
	{150, 40},
	{200, 50},
}

// TextRegion is an area likely to contain text.
type TextRegion struct {
	imaging.Region
	Confidence float64 `json:"confidence"`
	Area       int     `json:"area"`
}

// Result lists detected regions in reading order (top to bottom, then left
// to right).
type Result struct {
	Regions []TextRegion `json:"regions"`
	Count   int          `json:"count"`
}

// DetectTextRegions finds regions with a text-like edge pattern whose
// confidence is at least minConfidence.
func DetectTextRegions(img image.Image, minConfidence float64) (*Result, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, imaging.ErrEmptyImage
	}
	em := newEdgeMap(imaging.Grayscale(img))

	var candidates []TextRegion
	for _, ws := range windows {
		if ws.w > em.w || ws.h > em.h {
			continue
		}
		for y := 0; y <= em.h-ws.h; y += ws.h / 2 {
			for x := 0; x <= em.w-ws.w; x += ws.w / 2 {
				area := ws.w * ws.h
				density := float64(em.count(x, y, ws.w, ws.h)) / float64(area)
				if density < minDensity || density > maxDensity {
					continue
				}

				confidence := em.horizontalScore(x, y, ws.w, ws.h) * (1.0 - math.Abs(density-peakDensity)/peakDensity)
				confidence = math.Round(confidence*1000) / 1000
				if confidence < minConfidence {
					continue
				}
				candidates = append(candidates, TextRegion{
					Region:     imaging.Region{X1: x, Y1: y, X2: x + ws.w, Y2: y + ws.h},
					Confidence: confidence,
					Area:       area,
				})
			}
		}
	}

	regions := mergeOverlapping(candidates)
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Y1 != regions[j].Y1 {
			return regions[i].Y1 < regions[j].Y1
		}
		return regions[i].X1 < regions[j].X1
	})
	return &Result{Regions: regions, Count: len(regions)}, nil
}

// edgeMap marks pixels whose right or lower neighbor differs by more than
// edgeThreshold. Border pixels are never edges. sums is a summed-area table
// so window counts are O(1).
type edgeMap struct {
	w, h  int
	edges []bool
	sums  []int
}

func newEdgeMap(g *image.Gray) *edgeMap {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	em := &edgeMap{w: w, h: h, edges: make([]bool, w*h), sums: make([]int, (w+1)*(h+1))}

	for y := 1; y < h-1; y++ {
		row := g.Pix[y*g.Stride:]
		below := g.Pix[(y+1)*g.Stride:]
		for x := 1; x < w-1; x++ {
			c := int(row[x])
			if absInt(c-int(row[x+1])) > edgeThreshold || absInt(c-int(below[x])) > edgeThreshold {
				em.edges[y*w+x] = true
			}
		}
	}

	for y := 0; y < h; y++ {
		run := 0
		for x := 0; x < w; x++ {
			if em.edges[y*w+x] {
				run++
			}
			em.sums[(y+1)*(w+1)+x+1] = em.sums[y*(w+1)+x+1] + run
		}
	}
	return em
}

func (em *edgeMap) at(x, y int) bool { return em.edges[y*em.w+x] }

// count returns the number of edge pixels in the w x h window at (x, y).
func (em *edgeMap) count(x, y, w, h int) int {
	s := em.w + 1
	return em.sums[(y+h)*s+x+w] - em.sums[y*s+x+w] - em.sums[(y+h)*s+x] + em.sums[y*s+x]
}

// horizontalScore is the share of edge runs that are horizontal. Lines of
// text break into many short vertical runs and fewer long horizontal ones
// than noise does.
func (em *edgeMap) horizontalScore(x, y, w, h int) float64 {
	horizontal, vertical := 0, 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if em.at(col, row) {
				if !inRun {
					horizontal++
				}
				inRun = true
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if em.at(col, row) {
				if !inRun {
					vertical++
				}
				inRun = true
			} else {
				inRun = false
			}
		}
	}

	if horizontal+vertical == 0 {
		return 0
	}
	return float64(horizontal) / float64(horizontal+vertical)
}

// mergeOverlapping unions overlapping regions until none overlap, keeping
// the highest confidence of each group.
func mergeOverlapping(regions []TextRegion) []TextRegion {
	merged := make([]TextRegion, 0, len(regions))
	for _, r := range regions {
		merged = append(merged, r)
		for changed := true; changed; {
			changed = false
			last := len(merged) - 1
			for i := 0; i < last; i++ {
				if !overlaps(merged[i].Region, merged[last].Region) {
					continue
				}
				merged[i] = union(merged[i], merged[last])
				merged = merged[:last]
				// The grown region may now touch earlier ones; move it to
				// the end and check again.
				merged[i], merged[len(merged)-1] = merged[len(merged)-1], merged[i]
				changed = true
				break
			}
		}
	}
	return merged
}

func overlaps(a, b imaging.Region) bool {
	return a.X1 < b.X2 && a.X2 > b.X1 && a.Y1 < b.Y2 && a.Y2 > b.Y1
}

func union(a, b TextRegion) TextRegion {
	r := imaging.Region{
		X1: min(a.X1, b.X1),
		Y1: min(a.Y1, b.Y1),
		X2: max(a.X2, b.X2),
		Y2: max(a.Y2, b.Y2),
	}
	return TextRegion{
		Region:     r,
		Confidence: math.Max(a.Confidence, b.Confidence),
		Area:       (r.X2 - r.X1) * (r.Y2 - r.Y1),
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
