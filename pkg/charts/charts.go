// Package charts draws race series as line charts with draw2d, as PNG for
// the bot and as SVG for the web.
package charts

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"github.com/llgcode/draw2d/draw2dsvg"
)

const (
	DefaultWidth  = 1200
	DefaultHeight = 675
	margin        = 40
	gridLines     = 5
)

var (
	mu = sync.Mutex{}

	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	gridColor  = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
	axisColor  = color.RGBA{0x44, 0x44, 0x44, 0xff}
)

// Point is one sample. A NaN Y breaks the line. Dashed marks the segment that
// ends on this point.
type Point struct {
	X      float64
	Y      float64
	Dashed bool
}

type Series struct {
	Label  string
	Color  color.RGBA
	Points []Point
}

type Chart struct {
	Width  int
	Height int
	// InvertY puts the smallest values at the top, as in gap charts.
	InvertY bool
	// ZeroLine draws the y=0 axis when it is inside the range.
	ZeroLine bool
	Series   []Series
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (c Chart) size() (float64, float64) {
	w, h := c.Width, c.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return float64(w), float64(h)
}

// Empty reports whether the chart has no drawable point.
func (c Chart) Empty() bool {
	_, ok := c.bounds()
	return !ok
}

func (c Chart) bounds() (bounds, bool) {
	b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	found := false
	for _, s := range c.Series {
		for _, p := range s.Points {
			if !finite(p.X) || !finite(p.Y) {
				continue
			}
			found = true
			b.minX, b.maxX = math.Min(b.minX, p.X), math.Max(b.maxX, p.X)
			b.minY, b.maxY = math.Min(b.minY, p.Y), math.Max(b.maxY, p.Y)
		}
	}
	if !found {
		return b, false
	}
	if b.maxX == b.minX {
		b.minX, b.maxX = b.minX-1, b.maxX+1
	}
	if b.maxY == b.minY {
		b.minY, b.maxY = b.minY-1, b.maxY+1
	}
	pad := (b.maxY - b.minY) * 0.05
	b.minY, b.maxY = b.minY-pad, b.maxY+pad
	return b, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// BuildPNG draws the chart into a PNG file.
func BuildPNG(filePath string, c Chart) error {
	mu.Lock()
	defer mu.Unlock()
	width, height := c.size()

	dest := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	gc := draw2dimg.NewGraphicContext(dest)
	draw(gc, c, width, height)
	return draw2dimg.SaveToPngFile(filePath, dest)
}

// BuildSVG draws the chart into an SVG file.
func BuildSVG(filePath string, c Chart) error {
	mu.Lock()
	defer mu.Unlock()
	width, height := c.size()

	dest := draw2dsvg.NewSvg()
	gc := draw2dsvg.NewGraphicContext(dest)
	draw(gc, c, width, height)
	return draw2dsvg.SaveToSvgFile(filePath, dest)
}

func draw(gc draw2d.GraphicContext, c Chart, width, height float64) {
	gc.SetFillColor(background)
	draw2dkit.Rectangle(gc, 0, 0, width, height)
	gc.Fill()

	b, ok := c.bounds()
	if !ok {
		return
	}
	project := func(p Point) (float64, float64) {
		x := margin + (p.X-b.minX)/(b.maxX-b.minX)*(width-2*margin)
		ratio := (p.Y - b.minY) / (b.maxY - b.minY)
		if !c.InvertY {
			ratio = 1 - ratio
		}
		return x, margin + ratio*(height-2*margin)
	}

	drawGrid(gc, width, height)
	if c.ZeroLine && b.minY < 0 && b.maxY > 0 {
		_, y := project(Point{X: b.minX, Y: 0})
		line(gc, axisColor, 1.5, false, margin, y, width-margin, y)
	}
	for _, s := range c.Series {
		drawSeries(gc, s, project)
	}
}

func drawGrid(gc draw2d.GraphicContext, width, height float64) {
	step := (height - 2*margin) / gridLines
	for i := 0; i <= gridLines; i++ {
		y := margin + float64(i)*step
		line(gc, gridColor, 1, false, margin, y, width-margin, y)
	}
	line(gc, axisColor, 1.5, false, margin, margin, margin, height-margin)
}

func drawSeries(gc draw2d.GraphicContext, s Series, project func(Point) (float64, float64)) {
	var prev *Point
	for i := range s.Points {
		p := s.Points[i]
		if !finite(p.X) || !finite(p.Y) {
			prev = nil
			continue
		}
		if prev != nil {
			x0, y0 := project(*prev)
			x1, y1 := project(p)
			line(gc, s.Color, 3, p.Dashed, x0, y0, x1, y1)
		}
		prev = &s.Points[i]
	}
}

func line(gc draw2d.GraphicContext, stroke color.Color, width float64, dashed bool, x0, y0, x1, y1 float64) {
	gc.Save()
	gc.SetStrokeColor(stroke)
	gc.SetLineWidth(width)
	if dashed {
		gc.SetLineDash([]float64{8, 6}, 0)
	}
	gc.MoveTo(x0, y0)
	gc.LineTo(x1, y1)
	gc.Stroke()
	gc.Restore()
}
