// Package render draws optimization diagnostics for two-dimensional runs:
// a contour image of the objective over the bounds with the recorded
// population overlaid, and an animated GIF of the population trajectory.
// Rendering happens strictly after a run and never feeds back into the
// optimizer; a render failure is recoverable and leaves the result intact.
package render

import (
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"math"

	apperrors "github.com/copyleftdev/FIREFLY/internal/errors"
	"github.com/copyleftdev/FIREFLY/internal/optimization"
)

// Config controls rendering output.
type Config struct {
	// GridSize is the number of objective samples per axis; the output
	// image is GridSize x GridSize pixels.
	GridSize int
	// Levels is the number of quantized contour bands.
	Levels int
	// PointRadius is the marker radius for fireflies, in pixels.
	PointRadius int
	// FrameDelayMS is the delay between animation frames.
	FrameDelayMS int
}

// DefaultConfig returns the standard rendering configuration.
func DefaultConfig() Config {
	return Config{
		GridSize:     200,
		Levels:       30,
		PointRadius:  3,
		FrameDelayMS: 120,
	}
}

// Contour writes a PNG of the objective's filled contour over the bounds,
// with the trajectory of every firefly drawn faintly, the initial
// population in white and the final population in red.
func Contour(w io.Writer, objective optimization.ObjectiveFunction, bounds [][2]float64, snapshots [][][]float64, cfg Config) error {
	field, err := sampleField(objective, bounds, snapshots, cfg)
	if err != nil {
		return err
	}

	img := image.NewNRGBA(image.Rect(0, 0, cfg.GridSize, cfg.GridSize))
	field.paint(img)

	// Faint trajectory segments between consecutive snapshots.
	trail := color.NRGBA{0, 0, 0, 40}
	for t := 1; t < len(snapshots); t++ {
		for i := range snapshots[t] {
			x0, y0 := field.toPixel(snapshots[t-1][i])
			x1, y1 := field.toPixel(snapshots[t][i])
			drawLine(img, x0, y0, x1, y1, trail)
		}
	}

	white := color.NRGBA{255, 255, 255, 255}
	red := color.NRGBA{220, 40, 40, 255}
	for _, p := range snapshots[0] {
		x, y := field.toPixel(p)
		drawDisc(img, x, y, cfg.PointRadius, white)
	}
	for _, p := range snapshots[len(snapshots)-1] {
		x, y := field.toPixel(p)
		drawDisc(img, x, y, cfg.PointRadius, red)
	}

	if err := png.Encode(w, img); err != nil {
		return apperrors.Wrap(err, "encoding contour png").WithComponent("render")
	}
	return nil
}

// Animate writes an animated GIF with one frame per recorded snapshot,
// each drawing the population over the contour background.
func Animate(w io.Writer, objective optimization.ObjectiveFunction, bounds [][2]float64, snapshots [][][]float64, cfg Config) error {
	field, err := sampleField(objective, bounds, snapshots, cfg)
	if err != nil {
		return err
	}

	palette := field.palette()
	redIdx := uint8(len(palette) - 1)

	background := image.NewPaletted(image.Rect(0, 0, cfg.GridSize, cfg.GridSize), palette)
	field.paintPaletted(background)

	anim := &gif.GIF{LoopCount: -1}
	delay := cfg.FrameDelayMS / 10 // GIF delays are in 1/100 s
	if delay < 1 {
		delay = 1
	}

	for _, snap := range snapshots {
		frame := image.NewPaletted(background.Rect, palette)
		copy(frame.Pix, background.Pix)
		for _, p := range snap {
			x, y := field.toPixel(p)
			drawDiscPaletted(frame, x, y, cfg.PointRadius, redIdx)
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}

	if err := gif.EncodeAll(w, anim); err != nil {
		return apperrors.Wrap(err, "encoding animation gif").WithComponent("render")
	}
	return nil
}

// field holds the sampled objective over the bounds with its value range.
type field struct {
	cfg      Config
	bounds   [][2]float64
	values   []float64
	min, max float64
}

func sampleField(objective optimization.ObjectiveFunction, bounds [][2]float64, snapshots [][][]float64, cfg Config) (*field, error) {
	if len(bounds) != 2 {
		return nil, apperrors.Errorf("rendering requires 2 dimensions, got %d", len(bounds)).WithComponent("render")
	}
	if len(snapshots) == 0 {
		return nil, apperrors.New("no position history recorded; run with tracking enabled").WithComponent("render")
	}
	if cfg.GridSize < 2 {
		return nil, apperrors.Errorf("grid size must be at least 2, got %d", cfg.GridSize).WithComponent("render")
	}

	f := &field{
		cfg:    cfg,
		bounds: bounds,
		values: make([]float64, cfg.GridSize*cfg.GridSize),
		min:    math.Inf(1),
		max:    math.Inf(-1),
	}

	point := make([]float64, 2)
	for row := 0; row < cfg.GridSize; row++ {
		for col := 0; col < cfg.GridSize; col++ {
			point[0] = f.coord(0, col)
			point[1] = f.coord(1, cfg.GridSize-1-row)
			v, err := objective(point)
			if err != nil {
				return nil, apperrors.Wrap(err, "sampling objective for contour").WithComponent("render")
			}
			f.values[row*cfg.GridSize+col] = v
			f.min = math.Min(f.min, v)
			f.max = math.Max(f.max, v)
		}
	}
	return f, nil
}

// coord maps a grid index back to objective space along dimension k.
func (f *field) coord(k, idx int) float64 {
	lo, hi := f.bounds[k][0], f.bounds[k][1]
	return lo + (hi-lo)*float64(idx)/float64(f.cfg.GridSize-1)
}

// toPixel maps an objective-space point to image coordinates, with the
// vertical axis flipped so larger x[1] is drawn higher.
func (f *field) toPixel(p []float64) (int, int) {
	size := float64(f.cfg.GridSize - 1)
	nx := (p[0] - f.bounds[0][0]) / (f.bounds[0][1] - f.bounds[0][0])
	ny := (p[1] - f.bounds[1][0]) / (f.bounds[1][1] - f.bounds[1][0])
	return int(math.Round(nx * size)), int(math.Round((1 - ny) * size))
}

// level quantizes a sampled value into one of cfg.Levels bands.
func (f *field) level(v float64) int {
	if f.max == f.min {
		return 0
	}
	l := int(float64(f.cfg.Levels) * (v - f.min) / (f.max - f.min))
	if l >= f.cfg.Levels {
		l = f.cfg.Levels - 1
	}
	return l
}

func (f *field) paint(img *image.NRGBA) {
	for row := 0; row < f.cfg.GridSize; row++ {
		for col := 0; col < f.cfg.GridSize; col++ {
			c := levelColor(f.level(f.values[row*f.cfg.GridSize+col]), f.cfg.Levels)
			img.SetNRGBA(col, row, c)
		}
	}
}

func (f *field) paintPaletted(img *image.Paletted) {
	for row := 0; row < f.cfg.GridSize; row++ {
		for col := 0; col < f.cfg.GridSize; col++ {
			img.SetColorIndex(col, row, uint8(f.level(f.values[row*f.cfg.GridSize+col])))
		}
	}
}

// palette returns one color per contour band followed by the marker red.
func (f *field) palette() color.Palette {
	palette := make(color.Palette, 0, f.cfg.Levels+1)
	for l := 0; l < f.cfg.Levels; l++ {
		palette = append(palette, levelColor(l, f.cfg.Levels))
	}
	palette = append(palette, color.NRGBA{220, 40, 40, 255})
	return palette
}

// Gradient anchors approximating the viridis colormap.
var gradient = [][3]float64{
	{68, 1, 84},
	{59, 82, 139},
	{33, 145, 140},
	{94, 201, 98},
	{253, 231, 37},
}

func levelColor(level, levels int) color.NRGBA {
	t := 0.0
	if levels > 1 {
		t = float64(level) / float64(levels-1)
	}
	pos := t * float64(len(gradient)-1)
	i := int(pos)
	if i >= len(gradient)-1 {
		i = len(gradient) - 2
	}
	frac := pos - float64(i)
	lerp := func(a, b float64) uint8 {
		return uint8(math.Round(a + (b-a)*frac))
	}
	return color.NRGBA{
		R: lerp(gradient[i][0], gradient[i+1][0]),
		G: lerp(gradient[i][1], gradient[i+1][1]),
		B: lerp(gradient[i][2], gradient[i+1][2]),
		A: 255,
	}
}

func drawDisc(img *image.NRGBA, cx, cy, radius int, c color.NRGBA) {
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			if !image.Pt(x, y).In(img.Rect) {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func drawDiscPaletted(img *image.Paletted, cx, cy, radius int, idx uint8) {
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			if !image.Pt(x, y).In(img.Rect) {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.SetColorIndex(x, y, idx)
			}
		}
	}
}

// drawLine alpha-blends a straight segment onto the image.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	steps := int(math.Max(math.Abs(float64(x1-x0)), math.Abs(float64(y1-y0))))
	if steps == 0 {
		steps = 1
	}
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := int(math.Round(float64(x0) + t*float64(x1-x0)))
		y := int(math.Round(float64(y0) + t*float64(y1-y0)))
		if !image.Pt(x, y).In(img.Rect) {
			continue
		}
		blend(img, x, y, c)
	}
}

// blend composites c over the existing pixel using its alpha.
func blend(img *image.NRGBA, x, y int, c color.NRGBA) {
	i := img.PixOffset(x, y)
	a := float64(c.A) / 255
	img.Pix[i+0] = uint8(float64(c.R)*a + float64(img.Pix[i+0])*(1-a))
	img.Pix[i+1] = uint8(float64(c.G)*a + float64(img.Pix[i+1])*(1-a))
	img.Pix[i+2] = uint8(float64(c.B)*a + float64(img.Pix[i+2])*(1-a))
	img.Pix[i+3] = 255
}
