package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	chartBarWidth  = 28
	chartBarGap    = 8
	chartPlotH     = 240
	chartMargin    = 24
	chartLegendH   = 16
	chartMinWidth  = 320
	chartLegendGap = 76
)

var (
	chartBackground = color.RGBA{0x10, 0x12, 0x1a, 0xff}
	chartTextColor  = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
	chartEnemyColor = map[EnemyType]color.RGBA{
		EnemyChaser:  {0xe0, 0x4a, 0x4a, 0xff},
		EnemyShooter: {0xe0, 0xc0, 0x3a, 0xff},
		EnemyTank:    {0x4a, 0x7a, 0xe0, 0xff},
	}
)

// RenderChart draws the per-wave enemy mix as stacked bars, one per wave.
func RenderChart(r SimReport) (*image.RGBA, error) {
	if len(r.Waves) == 0 {
		return nil, fmt.Errorf("chart: report has no waves")
	}
	peak := 1
	for _, w := range r.Waves {
		if w.Enemies > peak {
			peak = w.Enemies
		}
	}

	width := chartMargin*2 + len(r.Waves)*(chartBarWidth+chartBarGap)
	if width < chartMinWidth {
		width = chartMinWidth
	}
	height := chartMargin*2 + chartLegendH + chartPlotH
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(chartBackground), image.Point{}, draw.Src)

	baseline := chartMargin + chartLegendH + chartPlotH
	scale := float64(chartPlotH) / float64(peak)
	for i, w := range r.Waves {
		x := chartMargin + i*(chartBarWidth+chartBarGap)
		y := baseline
		for _, t := range AllEnemyTypes {
			h := int(float64(w.Mix[t.String()])*scale + 0.5)
			if h == 0 {
				continue
			}
			fill(img, image.Rect(x, y-h, x+chartBarWidth, y), chartEnemyColor[t])
			y -= h
		}
		drawLabel(img, x+2, baseline+13, fmt.Sprintf("%d", w.Wave))
	}

	x := chartMargin
	for _, t := range AllEnemyTypes {
		fill(img, image.Rect(x, chartMargin-9, x+9, chartMargin), chartEnemyColor[t])
		drawLabel(img, x+13, chartMargin, t.String())
		x += chartLegendGap
	}
	drawLabel(img, x, chartMargin, fmt.Sprintf("peak %d", peak))
	return img, nil
}

// WriteChart encodes the chart as PNG.
func WriteChart(r SimReport, w io.Writer) error {
	img, err := RenderChart(r)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// SaveChart writes the chart to path.
func SaveChart(r SimReport, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	if err := WriteChart(r, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func drawLabel(dst draw.Image, x, y int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(chartTextColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
