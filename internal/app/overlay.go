package app

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/session"
)

var (
	colorNose     = color.RGBA{R: 0, G: 220, B: 0, A: 255}
	colorBaseline = color.RGBA{R: 40, G: 120, B: 255, A: 255}
	colorText     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorWarn     = color.RGBA{R: 255, G: 80, B: 60, A: 255}
	colorScroll   = color.RGBA{R: 255, G: 200, B: 0, A: 255}
)

// drawOverlay annotates img with the nose and baseline points, the run
// state, calibration progress and active gesture modes.
func drawOverlay(img *gocv.Mat, res *session.FrameResult) {
	w, h := img.Cols(), img.Rows()

	if res.Baseline != nil {
		gocv.Circle(img, toPixel(res.Baseline.NoseX, res.Baseline.NoseY, w, h), 6, colorBaseline, 2)
	}
	if res.Nose != nil {
		nose := toPixel(res.Nose.X, res.Nose.Y, w, h)
		gocv.Circle(img, nose, 4, colorNose, -1)
		if res.Baseline != nil {
			gocv.Line(img, toPixel(res.Baseline.NoseX, res.Baseline.NoseY, w, h), nose, colorNose, 1)
		}
	}

	label := string(res.State)
	labelColor := colorText
	if !res.FaceDetected && res.State != session.StatePaused {
		label += " (no face)"
		labelColor = colorWarn
	}
	gocv.PutText(img, label, image.Pt(10, 24), gocv.FontHersheySimplex, 0.6, labelColor, 2)

	if c := res.Calibration; c != nil && res.State == session.StateCalibrating && c.Total > 0 {
		bar := image.Rect(10, h-24, w-10, h-12)
		gocv.Rectangle(img, bar, colorText, 1)
		filled := bar
		filled.Max.X = bar.Min.X + (bar.Dx()*c.Count)/c.Total
		gocv.Rectangle(img, filled, colorNose, -1)
		gocv.PutText(img, fmt.Sprintf("%d/%d", c.Count, c.Total), image.Pt(10, h-30), gocv.FontHersheySimplex, 0.5, colorText, 1)
	}

	y := 48
	if res.ScrollMode {
		gocv.PutText(img, "scroll "+string(res.Gaze), image.Pt(10, y), gocv.FontHersheySimplex, 0.5, colorScroll, 1)
		y += 20
	}
	if res.MouthOpen {
		gocv.PutText(img, fmt.Sprintf("mouth open x%d", res.OpenCount), image.Pt(10, y), gocv.FontHersheySimplex, 0.5, colorText, 1)
		y += 20
	}
	if res.KeyboardVisible {
		gocv.PutText(img, "keyboard", image.Pt(10, y), gocv.FontHersheySimplex, 0.5, colorText, 1)
	}
}

func toPixel(x, y float64, w, h int) image.Point {
	return image.Pt(int(x*float64(w)), int(y*float64(h)))
}
