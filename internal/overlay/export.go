package overlay

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"gocv.io/x/gocv"
)

// imageToMat converts an RGBA image to a BGR gocv.Mat, one stripe of rows
// per worker.
func imageToMat(img *image.RGBA) gocv.Mat {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)

	numWorkers := runtime.NumCPU()
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		startY := w * rowsPerWorker
		endY := min(startY+rowsPerWorker, height)
		if startY >= height {
			break
		}
		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			for y := yStart; y < yEnd; y++ {
				i := img.PixOffset(b.Min.X, b.Min.Y+y)
				for x := 0; x < width; x++ {
					// OpenCV uses BGR order.
					mat.SetUCharAt(y, x*3+0, img.Pix[i+2])
					mat.SetUCharAt(y, x*3+1, img.Pix[i+1])
					mat.SetUCharAt(y, x*3+2, img.Pix[i])
					i += 4
				}
			}
		}(startY, endY)
	}
	wg.Wait()
	return mat
}

// WriteFile draws the canvas onto base with OpenCV primitives and writes the
// result to path; the format follows the file extension.
func WriteFile(path string, base *image.RGBA, c *Canvas) error {
	mat := imageToMat(base)
	defer mat.Close()

	for _, a := range c.Annotations() {
		from := a.From.Round()
		p := image.Point{X: from.X, Y: from.Y}
		switch a.Shape {
		case ShapeRect:
			to := a.To.Round()
			gocv.Rectangle(&mat, image.Rectangle{Min: p, Max: image.Point{X: to.X - 1, Y: to.Y - 1}}, a.Color, 1)
		case ShapeLine:
			to := a.To.Round()
			gocv.Line(&mat, p, image.Point{X: to.X, Y: to.Y}, a.Color, 1)
		case ShapePoint:
			gocv.Circle(&mat, p, 2, a.Color, -1)
		case ShapeLabel:
			gocv.PutText(&mat, a.Text, p, gocv.FontHersheyPlain, 1.0, a.Color, 1)
		}
	}

	return writeMat(path, mat)
}

// Save writes an already rendered image to path; the format follows the
// file extension.
func Save(path string, img *image.RGBA) error {
	mat := imageToMat(img)
	defer mat.Close()
	return writeMat(path, mat)
}

func writeMat(path string, mat gocv.Mat) error {
	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to write overlay %s", path)
	}
	return nil
}
