package preprocess

import (
	"image"
	"math"
)

// Canny performs Canny edge detection on a grayscale image with the given
// hysteresis thresholds (0-255). The pipeline is the standard one: Gaussian
// blur, Sobel gradients, non-maximum suppression, then double thresholding
// with edge tracking. Edge pixels are set to 255, everything else to 0.
func Canny(gray *image.Gray, thresholdLow, thresholdHigh float64) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	result := image.NewGray(bounds)
	if width == 0 || height == 0 {
		return result
	}

	plane := make([][]float64, height)
	for y := 0; y < height; y++ {
		plane[y] = make([]float64, width)
		offset := gray.PixOffset(bounds.Min.X, y+bounds.Min.Y)
		for x := 0; x < width; x++ {
			plane[y][x] = float64(gray.Pix[offset+x])
		}
	}

	blurred := gaussianBlur(plane, width, height)

	// Sobel gradients
	magnitude := make([][]float64, height)
	direction := make([][]float64, height)
	sobelX := [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY := [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gx += blurred[py][px] * sobelX[ky+1][kx+1]
					gy += blurred[py][px] * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression thins edges to single-pixel width.
	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			if y == 0 || y == height-1 || x == 0 || x == width-1 {
				continue
			}

			angle := direction[y][x]
			mag := magnitude[y][x]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			default:
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}

	// Double threshold with hysteresis. The val > 0 guard keeps a zero-gradient
	// image (e.g. a solid color with a low derived threshold) edge-free.
	for y := 0; y < height; y++ {
		offset := result.PixOffset(bounds.Min.X, y+bounds.Min.Y)
		for x := 0; x < width; x++ {
			val := suppressed[y][x]
			if val <= 0 || val < thresholdLow {
				continue
			}
			if val >= thresholdHigh {
				result.Pix[offset+x] = 255
				continue
			}
			// Weak edge: keep only when connected to a strong edge.
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					if suppressed[py][px] >= thresholdHigh && suppressed[py][px] > 0 {
						result.Pix[offset+x] = 255
					}
				}
			}
		}
	}

	return result
}

// gaussianBlur applies a 5x5 Gaussian kernel (sigma ~1.4) with replicated
// border values.
func gaussianBlur(plane [][]float64, width, height int) [][]float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	const kernelSum = 273.0

	result := make([][]float64, height)
	for y := 0; y < height; y++ {
		result[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					sum += plane[py][px] * kernel[ky+2][kx+2]
				}
			}
			result[y][x] = sum / kernelSum
		}
	}
	return result
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
