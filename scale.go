package exam2pdf

// Width bands for ScaleDimensions. The thresholds and factors were tuned by
// eye against rendered equation images; keep them literal.
const (
	smallWidth   = 32
	largeWidth   = 200
	bandWidth50  = 50
	bandWidth100 = 100
	bandWidth140 = 140
)

// ScaleDimensions maps an image's pixel size to its display size.
// The width is scaled by a factor chosen from its band:
//
//	w < 32          x1
//	32 <= w < 50    x0.6
//	50 <= w < 100   x0.4
//	100 <= w < 140  x0.3
//	140 <= w < 200  x0.2
//	w >= 200        x0.1
//
// The height follows the original aspect ratio (1 when width is 0).
func ScaleDimensions(width, height float64) (scaledWidth, scaledHeight float64) {
	aspect := 1.0
	if width != 0 {
		aspect = height / width
	}

	switch {
	case width < smallWidth:
		scaledWidth = width
	case width >= largeWidth:
		scaledWidth = width * 0.1
	case width < bandWidth50:
		scaledWidth = width * 0.6
	case width < bandWidth100:
		scaledWidth = width * 0.4
	case width < bandWidth140:
		scaledWidth = width * 0.3
	default:
		scaledWidth = width * 0.2
	}

	return scaledWidth, scaledWidth * aspect
}
