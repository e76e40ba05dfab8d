package converter

import (
	"strconv"
	"strings"
)

// Page sizes understood by the converters.
var PageSizes = []string{"A4", "A3", "A5", "Letter", "Legal"}

const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"

	DefaultPageSize = "A4"
	DefaultQuality  = 95
)

// Options are the per-request conversion settings.
type Options struct {
	PageSize    string
	Orientation string
	Quality     int
}

// DefaultOptions returns A4 portrait at quality 95.
func DefaultOptions() Options {
	return Options{
		PageSize:    DefaultPageSize,
		Orientation: OrientationPortrait,
		Quality:     DefaultQuality,
	}
}

// ParseOptions reads raw form values; unknown or invalid values fall back to defaults.
func ParseOptions(pageSize, orientation, quality string) Options {
	opts := Options{PageSize: pageSize, Orientation: orientation}
	if q, err := strconv.Atoi(strings.TrimSpace(quality)); err == nil {
		opts.Quality = q
	}
	return opts.normalized()
}

func (o Options) normalized() Options {
	size := DefaultPageSize
	for _, s := range PageSizes {
		if strings.EqualFold(o.PageSize, s) {
			size = s
			break
		}
	}
	o.PageSize = size

	if !strings.EqualFold(o.Orientation, OrientationLandscape) {
		o.Orientation = OrientationPortrait
	} else {
		o.Orientation = OrientationLandscape
	}

	if o.Quality < 1 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// orientationCode is the gofpdf orientation argument.
func (o Options) orientationCode() string {
	if o.Orientation == OrientationLandscape {
		return "L"
	}
	return "P"
}
