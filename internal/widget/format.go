package widget

import (
	"math"
	"strconv"
	"strings"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count with the largest unit that keeps the value >= 1,
// rounded to two decimals: 0 -> "0 Bytes", 1536 -> "1.5 KB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	// floor(log_1024(bytes)) without floating point error, clamped to the unit table
	i := 0
	for i < len(sizeUnits)-1 && bytes >= int64(1)<<(10*(i+1)) {
		i++
	}

	value := float64(bytes) / math.Pow(1024, float64(i))
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}

// DownloadName returns the saved filename for a converted file: the original
// name up to its first '.', prefixed with "converted_" and ending in ".pdf".
func DownloadName(original string) string {
	base, _, _ := strings.Cut(original, ".")
	return "converted_" + base + ".pdf"
}

func displayFor(name string, size int64, mimeType string) FileDisplay {
	if mimeType == "" {
		mimeType = UnknownType
	}
	return FileDisplay{
		Name: name,
		Size: FormatFileSize(size),
		Type: mimeType,
	}
}
