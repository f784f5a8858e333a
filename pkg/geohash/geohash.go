// Package geohash implements the geohash geocell codec: a latitude/longitude
// pair encoded as an interleaved-bit string, in either the standard base-32
// alphabet or a raw binary bitstring.
package geohash

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Format selects the textual representation of a geohash.
type Format string

const (
	// Base32 encodes 5 interleaved bits per character using the standard
	// geohash alphabet, most-significant bit first.
	Base32 Format = "base32"
	// Binary emits the raw interleaved bitstring as '0'/'1' characters.
	Binary Format = "binary"
)

// alphabet is the standard 32-symbol geohash alphabet.
const alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// Codec failure modes. The record transformer downgrades all of these to a
// per-record outcome; nothing here terminates a batch.
var (
	ErrInvalidCoordinate = eris.New("geohash: coordinate out of range")
	ErrInvalidPrecision  = eris.New("geohash: precision must be >= 1")
	ErrInvalidCharacter  = eris.New("geohash: character outside alphabet")
	ErrEmptyGeohash      = eris.New("geohash: empty input")
)

// Encode converts a coordinate pair into a geohash string. Bits are produced
// by bisecting each coordinate's valid range, longitude taking the even bit
// positions. For Binary the precision is the exact bit count; for Base32 it
// is the number of output characters (5 bits each).
func Encode(lat, lon float64, precision int, format Format) (string, error) {
	if precision < 1 {
		return "", eris.Wrapf(ErrInvalidPrecision, "got %d", precision)
	}
	if err := validate(lat, lon); err != nil {
		return "", err
	}

	bitCount := precision
	if format == Base32 {
		bitCount = precision * 5
	}

	latRange := interval{-90, 90}
	lonRange := interval{-180, 180}
	bits := make([]byte, bitCount)
	for i := range bits {
		r, v := &lonRange, lon
		if i%2 == 1 {
			r, v = &latRange, lat
		}
		mid := r.mid()
		if v >= mid {
			bits[i] = 1
			r.lo = mid
		} else {
			r.hi = mid
		}
	}

	if format == Binary {
		var sb strings.Builder
		sb.Grow(len(bits))
		for _, b := range bits {
			sb.WriteByte('0' + b)
		}
		return sb.String(), nil
	}

	var sb strings.Builder
	sb.Grow(precision)
	for i := 0; i < len(bits); i += 5 {
		var idx int
		for j := 0; j < 5; j++ {
			idx <<= 1
			// A short final group is padded with zero bits.
			if i+j < len(bits) {
				idx |= int(bits[i+j])
			}
		}
		sb.WriteByte(alphabet[idx])
	}
	return sb.String(), nil
}

// Decode returns the center point of the cell named by hash, replaying the
// bisection that produced it.
func Decode(hash string, format Format) (lat, lon float64, err error) {
	latRange, lonRange, err := decodeRanges(hash, format)
	if err != nil {
		return 0, 0, err
	}
	return latRange.mid(), lonRange.mid(), nil
}

// DecodeBounds returns the full bounding box of the cell named by hash as a
// go-geom Bounds in XY (lon/lat) order. Decode returns its center.
func DecodeBounds(hash string, format Format) (*geom.Bounds, error) {
	latRange, lonRange, err := decodeRanges(hash, format)
	if err != nil {
		return nil, err
	}
	return geom.NewBounds(geom.XY).Set(lonRange.lo, latRange.lo, lonRange.hi, latRange.hi), nil
}

// interval is a half-open coordinate range narrowed during bisection.
type interval struct {
	lo, hi float64
}

func (iv *interval) mid() float64 { return (iv.lo + iv.hi) / 2 }

func validate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return eris.Wrapf(ErrInvalidCoordinate, "latitude %v", lat)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return eris.Wrapf(ErrInvalidCoordinate, "longitude %v", lon)
	}
	return nil
}

func decodeRanges(hash string, format Format) (latRange, lonRange interval, err error) {
	latRange = interval{-90, 90}
	lonRange = interval{-180, 180}
	if hash == "" {
		return latRange, lonRange, ErrEmptyGeohash
	}

	bits, err := expand(hash, format)
	if err != nil {
		return latRange, lonRange, err
	}

	for i, b := range bits {
		r := &lonRange
		if i%2 == 1 {
			r = &latRange
		}
		mid := r.mid()
		if b == 1 {
			r.lo = mid
		} else {
			r.hi = mid
		}
	}
	return latRange, lonRange, nil
}

// expand converts a geohash string into its interleaved bit sequence.
func expand(hash string, format Format) ([]byte, error) {
	if format == Binary {
		bits := make([]byte, 0, len(hash))
		for _, c := range hash {
			switch c {
			case '0':
				bits = append(bits, 0)
			case '1':
				bits = append(bits, 1)
			default:
				return nil, eris.Wrapf(ErrInvalidCharacter, "%q in binary geohash", c)
			}
		}
		return bits, nil
	}

	bits := make([]byte, 0, len(hash)*5)
	for _, c := range hash {
		if c > 127 {
			return nil, eris.Wrapf(ErrInvalidCharacter, "%q", c)
		}
		idx := strings.IndexByte(alphabet, byte(c))
		if idx < 0 {
			return nil, eris.Wrapf(ErrInvalidCharacter, "%q", c)
		}
		for shift := 4; shift >= 0; shift-- {
			bits = append(bits, byte(idx>>shift)&1)
		}
	}
	return bits, nil
}
