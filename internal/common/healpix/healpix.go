// Package healpix implements the parts of the HEALPix sphere pixelization needed to partition a
// sky survey: angle to pixel lookups, pixel centres and conversion between the RING and NESTED
// numbering schemes.
//
// Angles are colatitude theta in [0, pi] and longitude phi in radians. Helpers taking degrees use
// the astronomical (lon, lat) convention.
package healpix

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// MaxOrder is the deepest resolution for which pixel numbers fit in an int64.
const MaxOrder = 29

type Ordering int

const (
	Ring Ordering = iota
	Nested
)

func (o Ordering) String() string {
	switch o {
	case Ring:
		return "ring"
	case Nested:
		return "nested"
	default:
		return fmt.Sprintf("Ordering(%d)", int(o))
	}
}

func (o Ordering) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Ordering) UnmarshalText(text []byte) error {
	parsed, err := ParseOrdering(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOrdering accepts "ring", "nest" and "nested" in any case.
func ParseOrdering(s string) (Ordering, error) {
	switch lower(s) {
	case "ring", "":
		return Ring, nil
	case "nest", "nested":
		return Nested, nil
	default:
		return Ring, errors.Errorf("unknown healpix ordering %q", s)
	}
}

var (
	jrll = [12]int64{2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4}
	jpll = [12]int64{1, 3, 5, 7, 0, 2, 4, 6, 1, 3, 5, 7}
)

// Base holds the derived constants of one resolution.
type Base struct {
	nside  int64
	order  uint
	npface int64
	ncap   int64
	npix   int64
	fact1  float64
	fact2  float64
}

// NewBase returns the pixelization for nside. nside must be a power of two no larger than 2^MaxOrder.
func NewBase(nside int64) (*Base, error) {
	order, err := OrderOf(nside)
	if err != nil {
		return nil, err
	}
	npix := 12 * nside * nside
	fact2 := 4.0 / float64(npix)
	return &Base{
		nside:  nside,
		order:  order,
		npface: nside * nside,
		ncap:   2 * nside * (nside - 1),
		npix:   npix,
		fact1:  float64(2*nside) * fact2,
		fact2:  fact2,
	}, nil
}

// OrderOf returns log2(nside), failing unless nside is a power of two in range.
func OrderOf(nside int64) (uint, error) {
	if nside <= 0 || nside&(nside-1) != 0 {
		return 0, errors.Errorf("nside %d is not a positive power of two", nside)
	}
	var order uint
	for n := nside; n > 1; n >>= 1 {
		order++
	}
	if order > MaxOrder {
		return 0, errors.Errorf("nside %d exceeds maximum 2^%d", nside, MaxOrder)
	}
	return order, nil
}

func (b *Base) Nside() int64 { return b.nside }
func (b *Base) Order() uint  { return b.order }
func (b *Base) Npix() int64  { return b.npix }

// Npix returns the number of pixels covering the sphere at nside.
func Npix(nside int64) int64 {
	return 12 * nside * nside
}

// Ang2Pix returns the pixel containing (theta, phi) in the given ordering.
func (b *Base) Ang2Pix(theta, phi float64, ordering Ordering) int64 {
	z := math.Cos(theta)
	if ordering == Nested {
		return b.loc2nest(z, phi)
	}
	return b.loc2ring(z, phi)
}

// Pix2Ang returns the centre (theta, phi) of pix in the given ordering.
func (b *Base) Pix2Ang(pix int64, ordering Ordering) (float64, float64) {
	var z, phi float64
	if ordering == Nested {
		z, phi = b.nest2loc(pix)
	} else {
		z, phi = b.ring2loc(pix)
	}
	return math.Acos(clamp(z)), phi
}

// LonLat2Pix is Ang2Pix for longitude and latitude in degrees.
func (b *Base) LonLat2Pix(lon, lat float64, ordering Ordering) int64 {
	theta, phi := LonLatToAng(lon, lat)
	return b.Ang2Pix(theta, phi, ordering)
}

// Pix2LonLat is Pix2Ang returning degrees, with longitude in [0, 360).
func (b *Base) Pix2LonLat(pix int64, ordering Ordering) (float64, float64) {
	theta, phi := b.Pix2Ang(pix, ordering)
	return AngToLonLat(theta, phi)
}

func LonLatToAng(lon, lat float64) (float64, float64) {
	return (90.0 - lat) * math.Pi / 180.0, lon * math.Pi / 180.0
}

func AngToLonLat(theta, phi float64) (float64, float64) {
	lon := math.Mod(phi*180.0/math.Pi, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	return lon, 90.0 - theta*180.0/math.Pi
}

// Nest2Ring converts a NESTED pixel number into RING numbering.
func (b *Base) Nest2Ring(pix int64) int64 {
	ix, iy, face := b.nest2xyf(pix)
	return b.xyf2ring(ix, iy, face)
}

// Ring2Nest converts a RING pixel number into NESTED numbering.
func (b *Base) Ring2Nest(pix int64) int64 {
	ix, iy, face := b.ring2xyf(pix)
	return b.xyf2nest(ix, iy, face)
}

func (b *Base) loc2nest(z, phi float64) int64 {
	za := math.Abs(z)
	tt := fmodulo(phi*2.0/math.Pi, 4.0)
	if za <= 2.0/3.0 {
		temp1 := float64(b.nside) * (0.5 + tt)
		temp2 := float64(b.nside) * (z * 0.75)
		jp := int64(temp1 - temp2)
		jm := int64(temp1 + temp2)
		ifp := jp >> b.order
		ifm := jm >> b.order
		var face int64
		switch {
		case ifp == ifm:
			face = ifp | 4
		case ifp < ifm:
			face = ifp
		default:
			face = ifm + 8
		}
		ix := jm & (b.nside - 1)
		iy := b.nside - (jp & (b.nside - 1)) - 1
		return b.xyf2nest(ix, iy, face)
	}
	ntt := int64(tt)
	if ntt > 3 {
		ntt = 3
	}
	tp := tt - float64(ntt)
	tmp := float64(b.nside) * math.Sqrt(3*(1-za))
	jp := int64(tp * tmp)
	jm := int64((1.0 - tp) * tmp)
	if jp > b.nside-1 {
		jp = b.nside - 1
	}
	if jm > b.nside-1 {
		jm = b.nside - 1
	}
	if z >= 0 {
		return b.xyf2nest(b.nside-jm-1, b.nside-jp-1, ntt)
	}
	return b.xyf2nest(jp, jm, ntt+8)
}

func (b *Base) loc2ring(z, phi float64) int64 {
	za := math.Abs(z)
	tt := fmodulo(phi*2.0/math.Pi, 4.0)
	if za <= 2.0/3.0 {
		nl4 := 4 * b.nside
		temp1 := float64(b.nside) * (0.5 + tt)
		temp2 := float64(b.nside) * z * 0.75
		jp := int64(temp1 - temp2)
		jm := int64(temp1 + temp2)
		ir := b.nside + 1 + jp - jm
		kshift := 1 - (ir & 1)
		t1 := jp + jm - b.nside + kshift + 1 + nl4 + nl4
		ip := (t1 >> 1) & (nl4 - 1)
		return b.ncap + (ir-1)*nl4 + ip
	}
	tp := tt - math.Floor(tt)
	tmp := float64(b.nside) * math.Sqrt(3*(1-za))
	jp := int64(tp * tmp)
	jm := int64((1.0 - tp) * tmp)
	ir := jp + jm + 1
	ip := imodulo(int64(tt*float64(ir)), 4*ir)
	if z > 0 {
		return 2*ir*(ir-1) + ip
	}
	return b.npix - 2*ir*(ir+1) + ip
}

func (b *Base) ring2loc(pix int64) (float64, float64) {
	switch {
	case pix < b.ncap:
		iring := (1 + isqrt(1+2*pix)) >> 1
		iphi := (pix + 1) - 2*iring*(iring-1)
		z := 1.0 - float64(iring*iring)*b.fact2
		phi := (float64(iphi) - 0.5) * (math.Pi / 2) / float64(iring)
		return z, phi
	case pix < b.npix-b.ncap:
		nl4 := 4 * b.nside
		ip := pix - b.ncap
		tmp := ip >> (b.order + 2)
		iring := tmp + b.nside
		iphi := ip - nl4*tmp + 1
		fodd := 0.5
		if (iring+b.nside)&1 != 0 {
			fodd = 1.0
		}
		z := float64(2*b.nside-iring) * b.fact1
		phi := (float64(iphi) - fodd) * math.Pi * 0.75 * b.fact1
		return z, phi
	default:
		ip := b.npix - pix
		iring := (1 + isqrt(2*ip-1)) >> 1
		iphi := 4*iring + 1 - (ip - 2*iring*(iring-1))
		z := -1.0 + float64(iring*iring)*b.fact2
		phi := (float64(iphi) - 0.5) * (math.Pi / 2) / float64(iring)
		return z, phi
	}
}

func (b *Base) nest2loc(pix int64) (float64, float64) {
	ix, iy, face := b.nest2xyf(pix)
	jr := jrll[face]*b.nside - ix - iy - 1

	var nr, kshift int64
	var z float64
	switch {
	case jr < b.nside:
		nr = jr
		z = 1 - float64(nr*nr)*b.fact2
	case jr > 3*b.nside:
		nr = 4*b.nside - jr
		z = float64(nr*nr)*b.fact2 - 1
	default:
		nr = b.nside
		z = float64(2*b.nside-jr) * b.fact1
		kshift = (jr - b.nside) & 1
	}

	jp := (jpll[face]*nr + ix - iy + 1 + kshift) / 2
	if jp > 4*b.nside {
		jp -= 4 * b.nside
	}
	if jp < 1 {
		jp += 4 * b.nside
	}
	phi := (float64(jp) - float64(kshift+1)*0.5) * ((math.Pi / 2) / float64(nr))
	return z, phi
}

func (b *Base) xyf2nest(ix, iy, face int64) int64 {
	return face<<(2*b.order) + spreadBits(ix) + spreadBits(iy)<<1
}

func (b *Base) nest2xyf(pix int64) (int64, int64, int64) {
	face := pix >> (2 * b.order)
	p := pix & (b.npface - 1)
	return compressBits(p), compressBits(p >> 1), face
}

func (b *Base) xyf2ring(ix, iy, face int64) int64 {
	nl4 := 4 * b.nside
	jr := jrll[face]*b.nside - ix - iy - 1

	var nr, nBefore, kshift int64
	switch {
	case jr < b.nside:
		nr = jr
		nBefore = 2 * nr * (nr - 1)
	case jr > 3*b.nside:
		nr = nl4 - jr
		nBefore = b.npix - 2*(nr+1)*nr
	default:
		nr = b.nside
		nBefore = b.ncap + (jr-b.nside)*nl4
		kshift = (jr - b.nside) & 1
	}

	jp := (jpll[face]*nr + ix - iy + 1 + kshift) / 2
	if jp > nl4 {
		jp -= nl4
	} else if jp < 1 {
		jp += nl4
	}
	return nBefore + jp - 1
}

func (b *Base) ring2xyf(pix int64) (int64, int64, int64) {
	nl2 := 2 * b.nside
	var iring, iphi, kshift, nr, face int64

	switch {
	case pix < b.ncap:
		iring = (1 + isqrt(1+2*pix)) >> 1
		iphi = (pix + 1) - 2*iring*(iring-1)
		nr = iring
		face = (iphi - 1) / nr
	case pix < b.npix-b.ncap:
		ip := pix - b.ncap
		tmp := ip >> (b.order + 2)
		iring = tmp + b.nside
		iphi = ip - tmp*4*b.nside + 1
		kshift = (iring + b.nside) & 1
		nr = b.nside
		ire := tmp + 1
		irm := nl2 + 1 - tmp
		ifm := (iphi - (ire >> 1) + b.nside - 1) >> b.order
		ifp := (iphi - (irm >> 1) + b.nside - 1) >> b.order
		switch {
		case ifp == ifm:
			face = ifp | 4
		case ifp < ifm:
			face = ifp
		default:
			face = ifm + 8
		}
	default:
		ip := b.npix - pix
		iring = (1 + isqrt(2*ip-1)) >> 1
		iphi = 4*iring + 1 - (ip - 2*iring*(iring-1))
		nr = iring
		iring = 2*nl2 - iring
		face = (iphi-1)/nr + 8
	}

	irt := iring - (2+(face>>2))*b.nside + 1
	ipt := 2*iphi - jpll[face]*nr - kshift - 1
	if ipt >= nl2 {
		ipt -= 8 * b.nside
	}
	return (ipt - irt) >> 1, (-ipt - irt) >> 1, face
}
