// Package shamir splits secrets into threshold shares over GF(2^8) and
// reconstructs them with Lagrange interpolation. Any threshold-sized
// subset of the issued shares recovers the secret; fewer shares reveal
// nothing about it.
package shamir

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	sharePrefix  = "scrip"
	shareVersion = "v1"

	// MaxShares is the largest share count a split can produce. Share
	// indices are single field elements, so 255 is a hard ceiling.
	MaxShares = 255
)

//nolint:gochecknoglobals // package sentinels
var (
	// ErrInvalidThreshold indicates a threshold below 2.
	ErrInvalidThreshold = errors.New("threshold must be at least 2")

	// ErrTooFewShares indicates a share count below the threshold.
	ErrTooFewShares = errors.New("share count must be at least the threshold")

	// ErrTooManyShares indicates a share count above MaxShares.
	ErrTooManyShares = errors.New("share count cannot exceed 255")

	// ErrEmptySecret indicates an empty secret was passed to Split.
	ErrEmptySecret = errors.New("secret is empty")

	// ErrNoShares indicates Combine was called with no shares.
	ErrNoShares = errors.New("no shares provided")

	// ErrInvalidShareFormat indicates a share string that does not parse.
	ErrInvalidShareFormat = errors.New("malformed share")

	// ErrShareVersion indicates a share with an unknown prefix or version.
	ErrShareVersion = errors.New("unsupported share version")

	// ErrShareMismatch indicates shares that disagree on threshold or
	// secret length and so cannot come from the same split.
	ErrShareMismatch = errors.New("shares disagree on threshold or length")

	// ErrInsufficientShares indicates fewer distinct shares than the
	// embedded threshold requires.
	ErrInsufficientShares = errors.New("not enough distinct shares")
)

// Split breaks secret into n shares, any threshold of which reconstruct
// it. Each secret byte becomes the constant term of its own random
// polynomial of degree threshold-1, evaluated at x = 1..n. Shares are
// returned as strings of the form scrip-v1-<threshold>-<index>-<hex>.
func Split(secret []byte, n, threshold int) ([]string, error) {
	if threshold < 2 {
		return nil, ErrInvalidThreshold
	}
	if n < threshold {
		return nil, ErrTooFewShares
	}
	if n > MaxShares {
		return nil, ErrTooManyShares
	}
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	degree := threshold - 1
	coeffs := make([]byte, len(secret)*degree)
	if _, err := rand.Read(coeffs); err != nil {
		return nil, fmt.Errorf("generating coefficients: %w", err)
	}

	shares := make([]string, n)
	for x := 1; x <= n; x++ {
		value := make([]byte, len(secret))
		for i, b := range secret {
			value[i] = evalPoly(b, coeffs[i*degree:(i+1)*degree], byte(x))
		}
		shares[x-1] = fmt.Sprintf("%s-%s-%d-%d-%x", sharePrefix, shareVersion, threshold, x, value)
	}
	return shares, nil
}

// evalPoly evaluates constant + c[0]x + c[1]x^2 + ... at x using
// Horner's rule.
func evalPoly(constant byte, coeffs []byte, x byte) byte {
	var acc byte
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = gfAdd(gfMul(acc, x), coeffs[i])
	}
	return gfAdd(gfMul(acc, x), constant)
}

// Combine rebuilds a secret from issued shares. The threshold embedded
// in the shares decides how many distinct ones are required; duplicates
// are ignored.
func Combine(shares []string) ([]byte, error) {
	if len(shares) == 0 {
		return nil, ErrNoShares
	}

	points, threshold, err := parseShares(shares)
	if err != nil {
		return nil, err
	}
	if len(points) < threshold {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientShares, len(points), threshold)
	}

	return interpolate(points[:threshold]), nil
}

// sharePoint is one (x, y) evaluation of the split polynomials.
type sharePoint struct {
	x byte
	y []byte
}

func parseShares(raw []string) ([]sharePoint, int, error) {
	var points []sharePoint
	var threshold int
	seen := make(map[byte]bool)

	for _, s := range raw {
		p, k, err := parseShare(s)
		if err != nil {
			return nil, 0, err
		}

		if len(points) == 0 {
			threshold = k
		} else if k != threshold || len(p.y) != len(points[0].y) {
			return nil, 0, fmt.Errorf("%w: %q", ErrShareMismatch, s)
		}

		if seen[p.x] {
			continue
		}
		seen[p.x] = true
		points = append(points, p)
	}

	return points, threshold, nil
}

func parseShare(s string) (sharePoint, int, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 5 {
		return sharePoint{}, 0, fmt.Errorf("%w: %q", ErrInvalidShareFormat, s)
	}
	if parts[0] != sharePrefix || parts[1] != shareVersion {
		return sharePoint{}, 0, fmt.Errorf("%w: %q", ErrShareVersion, s)
	}

	threshold, err := strconv.Atoi(parts[2])
	if err != nil || threshold < 2 {
		return sharePoint{}, 0, fmt.Errorf("%w: bad threshold in %q", ErrInvalidShareFormat, s)
	}

	index, err := strconv.Atoi(parts[3])
	if err != nil || index < 1 || index > MaxShares {
		return sharePoint{}, 0, fmt.Errorf("%w: bad index in %q", ErrInvalidShareFormat, s)
	}

	value, err := hex.DecodeString(parts[4])
	if err != nil || len(value) == 0 {
		return sharePoint{}, 0, fmt.Errorf("%w: bad value in %q", ErrInvalidShareFormat, s)
	}

	return sharePoint{x: byte(index), y: value}, threshold, nil
}

// interpolate evaluates the Lagrange basis at x=0 for every secret byte.
// The weights depend only on the share indices, so they are computed
// once and reused across bytes.
func interpolate(points []sharePoint) []byte {
	weights := make([]byte, len(points))
	for i, pi := range points {
		w := byte(1)
		for j, pj := range points {
			if i == j {
				continue
			}
			w = gfMul(w, gfDiv(pj.x, gfSub(pj.x, pi.x)))
		}
		weights[i] = w
	}

	secret := make([]byte, len(points[0].y))
	for i := range secret {
		var acc byte
		for j, p := range points {
			acc = gfAdd(acc, gfMul(p.y[i], weights[j]))
		}
		secret[i] = acc
	}
	return secret
}
