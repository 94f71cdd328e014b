package shamir

// GF(2^8) arithmetic over the AES polynomial x^8 + x^4 + x^3 + x + 1,
// with log/exp tables built from generator 3.

const (
	fieldPolynomial = 0x11b
	fieldSize       = 256
)

//nolint:gochecknoglobals // precomputed field tables
var expTable, logTable = buildTables()

func buildTables() (exp, log [fieldSize]byte) {
	x := uint16(1)
	for i := 0; i < fieldSize-1; i++ {
		exp[i] = byte(x)
		log[x] = byte(i)

		// Multiply by the generator: 3x = (x << 1) ^ x.
		x = (x << 1) ^ x
		if x >= fieldSize {
			x ^= fieldPolynomial
		}
	}
	return exp, log
}

// Addition and subtraction are both XOR in a binary field.
func gfAdd(a, b byte) byte { return a ^ b }

func gfSub(a, b byte) byte { return a ^ b }

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable[(int(logTable[a])+int(logTable[b]))%(fieldSize-1)]
}

func gfDiv(a, b byte) byte {
	if b == 0 {
		// Distinct share indices make a zero denominator unreachable.
		panic("gf256: division by zero")
	}
	if a == 0 {
		return 0
	}

	d := (int(logTable[a]) - int(logTable[b])) % (fieldSize - 1)
	if d < 0 {
		d += fieldSize - 1
	}
	return expTable[d]
}
