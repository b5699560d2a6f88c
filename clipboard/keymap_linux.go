//go:build linux

package clipboard

// a=30, b=48, c=46, d=32, e=18, f=33, g=34, h=35, i=23, j=36,
// k=37, l=38, m=50, n=49, o=24, p=25, q=16, r=19, s=31, t=20,
// u=22, v=47, w=17, x=45, y=21, z=44
var letterKeys = [26]uint16{
	30, 48, 46, 32, 18, 33, 34, 35, 23, 36,
	37, 38, 50, 49, 24, 25, 16, 19, 31, 20,
	22, 47, 17, 45, 21, 44,
}

// 0=11, 1=2, 2=3, ..., 9=10
var digitKeys = [10]uint16{11, 2, 3, 4, 5, 6, 7, 8, 9, 10}

type usKey struct {
	code  uint16
	shift bool
}

var punctKeys = map[rune]usKey{
	'.': {52, false}, ',': {51, false}, '/': {53, false},
	';': {39, false}, '\'': {40, false}, '[': {26, false},
	']': {27, false}, '-': {12, false}, '=': {13, false},
	'\\': {43, false}, '`': {41, false},
	'!': {2, true}, '@': {3, true}, '#': {4, true},
	'$': {5, true}, '%': {6, true}, '^': {7, true},
	'&': {8, true}, '*': {9, true}, '(': {10, true},
	')': {11, true}, '_': {12, true}, '+': {13, true},
	'{': {26, true}, '}': {27, true}, '|': {43, true},
	':': {39, true}, '"': {40, true}, '<': {51, true},
	'>': {52, true}, '?': {53, true}, '~': {41, true},
}

func charToKey(c rune) (code uint16, shift bool, ok bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return letterKeys[c-'a'], false, true
	case c >= 'A' && c <= 'Z':
		return letterKeys[c-'A'], true, true
	case c >= '0' && c <= '9':
		return digitKeys[c-'0'], false, true
	case c == ' ':
		return 57, false, true // KEY_SPACE
	case c == '\n':
		return keyEnter, false, true
	case c == '\t':
		return 15, false, true // KEY_TAB
	}
	if k, found := punctKeys[c]; found {
		return k.code, k.shift, true
	}
	return 0, false, false
}

func canType(c rune) bool {
	_, _, ok := charToKey(c)
	return ok
}
