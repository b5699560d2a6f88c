//go:build linux

package hotkey

import "strconv"

var letterCodes = [26]uint16{
	30, 48, 46, 32, 18, 33, 34, 35, 23, 36, 37, 38, 50, // a-m
	49, 24, 25, 16, 19, 31, 20, 22, 47, 17, 45, 21, 44, // n-z
}

var namedCodes = map[string]uint16{
	"esc":   1,
	"tab":   15,
	"enter": 28,
	"space": 57,
	"0":     11,
}

// keyCode maps a key name to its evdev code, or 0 when unknown.
func keyCode(key string) uint16 {
	if c, ok := namedCodes[key]; ok {
		return c
	}
	if len(key) == 1 {
		switch ch := key[0]; {
		case ch >= 'a' && ch <= 'z':
			return letterCodes[ch-'a']
		case ch >= '1' && ch <= '9':
			return uint16(ch-'1') + 2
		}
	}
	if len(key) > 1 && key[0] == 'f' {
		n, err := strconv.Atoi(key[1:])
		switch {
		case err != nil:
		case n >= 1 && n <= 10:
			return uint16(58 + n)
		case n == 11:
			return 87
		case n == 12:
			return 88
		}
	}
	return 0
}
