package hexconv

var decodeTable = func() (lut [256]byte) {
	for i := range lut {
		lut[i] = 0xFF
	}

	for char := byte('0'); char <= '9'; char++ {
		lut[char] = char - '0'
	}

	for char := byte('a'); char <= 'f'; char++ {
		lut[char] = char - 'a' + 0xa
	}

	for char := byte('A'); char <= 'F'; char++ {
		lut[char] = char - 'A' + 0xA
	}

	return lut
}()

// Halfbyte returns the value of a hexadecimal digit, or 0xFF if the
// character isn't one
func Halfbyte(char byte) byte {
	return decodeTable[char]
}

// Is tells whether the character is a valid hexadecimal digit
func Is(char byte) bool {
	return decodeTable[char] != 0xFF
}
