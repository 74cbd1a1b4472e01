package coordination

import "golang.org/x/exp/rand"

// Join code generation. The reduced alphabet avoids easily-confused
// characters since users type these codes by hand.
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

func generateGroupCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeCharset[rand.Intn(len(codeCharset))]
	}
	return string(b)
}
