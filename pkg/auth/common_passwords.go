package auth

// commonPasswords is the static deny set, matched case-insensitively after
// trimming. Sourced from breach-corpus top lists plus obvious variants of
// the platform's password rules.
var commonPasswords = map[string]bool{
	"password":     true,
	"password1":    true,
	"password1!":   true,
	"password123":  true,
	"password123!": true,
	"passw0rd":     true,
	"passw0rd!":    true,
	"p@ssword1":    true,
	"p@ssw0rd":     true,
	"p@ssw0rd1":    true,
	"12345678":     true,
	"123456789":    true,
	"1234567890":   true,
	"qwerty":       true,
	"qwerty123":    true,
	"qwerty123!":   true,
	"abc123":       true,
	"admin":        true,
	"admin123":     true,
	"letmein":      true,
	"letmein1!":    true,
	"welcome":      true,
	"welcome1":     true,
	"welcome123":   true,
	"iloveyou":     true,
	"monkey":       true,
	"dragon":       true,
	"master":       true,
	"shadow":       true,
	"sunshine":     true,
	"princess":     true,
	"starwars":     true,
	"football":     true,
	"baseball":     true,
	"trustno1":     true,
	"123123":       true,
	"111111":       true,
	"chioma123":    true,
	"chioma2024":   true,
}
