package hash

import "golang.org/x/crypto/bcrypt"

// dummyHash is compared against when no account matches, so a miss costs
// about the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("repair_shop-dummy-password"), bcrypt.DefaultCost)

func HashPassword(password string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hashbytes), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BurnCompare spends one bcrypt comparison and always reports false.
func BurnCompare(password string) bool {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
	return false
}
