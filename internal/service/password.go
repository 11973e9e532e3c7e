package service

import "golang.org/x/crypto/bcrypt"

// HashPassword genera un hash bcrypt salteado del password en claro.
func HashPassword(plain string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// CheckPassword compara un password en claro contra el hash almacenado.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
