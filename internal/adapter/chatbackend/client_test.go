package chatbackend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
)

func TestParseBackendError(t *testing.T) {
	err := parseBackendError(403, []byte(`{"code":17,"message":"no permission"}`))
	assert.Equal(t, 17, err.Code)
	assert.Equal(t, "no permission", err.Message)

	err = parseBackendError(429, []byte(`{"code":4,"details":"ignored","detail":"slow down"}`))
	assert.Equal(t, 4, err.Code)
	assert.Equal(t, "slow down", err.Text())

	// Unparseable bodies fall back to the HTTP status.
	err = parseBackendError(500, []byte("<html>oops</html>"))
	assert.Equal(t, 500, err.Code)
	assert.Contains(t, err.Message, "500")

	var asEntity *entity.BackendError = err
	assert.NotNil(t, asEntity)
}

func TestUserQueryKey(t *testing.T) {
	a := userQueryKey(map[string]string{"id": "aaa", "role": "user"})
	b := userQueryKey(map[string]string{"role": "user", "id": "aaa"})
	assert.Equal(t, a, b, "key must not depend on map iteration order")

	c := userQueryKey(map[string]string{"id": "bbb"})
	assert.NotEqual(t, a, c)
}
