package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Creditos-api/pkg/jwt"
)

func TestGenerateYParse_IdaYVuelta(t *testing.T) {
	token, err := jwt.Generate("secreto", "user-1", "admin", "creditos-pro", 15)
	require.NoError(t, err)

	userID, role, err := jwt.Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "admin", role)
}

func TestParse_SecretoIncorrecto(t *testing.T) {
	token, err := jwt.Generate("secreto", "user-1", "admin", "creditos-pro", 15)
	require.NoError(t, err)

	_, _, err = jwt.Parse("otro", token)
	assert.Error(t, err)
}

func TestGenerate_SecretoVacio(t *testing.T) {
	_, err := jwt.Generate("", "user-1", "admin", "creditos-pro", 15)
	assert.Error(t, err)
}

func TestParse_TokenExpirado(t *testing.T) {
	token, err := jwt.Generate("secreto", "user-1", "admin", "creditos-pro", -1)
	require.NoError(t, err)

	_, _, err = jwt.Parse("secreto", token)
	assert.Error(t, err)
}
