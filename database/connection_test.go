package database

import (
	"testing"

	"github.com/Ananth-NQI/evebot-backend/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	tcp := config.DatabaseConfig{Host: "db.local", Port: 5433, User: "eve", Password: "pw", Name: "evebot"}
	assert.Equal(t, "host=db.local user=eve password=pw dbname=evebot port=5433 sslmode=disable", DSN(tcp))

	socket := tcp
	socket.InstanceConnectionName = "proj:region:inst"
	assert.Equal(t, "host=/cloudsql/proj:region:inst user=eve password=pw dbname=evebot sslmode=disable", DSN(socket))
}
