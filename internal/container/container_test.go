package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise/user-service/config"
	"github.com/enterprise/user-service/internal/domain/entity"
	"github.com/enterprise/user-service/pkg/helpers"
)

func memoryConfig() *config.Config {
	return &config.Config{
		AppName:       "user-service",
		StoreDriver:   "memory",
		AdminUsername: "admin",
		AdminPassword: "admin-pass",
		UserUsername:  "user",
		UserPassword:  "user-pass",
		ESUsersIndex:  "users",
	}
}

func TestBuildMemory(t *testing.T) {
	cfg := memoryConfig()
	c, err := Build(context.Background(), cfg, helpers.NewLogger("test", "test"))
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Users)
	assert.Nil(t, c.PGPool)
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.RabbitPub)

	acc, err := c.Auth.Authenticate("admin", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, []string{entity.RoleAdmin}, acc.Roles)

	acc, err = c.Auth.Authenticate("user", "user-pass")
	require.NoError(t, err)
	assert.Equal(t, []string{entity.RoleUser}, acc.Roles)
}

func TestBuildRejectsUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.StoreDriver = "mongo"
	_, err := Build(context.Background(), cfg, helpers.NewLogger("test", "test"))
	assert.Error(t, err)
}

func TestBuildRejectsDuplicateAccounts(t *testing.T) {
	cfg := memoryConfig()
	cfg.UserUsername = cfg.AdminUsername
	_, err := Build(context.Background(), cfg, helpers.NewLogger("test", "test"))
	assert.Error(t, err)
}
