package utils

import (
	"os"
	"testing"

	"github.com/cppla/aiblog/config"
)

func TestMain(m *testing.M) {
	config.Replace(config.AppConfig{JWTSecret: "utils-test-secret", RegisterAttemptCooldownSec: 30})
	os.Exit(m.Run())
}
