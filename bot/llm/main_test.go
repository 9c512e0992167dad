package llm

import (
	"os"
	"testing"

	"github.com/m3rciful/contentbot/core/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(nil); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
