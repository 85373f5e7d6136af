package logsvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/admissions/core/user"
)

func TestRollbarLogger_mirrorsToZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &RollbarLogger{local: zap.New(core).Sugar()}
	l.Enable(false)

	usr := user.User{ID: "u1", Username: "staff01", Email: "staff@hust.edu.vn"}
	l.Error("saving major", errors.New("boom"), usr, map[string]interface{}{"major_id": "m1"})
	l.Info("server started")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "saving major", entries[0].Message)
		ctx := entries[0].ContextMap()
		assert.Equal(t, "boom", ctx["error"])
		assert.Equal(t, "u1", ctx["user_id"])
		assert.Equal(t, "m1", ctx["major_id"])

		assert.Equal(t, zap.InfoLevel, entries[1].Level)
	}
}
