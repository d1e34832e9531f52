package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())
	logger.Enable(true) // no token: stays off

	logger.Info("import started")
	assert.Equal(t, "INFO: import started\n", buf.String())

	buf.Reset()
	logger.Error("unexpected", user.User{ID: 7, Username: "admin"}, map[string]string{"batch": "b1"})
	assert.Equal(t, "ERROR: unexpected\n  user: 7 admin\n  map[batch:b1]\n", buf.String())

	buf.Reset()
	logger.Warn("publishing event", errors.New("connection reset"))
	assert.Contains(t, buf.String(), "WARN: publishing event\n  connection reset\n")
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := RollbarLogger{}
	err := errors.New("boom")

	args := logger.prepare("msg", []interface{}{
		err,
		user.User{ID: 1, Username: "a"},
		user.User{ID: 2, Username: "b"},
		map[string]string{"k": "v"},
	})
	assert.Equal(t, []interface{}{"msg", err, map[string]interface{}{"k": "v"}}, args)
}
