package security

import (
	"errors"
	"io"
	"testing"

	"bmc_collect/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLocatorsPassScreening(t *testing.T) {
	logger, _ := test.NewNullLogger()
	assert.NoError(t, NewSecurityLayer(logger).CheckLocators(entities.DefaultLocators()))
}

func TestCheckLocatorsRejectsDestructiveControl(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewSecurityLayer(logger)

	locators := entities.DefaultLocators().Merge(entities.LocatorMap{
		entities.TargetCollectButton: {"div.collect", "button#server-power-off"},
	})

	err := s.CheckLocators(locators)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "power-off")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestCheckLocatorsIgnoresInputFields(t *testing.T) {
	logger, _ := test.NewNullLogger()
	locators := entities.DefaultLocators().Merge(entities.LocatorMap{
		entities.TargetPassword: {"input.clear-on-focus"},
	})
	assert.NoError(t, NewSecurityLayer(logger).CheckLocators(locators))
}

func TestRedactionHookMasksSecrets(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(NewRedactionHook("hunter2", ""))
	hook := test.NewLocal(logger)

	logger.WithFields(logrus.Fields{
		"form":  "user=admin&pass=hunter2",
		"cause": errors.New("bad password hunter2"),
		"count": 3,
	}).Info("posting hunter2")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "posting ******", entry.Message)
	assert.Equal(t, "user=admin&pass=******", entry.Data["form"])
	assert.Equal(t, "bad password ******", entry.Data["cause"])
	assert.Equal(t, 3, entry.Data["count"])
}

func TestRedactionHookSkipsShortSecrets(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(NewRedactionHook("admin"))
	hook := test.NewLocal(logger)

	logger.WithFields(logrus.Fields{
		"user": "admin",
		"url":  "https://bmc.local/administration",
	}).Info("Opening console for admin")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Opening console for admin", entry.Message)
	assert.Equal(t, "admin", entry.Data["user"])
	assert.Equal(t, "https://bmc.local/administration", entry.Data["url"])
}
