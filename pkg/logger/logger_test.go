package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriter_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("field-service-test", false, &buf)
	SetLevel("info")
	defer func() { Logger = zerolog.Nop() }()

	Info(context.Background()).Str("job_number", "JOB-1").Msg("Job created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "field-service-test", entry["service"])
	assert.Equal(t, "JOB-1", entry["job_number"])
	assert.Equal(t, "Job created", entry["message"])
}

func TestSetLevel_UnknownFallsBackToInfo(t *testing.T) {
	SetLevel("verbose")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	SetLevel("warn")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	SetLevel("info")
}
