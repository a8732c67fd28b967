package telemetry

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountServesCountersAndGauges(t *testing.T) {
	reg := New()
	reg.MessageReceived("gps0")
	reg.MessageReceived("gps0")
	reg.ParseError("gps0")
	reg.OpenAttempted("gps0")
	reg.PPSAssert("gps0")
	reg.PrecisionExponent("gps0", -20)
	reg.SHMWrite("0")

	app := fiber.New()
	reg.Mount(app, "/metrics")

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "gnsstimed_serial_messages_total{device=\"gps0\"} 2")
	assert.Contains(t, text, "gnsstimed_serial_errors_total{device=\"gps0\"} 1")
	assert.Contains(t, text, "gnsstimed_pps_assert_total{device=\"gps0\"} 1")
	assert.Contains(t, text, "gnsstimed_precision_exponent{device=\"gps0\"} -20")
	assert.Contains(t, text, "gnsstimed_shm_writes_total{unit=\"0\"} 1")
}
