package nmea

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGAQ(t *testing.T) {
	now := time.Now()
	rec := Parse("EIGAQ,RMC", now, nil)

	poll, ok := rec.(Poll)
	require.True(t, ok)
	assert.Equal(t, KindGAQ, poll.Kind())
	assert.Equal(t, TalkerECDIS, poll.Talker.Kind)
	assert.Equal(t, "RMC", poll.MessageID)
	assert.True(t, poll.ReceivedAt().Equal(now))
}

func TestParseGGA(t *testing.T) {
	now := time.Now()
	body := "GPGGA,092725.00,4717.11399,N,00833.91590,E,1,08,1.01,499.6,M,48.0,M,,"
	rec := Parse(body, now, nil)

	gga, ok := rec.(GGA)
	require.True(t, ok)
	assert.Equal(t, 9*time.Hour+27*time.Minute+25*time.Second, gga.Time)
	require.NotNil(t, gga.Position)
	assert.InDelta(t, 47.285233, gga.Position.Lat, 1e-6)
	assert.InDelta(t, 8.565265, gga.Position.Lon, 1e-6)
	assert.Equal(t, FixAutonomousGNSS, gga.Quality)
	assert.Equal(t, 8, gga.NumSats)
	require.NotNil(t, gga.HDOP)
	assert.InDelta(t, 1.01, *gga.HDOP, 1e-9)
	require.NotNil(t, gga.Altitude)
	assert.InDelta(t, 499.6, *gga.Altitude, 1e-9)
	require.NotNil(t, gga.Sep)
	assert.InDelta(t, 48.0, *gga.Sep, 1e-9)
}

func TestParseZDAAllFieldsOptional(t *testing.T) {
	rec := Parse("GPZDA,,,,,00,00", time.Now(), nil)
	zda, ok := rec.(ZDA)
	require.True(t, ok)
	assert.Nil(t, zda.Time)
	assert.Nil(t, zda.Day)
	assert.Nil(t, zda.Month)
	assert.Nil(t, zda.Year)
}

func TestParseRMCKeepsDateRaw(t *testing.T) {
	rec := Parse("GPRMC,092725.00,A,4717.11399,N,00833.91590,E,0.0,,230394,,,A", time.Now(), nil)
	rmc, ok := rec.(RMC)
	require.True(t, ok)
	assert.Equal(t, "230394", rmc.Date)
	assert.True(t, rmc.Status)
	require.NotNil(t, rmc.Position)
}

func TestParseLatLonMissingBothIsNil(t *testing.T) {
	rec := Parse("GPGGA,092725.00,,,,,1,08,1.01,499.6,M,48.0,M,,", time.Now(), nil)
	gga, ok := rec.(GGA)
	require.True(t, ok)
	assert.Nil(t, gga.Position)
}

func TestParseLatLonInvalidHemisphereIsParseFailure(t *testing.T) {
	rec := Parse("GPGGA,092725.00,4717.11399,X,00833.91590,E,1,08,1.01,499.6,M,48.0,M,,", time.Now(), nil)
	_, ok := rec.(ParseFailure)
	assert.True(t, ok)
}

func TestParseUnknownSentenceIsUnsupported(t *testing.T) {
	rec := Parse("GPZZZ,1,2,3", time.Now(), nil)
	_, ok := rec.(Unsupported)
	assert.True(t, ok)
}

type fakeDriver struct {
	called bool
	body   string
}

func (d *fakeDriver) ParsePrivate(body string, received time.Time) (Record, error) {
	d.called = true
	d.body = body
	return UBXPosition{base: base{received}}, nil
}

func TestParseForwardsPrivateSentencesToDriver(t *testing.T) {
	d := &fakeDriver{}
	rec := Parse("PUBX,00,...", time.Now(), d)

	assert.True(t, d.called)
	assert.Equal(t, "PUBX,00,...", d.body)
	_, ok := rec.(UBXPosition)
	assert.True(t, ok)
}

func TestParsePrivateSentenceWithoutDriverIsUnsupported(t *testing.T) {
	rec := Parse("PMTK010,001", time.Now(), nil)
	_, ok := rec.(Unsupported)
	assert.True(t, ok)
}

func TestParseGSVDecodesSatelliteGroups(t *testing.T) {
	rec := Parse("GPGSV,2,1,08,01,40,083,46,02,17,308,41,,,,,,,,", time.Now(), nil)
	gsv, ok := rec.(GSV)
	require.True(t, ok)
	assert.Equal(t, 2, gsv.NumMessages)
	assert.Equal(t, 1, gsv.MessageNum)
	assert.Equal(t, 8, gsv.NumSats)
	require.Len(t, gsv.Satellites, 2)
	assert.Equal(t, 1, gsv.Satellites[0].ID)
	require.NotNil(t, gsv.Satellites[0].Elevation)
	assert.Equal(t, 40, *gsv.Satellites[0].Elevation)
}
