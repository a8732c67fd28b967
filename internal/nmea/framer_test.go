package nmea

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramerValidSentence(t *testing.T) {
	f := NewFramer()
	f.Feed([]byte("$EIGAQ,RMC*2B\r\n"))

	outcome, ok, err := f.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OutcomeValid, outcome.Kind)
	assert.Equal(t, "EIGAQ,RMC", outcome.Body)
}

func TestFramerInvalidChecksum(t *testing.T) {
	f := NewFramer()
	f.Feed([]byte("$EIGAQ,RMC*2C\r\n"))

	outcome, ok, err := f.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OutcomeInvalidChecksum, outcome.Kind)
	assert.Equal(t, "EIGAQ,RMC", outcome.Body)
	assert.Equal(t, byte(0x2C), outcome.Given)
	assert.Equal(t, byte(0x2B), outcome.Calculated)
}

func TestFramerSkipsLeadingGarbage(t *testing.T) {
	f := NewFramer()
	f.Feed([]byte("stuff*AA\r\n$EIGAQ,RMC*2B\r\n"))

	outcome, ok, err := f.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OutcomeValid, outcome.Kind)
	assert.Equal(t, "EIGAQ,RMC", outcome.Body)
}

func TestFramerAccepts164BytesLeadingGarbage(t *testing.T) {
	f := NewFramer()
	f.Feed([]byte(strings.Repeat("x", 164) + "$EIGAQ,RMC*2B\r\n"))

	outcome, ok, err := f.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OutcomeValid, outcome.Kind)
}

func TestFramerRejects165BytesLeadingGarbage(t *testing.T) {
	f := NewFramer()
	f.Feed([]byte(strings.Repeat("x", 165) + "$EIGAQ,RMC*2B\r\n"))

	_, ok, err := f.Next()
	require.False(t, ok)
	require.Error(t, err)
	var framingErr *FramingError
	require.ErrorAs(t, err, &framingErr)
}

func TestFramerIncompleteLeavesBufferUntouched(t *testing.T) {
	f := NewFramer()
	sentence := "$EIGAQ,RMC*2B\r\n"
	f.Feed([]byte(sentence[:len(sentence)-1])) // withhold the final '\n'

	outcome, ok, err := f.Next()
	require.NoError(t, err)
	require.False(t, ok)
	assert.Equal(t, OutcomeIncomplete, outcome.Kind)

	f.Feed([]byte(sentence[len(sentence)-1:]))
	outcome, ok, err = f.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OutcomeValid, outcome.Kind)
	assert.Equal(t, "EIGAQ,RMC", outcome.Body)
}

func TestFramerInvalidUTF8ResumesAfterErrorRun(t *testing.T) {
	// "EI" + invalid byte + "GAQ,RMC"; checksum value does not matter here
	// since the body never reaches the checksum comparison.
	body := append([]byte("EI"), 0xFF)
	body = append(body, []byte("GAQ,RMC")...)
	sentence := append([]byte{'$'}, body...)
	sentence = append(sentence, []byte("*00\r\n")...)

	f := NewFramer()
	f.Feed(sentence)

	outcome, ok, err := f.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OutcomeParseError, outcome.Kind)
	assert.Equal(t, "Invalid UTF-8", outcome.Text)
	assert.Equal(t, "EI", outcome.Body)
}

func TestFramerInvalidUTF8ResumesMidSentenceNotAfterIt(t *testing.T) {
	// The invalid byte sits right before a '$' that starts a real, complete
	// sentence. A framer that discards the whole first candidate (through
	// its own mistaken checksum/CRLF) would throw this sentence away too;
	// resuming at valid_up_to + error_len must preserve and find it.
	var buf []byte
	buf = append(buf, '$')
	buf = append(buf, "EI"...)
	buf = append(buf, 0xFF)
	buf = append(buf, "$EIGAQ,RMC*2B\r\n"...)

	f := NewFramer()
	f.Feed(buf)

	first, ok, err := f.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OutcomeParseError, first.Kind)
	assert.Equal(t, "EI", first.Body)

	second, ok, err := f.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, OutcomeValid, second.Kind)
	assert.Equal(t, "EIGAQ,RMC", second.Body)
}

func TestFramerCapturesReceivedAtFirstByte(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)
	calls := 0
	clock := func() time.Time {
		calls++
		if calls == 1 {
			return t0
		}
		return t1
	}

	f := NewFramer().WithClock(clock)
	f.Feed([]byte("$EIGAQ,RMC*2B\r\n"))

	outcome, ok, err := f.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, outcome.Received.Equal(t0))
}
