package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	// sha256("")
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Sum(nil))
	assert.NotEqual(t, Sum([]byte("a")), Sum([]byte("b")))
}

func TestETagRoundTrip(t *testing.T) {
	sum := Sum([]byte("note"))
	assert.Equal(t, `"`+sum+`"`, ETag(sum))
	assert.Equal(t, sum, FromETag(ETag(sum)))
	assert.Equal(t, sum, FromETag(sum))
	assert.Equal(t, sum, FromETag(` W/"`+sum+`" `))
}

func TestMatches(t *testing.T) {
	data := []byte("body")
	assert.True(t, Matches(data, ""))
	assert.True(t, Matches(data, Sum(data)))
	assert.False(t, Matches(data, Sum([]byte("other"))))
}
