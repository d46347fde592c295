package utils

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDec128(t *testing.T) {
	d, err := Dec128(sql.NullString{String: "1234.56", Valid: true})
	require.NoError(t, err)
	assert.Equal(t, "1234.56", d.String())

	d, err = Dec128(sql.NullString{})
	require.NoError(t, err)
	assert.Equal(t, "0", d.String())

	_, err = Dec128(sql.NullString{String: "not-a-number", Valid: true})
	assert.Error(t, err)
}

func TestDecReaderKeepsFirstError(t *testing.T) {
	var r DecReader
	assert.Equal(t, "12.5", r.Read(sql.NullString{String: "12.5", Valid: true}).String())
	require.NoError(t, r.Err())

	r.Read(sql.NullString{String: "first-bad", Valid: true})
	r.Read(sql.NullString{String: "second-bad", Valid: true})
	require.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), "first-bad")

	// Later reads still return values without clearing the sticky error.
	assert.Equal(t, "0", r.Read(sql.NullString{}).String())
	assert.Error(t, r.Err())
}

func TestStr(t *testing.T) {
	assert.Equal(t, "hello", Str(sql.NullString{String: "hello", Valid: true}))
	assert.Equal(t, "", Str(sql.NullString{String: "ignored", Valid: false}))
}

func TestTimeUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	local := time.Date(2024, 6, 1, 15, 0, 0, 0, loc)
	fallback := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got := TimeUTC(sql.NullTime{Time: local, Valid: true}, fallback)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(local))

	assert.Equal(t, fallback, TimeUTC(sql.NullTime{}, fallback))
}

func TestTimePtr(t *testing.T) {
	assert.Nil(t, TimePtr(sql.NullTime{}))

	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	got := TimePtr(sql.NullTime{Time: ts, Valid: true})
	require.NotNil(t, got)
	assert.Equal(t, ts, *got)
}

func TestInt64Ptr(t *testing.T) {
	assert.Nil(t, Int64Ptr(sql.NullInt64{}))

	got := Int64Ptr(sql.NullInt64{Int64: 42, Valid: true})
	require.NotNil(t, got)
	assert.Equal(t, int64(42), *got)
}
