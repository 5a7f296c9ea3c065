package pixiv_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/xeptore/pxv/pixiv"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	t.Run("string_and_number_agree", func(t *testing.T) {
		t.Parallel()

		fromString, err := pixiv.ParseID(gjson.Parse(`"12345"`))
		require.NoError(t, err)
		fromNumber, err := pixiv.ParseID(gjson.Parse(`12345`))
		require.NoError(t, err)
		assert.Equal(t, pixiv.ID(12345), fromString)
		assert.Equal(t, fromString, fromNumber)
	})

	t.Run("max_uint64", func(t *testing.T) {
		t.Parallel()

		id, err := pixiv.ParseID(gjson.Parse(`"18446744073709551615"`))
		require.NoError(t, err)
		assert.Equal(t, pixiv.ID(18446744073709551615), id)
	})

	t.Run("non_numeric_string_is_zero", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{`"abc"`, `""`, `"-1"`, `"12.5"`} {
			id, err := pixiv.ParseID(gjson.Parse(input))
			require.NoError(t, err, input)
			assert.Zero(t, id, input)
		}
	})

	t.Run("invalid_types", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{`true`, `false`, `null`, `[1,2]`, `{}`} {
			_, err := pixiv.ParseID(gjson.Parse(input))
			var decodeErr *pixiv.DecodeError
			require.ErrorAs(t, err, &decodeErr, input)
			assert.Contains(t, err.Error(), "expected a string or a number", input)
		}
	})

	t.Run("invalid_numbers", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{`-1`, `1.5`, `18446744073709551616`} {
			_, err := pixiv.ParseID(gjson.Parse(input))
			var decodeErr *pixiv.DecodeError
			require.ErrorAs(t, err, &decodeErr, input)
		}
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		_, err := pixiv.ParseID(gjson.Parse(`{}`).Get("id"))
		var decodeErr *pixiv.DecodeError
		require.ErrorAs(t, err, &decodeErr)
	})
}

func TestIDJSON(t *testing.T) {
	t.Parallel()

	var v struct {
		A pixiv.ID `json:"a"`
		B pixiv.ID `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"777","b":777}`), &v))
	assert.Equal(t, pixiv.ID(777), v.A)
	assert.Equal(t, v.A, v.B)

	b, err := json.Marshal(v.A)
	require.NoError(t, err)
	assert.JSONEq(t, `777`, string(b))
	assert.Equal(t, "777", v.A.String())

	var id pixiv.ID
	require.Error(t, id.UnmarshalJSON([]byte(`true`)))
	require.Error(t, id.UnmarshalJSON([]byte(`not json`)))
}
