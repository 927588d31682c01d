package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledash/billing/pkg/qrcode"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("rejects blank content", func(t *testing.T) {
		t.Parallel()
		out, err := qrcode.Generate("   ", 128)
		require.ErrorIs(t, err, qrcode.ErrEmptyContent)
		assert.Nil(t, out)
	})

	t.Run("encodes a decodable png", func(t *testing.T) {
		t.Parallel()
		out, err := qrcode.Generate("https://menu.tabledash.app/menu/biz_1", 200)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 200, img.Bounds().Dx())
	})

	t.Run("non-positive size falls back to default", func(t *testing.T) {
		t.Parallel()
		out, err := qrcode.Generate("hello", 0)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, qrcode.DefaultSize, img.Bounds().Dx())
	})
}

func TestGenerateDataURI(t *testing.T) {
	t.Parallel()

	uri, err := qrcode.GenerateDataURI("hello", 64)
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(uri, prefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	_, err = qrcode.GenerateDataURI("", 64)
	require.ErrorIs(t, err, qrcode.ErrEmptyContent)
}

func TestMenuURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     string
		business string
		want     string
		wantErr  error
	}{
		{name: "plain base", base: "https://menu.tabledash.app", business: "biz_1", want: "https://menu.tabledash.app/menu/biz_1"},
		{name: "base with path and slash", base: "https://tabledash.app/r/", business: "biz_2", want: "https://tabledash.app/r/menu/biz_2"},
		{name: "escapes business id", base: "https://tabledash.app", business: "a b", want: "https://tabledash.app/menu/a%20b"},
		{name: "missing business", base: "https://tabledash.app", business: " ", wantErr: qrcode.ErrBusinessMissing},
		{name: "relative base", base: "/menu", business: "biz_1", wantErr: qrcode.ErrInvalidBaseURL},
		{name: "empty base", base: "", business: "biz_1", wantErr: qrcode.ErrInvalidBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := qrcode.MenuURL(tt.base, tt.business)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMenuQR(t *testing.T) {
	t.Parallel()

	out, err := qrcode.MenuQR("https://menu.tabledash.app", "biz_1", 128)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	_, err = qrcode.MenuQR("nope", "biz_1", 128)
	require.ErrorIs(t, err, qrcode.ErrInvalidBaseURL)
}
