package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestValidator(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		rules   []ValidationRule
		wantErr string
	}{
		{name: "present", value: "abc", rules: []ValidationRule{Required, MaxLength(3)}},
		{name: "blank", value: "   ", rules: []ValidationRule{Required}, wantErr: "is required"},
		{name: "nil", value: nil, rules: []ValidationRule{Required}, wantErr: "is required"},
		{name: "nil pointer", value: (*string)(nil), rules: []ValidationRule{Required}, wantErr: "is required"},
		{name: "too long", value: "abcd", rules: []ValidationRule{MaxLength(3)}, wantErr: "at most 3 characters"},
		{name: "runes not bytes", value: "ééé", rules: []ValidationRule{MaxLength(3)}},
		{name: "non-string length ignored", value: 12345, rules: []ValidationRule{MaxLength(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator().Field("field", tt.value, tt.rules...)
			if tt.wantErr == "" {
				assert.False(t, v.HasErrors())
				assert.Empty(t, v.ErrorMessage())
				return
			}
			require.True(t, v.HasErrors())
			assert.Contains(t, v.ErrorMessage(), "field")
			assert.Contains(t, v.ErrorMessage(), tt.wantErr)
		})
	}
}

func TestValidateAndReturnError(t *testing.T) {
	assert.NoError(t, ValidateAndReturnError(NewValidator().Field("q", "ok", Required)))

	err := ValidateAndReturnError(NewValidator().
		Field("a", "", Required).
		Field("b", strings.Repeat("x", 5), MaxLength(2)))
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, 2, strings.Count(st.Message(), "validation failed"))
	assert.Contains(t, st.Message(), "; ")
}
