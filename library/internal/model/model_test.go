package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	t.Parallel()
	var req ReturnBorrowingRequest
	require.NoError(t, json.Unmarshal([]byte(`{"actual_return_date":"2024-02-29"}`), &req))
	require.Equal(t, NewDate(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)), req.ActualReturnDate)

	req = ReturnBorrowingRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"actual_return_date":null}`), &req))
	require.True(t, req.ActualReturnDate.IsZero())

	require.Error(t, json.Unmarshal([]byte(`{"actual_return_date":"29.02.2024"}`), &req))

	out, err := json.Marshal(NewDate(time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Equal(t, `"2024-03-01"`, string(out))
}

func TestDate_Scan(t *testing.T) {
	t.Parallel()
	want := NewDate(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
	tests := []struct {
		name string
		src  any
	}{
		{name: "time", src: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
		{name: "date string", src: "2024-05-10"},
		{name: "sqlite text", src: []byte("2024-05-10 00:00:00+00:00")},
		{name: "rfc3339", src: "2024-05-10T00:00:00Z"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var d Date
			require.NoError(t, d.Scan(tt.src))
			require.Equal(t, want, d)
		})
	}

	var d Date
	require.Error(t, d.Scan(42))
}

func TestDate_Arithmetic(t *testing.T) {
	t.Parallel()
	d := NewDate(time.Date(2024, 1, 30, 18, 0, 0, 0, time.UTC))
	require.Equal(t, "2024-02-01", d.AddDays(2).String())
	require.Equal(t, 9, d.DaysUntil(d.AddDays(9)))
	require.Equal(t, -1, d.DaysUntil(d.AddDays(-1)))
}

func TestUser_FullName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "Ann Lee", User{FirstName: "Ann", LastName: "Lee", Email: "a@b.c"}.FullName())
	require.Equal(t, "a@b.c", User{Email: "a@b.c"}.FullName())
}
