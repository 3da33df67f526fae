package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/auth"
	md "github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestAuthentication(t *testing.T) {
	t.Parallel()
	const key = "test-key"
	token, err := auth.NewToken(auth.Principal{ID: 5, IsPrivileged: true}, []byte(key), time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name         string
		cfg          md.AuthConfig
		headers      map[string]string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "bearer ok",
			cfg:          md.AuthConfig{JWTKey: key},
			headers:      map[string]string{md.AuthorizationHeader: "Bearer " + token},
			expectedCode: http.StatusOK,
			expectedBody: "5:true",
		},
		{
			name:         "bad token",
			cfg:          md.AuthConfig{JWTKey: key},
			headers:      map[string]string{md.AuthorizationHeader: "Bearer garbage"},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "no header",
			cfg:          md.AuthConfig{JWTKey: key},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "gateway headers ignored when untrusted",
			cfg:          md.AuthConfig{JWTKey: key},
			headers:      map[string]string{auth.XUserIDHeader: "2"},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "gateway headers trusted",
			cfg:          md.AuthConfig{TrustHeaders: true},
			headers:      map[string]string{auth.XUserIDHeader: "2", auth.XUserStaffHeader: "false"},
			expectedCode: http.StatusOK,
			expectedBody: "2:false",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			e.GET("/", func(c echo.Context) error {
				p, err := auth.FromContext(c.Request().Context())
				if err != nil {
					return err
				}
				return c.String(http.StatusOK, strconv.FormatInt(p.ID, 10)+":"+strconv.FormatBool(p.IsPrivileged))
			}, md.Authentication(tt.cfg))

			r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != "" {
				require.Equal(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}
