package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/errs"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/handler"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/model"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/auth"
	md "github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/middleware"
	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service_mocks "github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/handler/mocks"
)

var (
	reader = auth.Principal{ID: 7}
	staff  = auth.Principal{ID: 1, IsPrivileged: true}
)

type response struct {
	expectedCode int
	expectedBody string
}

func newRouter(t *testing.T) (*echo.Echo, *service_mocks.MockLibraryService) {
	t.Helper()
	c := gomock.NewController(t)
	svc := service_mocks.NewMockLibraryService(c)
	h := handler.New(svc, md.AuthConfig{TrustHeaders: true}, zap.NewNop())
	return h.NewRouter(), svc
}

func do(e *echo.Echo, method, target, body string, p *auth.Principal) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if p != nil {
		r.Header.Set(auth.XUserIDHeader, fmt.Sprint(p.ID))
		r.Header.Set(auth.XUserStaffHeader, fmt.Sprint(p.IsPrivileged))
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	return w
}

func borrowing() model.Borrowing {
	return model.Borrowing{
		ID:                 3,
		BookID:             2,
		UserID:             reader.ID,
		BorrowDate:         model.NewDate(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
		ExpectedReturnDate: model.NewDate(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)),
		Book:               "Dune",
		User:               "Ann Lee",
	}
}

const borrowingJSON = `{"id":3,"book_id":2,"user_id":7,"borrow_date":"2024-05-01","expected_return_date":"2024-05-10","actual_return_date":null,"book":"Dune","user":"Ann Lee"}`

func TestHandler_GetBooks(t *testing.T) {
	t.Parallel()
	type input struct {
		query string
	}
	type mockBehavior func(r *service_mocks.MockLibraryService)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ListBooks(gomock.Any(), 1, 10).
					Return(model.ListBooks{
						Paging: model.Paging{Page: 1, PageSize: 10, TotalElements: 1},
						Items: []model.Book{{
							ID:        2,
							Title:     "Dune",
							Author:    "Frank Herbert",
							Cover:     model.CoverHard,
							Inventory: 3,
							DailyFee:  decimal.RequireFromString("1.5"),
						}},
					}, nil)
			},
			input: input{query: "?page=1&size=10"},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"page":1,"pageSize":10,"totalElements":1,"items":[{"id":2,"title":"Dune","author":"Frank Herbert","cover":"HARD","inventory":3,"daily_fee":"1.5"}]}`,
			},
		},
		{
			name:         "err. bad page",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			input:        input{query: "?page=-1"},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"page is invalid"}`,
			},
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ListBooks(gomock.Any(), 0, 0).
					Return(model.ListBooks{}, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newRouter(t)
			tt.mockBehavior(svc)

			w := do(e, http.MethodGet, "/api/v1/books"+tt.input.query, "", nil)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_DeleteBook(t *testing.T) {
	t.Parallel()
	var tests = []struct {
		name         string
		principal    *auth.Principal
		mockBehavior func(r *service_mocks.MockLibraryService)
		expectedCode int
	}{
		{
			name:      "ok",
			principal: &staff,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteBook(gomock.Any(), staff, int64(2)).Return(nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name:      "err. referenced by borrowings",
			principal: &staff,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteBook(gomock.Any(), staff, int64(2)).Return(errs.ErrProtected)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name:      "err. not staff",
			principal: &reader,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().DeleteBook(gomock.Any(), reader, int64(2)).Return(errs.ErrForbidden)
			},
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "err. anonymous",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			expectedCode: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newRouter(t)
			tt.mockBehavior(svc)

			w := do(e, http.MethodDelete, "/api/v1/books/2", "", tt.principal)

			require.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestHandler_CreateBook(t *testing.T) {
	t.Parallel()
	e, svc := newRouter(t)

	w := do(e, http.MethodPost, "/api/v1/books", `{"title":"Dune","author":"Frank Herbert","cover":"paper","inventory":1}`, &staff)
	require.Equal(t, http.StatusBadRequest, w.Code)

	svc.EXPECT().
		CreateBook(gomock.Any(), staff, model.CreateBookRequest{
			Title: "Dune", Author: "Frank Herbert", Cover: "soft", Inventory: 1, DailyFee: decimal.RequireFromString("0.5"),
		}).
		Return(model.Book{ID: 9, Title: "Dune", Author: "Frank Herbert", Cover: model.CoverSoft, Inventory: 1, DailyFee: decimal.RequireFromString("0.5")}, nil)
	w = do(e, http.MethodPost, "/api/v1/books", `{"title":"Dune","author":"Frank Herbert","cover":"soft","inventory":1,"daily_fee":"0.5"}`, &staff)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, `{"id":9,"title":"Dune","author":"Frank Herbert","cover":"SOFT","inventory":1,"daily_fee":"0.5"}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_CreateBorrowing(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockLibraryService)

	expected := model.NewDate(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"book":2,"expected_return_date":"2024-05-10"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					CreateBorrowing(gomock.Any(), reader, model.CreateBorrowingRequest{BookID: 2, ExpectedReturnDate: expected}).
					Return(borrowing(), nil)
			},
			response: response{expectedCode: http.StatusCreated, expectedBody: borrowingJSON},
		},
		{
			name:         "err. book required",
			body:         `{"expected_return_date":"2024-05-10"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response:     response{expectedCode: http.StatusBadRequest},
		},
		{
			name:         "err. malformed date",
			body:         `{"book":2,"expected_return_date":"10.05.2024"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response:     response{expectedCode: http.StatusBadRequest},
		},
		{
			name: "err. no copies left",
			body: `{"book":2,"expected_return_date":"2024-05-10"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					CreateBorrowing(gomock.Any(), reader, gomock.Any()).
					Return(model.Borrowing{}, errs.ErrUnavailable)
			},
			response: response{expectedCode: http.StatusBadRequest, expectedBody: `{"message":"this book is not available for borrowing now"}`},
		},
		{
			name: "err. unknown book",
			body: `{"book":2,"expected_return_date":"2024-05-10"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					CreateBorrowing(gomock.Any(), reader, gomock.Any()).
					Return(model.Borrowing{}, errs.ErrNotFound)
			},
			response: response{expectedCode: http.StatusNotFound},
		},
		{
			name: "err. storage busy",
			body: `{"book":2,"expected_return_date":"2024-05-10"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					CreateBorrowing(gomock.Any(), reader, gomock.Any()).
					Return(model.Borrowing{}, errs.ErrTransient)
			},
			response: response{expectedCode: http.StatusServiceUnavailable},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newRouter(t)
			tt.mockBehavior(svc)

			w := do(e, http.MethodPost, "/api/v1/borrowings", tt.body, &reader)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_GetBorrowings(t *testing.T) {
	t.Parallel()
	userID := int64(42)
	var tests = []struct {
		name         string
		query        string
		mockBehavior func(r *service_mocks.MockLibraryService)
		expectedCode int
	}{
		{
			name:  "ok. filters passed through",
			query: "?is_active=true&user_id=42&page=2&size=5",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ListBorrowings(gomock.Any(), reader, model.ListBorrowingsRequest{IsActive: true, UserID: &userID, Page: 2, Size: 5}).
					Return(model.ListBorrowings{Items: []model.Borrowing{borrowing()}}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:  "ok. is_active false lists everything",
			query: "?is_active=false",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ListBorrowings(gomock.Any(), reader, model.ListBorrowingsRequest{}).
					Return(model.ListBorrowings{}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "err. is_active not a bool",
			query:        "?is_active=maybe",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "err. user_id not a number",
			query:        "?user_id=abc",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			expectedCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newRouter(t)
			tt.mockBehavior(svc)

			w := do(e, http.MethodGet, "/api/v1/borrowings"+tt.query, "", &reader)

			require.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestHandler_ReturnBorrowing(t *testing.T) {
	t.Parallel()
	returned := borrowing()
	actual := model.NewDate(time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC))
	returned.ActualReturnDate = &actual

	var tests = []struct {
		name         string
		body         string
		principal    auth.Principal
		mockBehavior func(r *service_mocks.MockLibraryService)
		expectedCode int
	}{
		{
			name:      "ok. empty body",
			principal: staff,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ReturnBorrowing(gomock.Any(), staff, int64(3), model.ReturnBorrowingRequest{}).
					Return(returned, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:      "ok. explicit date",
			body:      `{"actual_return_date":"2024-05-12"}`,
			principal: staff,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ReturnBorrowing(gomock.Any(), staff, int64(3), model.ReturnBorrowingRequest{ActualReturnDate: actual}).
					Return(returned, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:      "err. returned twice",
			principal: staff,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ReturnBorrowing(gomock.Any(), staff, int64(3), gomock.Any()).
					Return(model.Borrowing{}, errs.ErrAlreadyReturned)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:      "err. not staff",
			principal: reader,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ReturnBorrowing(gomock.Any(), reader, int64(3), gomock.Any()).
					Return(model.Borrowing{}, errs.ErrForbidden)
			},
			expectedCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newRouter(t)
			tt.mockBehavior(svc)

			w := do(e, http.MethodPost, "/api/v1/borrowings/3/return", tt.body, &tt.principal)

			require.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestHandler_GetPayment(t *testing.T) {
	t.Parallel()
	e, svc := newRouter(t)

	svc.EXPECT().
		GetPayment(gomock.Any(), reader, int64(5)).
		Return(model.Payment{
			ID:          5,
			Status:      model.PaymentStatusPending,
			Type:        model.PaymentTypeFine,
			BorrowingID: 3,
			ToPay:       decimal.RequireFromString("6"),
			UserID:      reader.ID,
		}, nil)
	w := do(e, http.MethodGet, "/api/v1/payments/5", "", &reader)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"id":5,"status":"PENDING","type":"FINE","borrowing_id":3,"session_url":null,"session_id":null,"to_pay":"6"}`, strings.Trim(w.Body.String(), "\n"))

	w = do(e, http.MethodGet, "/api/v1/payments/zero", "", &reader)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()
	e, _ := newRouter(t)

	w := do(e, http.MethodGet, "/manage/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func strPtr(s string) *string { return &s }

func TestHandler_UpdateMe(t *testing.T) {
	t.Parallel()
	type input struct {
		method string
		body   string
		p      *auth.Principal
	}
	type mockBehavior func(r *service_mocks.MockLibraryService)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
	}{
		{
			name: "ok. patch last name",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					UpdateMe(gomock.Any(), reader, model.UpdateUserRequest{LastName: strPtr("Smith")}).
					Return(model.User{ID: 7, Email: "ann@example.com", FirstName: "Ann", LastName: "Smith"}, nil)
			},
			input: input{method: http.MethodPatch, body: `{"last_name":"Smith"}`, p: &reader},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":7,"email":"ann@example.com","first_name":"Ann","last_name":"Smith","is_staff":false}`,
			},
		},
		{
			name: "ok. put",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					UpdateMe(gomock.Any(), reader, model.UpdateUserRequest{
						Email:     strPtr("ann@example.com"),
						FirstName: strPtr("Ann"),
						LastName:  strPtr("Lee"),
					}).
					Return(model.User{ID: 7, Email: "ann@example.com", FirstName: "Ann", LastName: "Lee"}, nil)
			},
			input: input{
				method: http.MethodPut,
				body:   `{"email":"ann@example.com","first_name":"Ann","last_name":"Lee"}`,
				p:      &reader,
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":7,"email":"ann@example.com","first_name":"Ann","last_name":"Lee","is_staff":false}`,
			},
		},
		{
			name:         "err. bad email",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			input:        input{method: http.MethodPatch, body: `{"email":"ann"}`, p: &reader},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"Key: 'UpdateUserRequest.Email' Error:Field validation for 'Email' failed on the 'email' tag"}`,
			},
		},
		{
			name: "err. email taken",
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					UpdateMe(gomock.Any(), reader, model.UpdateUserRequest{Email: strPtr("bob@example.com")}).
					Return(model.User{}, errs.ErrDuplicate)
			},
			input: input{method: http.MethodPatch, body: `{"email":"bob@example.com"}`, p: &reader},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"already exists"}`,
			},
		},
		{
			name:         "err. unauthenticated",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			input:        input{method: http.MethodPatch, body: `{"last_name":"Smith"}`},
			response: response{
				expectedCode: http.StatusUnauthorized,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc := newRouter(t)
			tt.mockBehavior(svc)

			w := do(e, tt.input.method, "/api/v1/users/me", tt.input.body, tt.input.p)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}
