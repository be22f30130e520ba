package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	intconfig "musafir/internal/config"
	h "musafir/internal/http/handlers"
	"musafir/internal/services"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRouter(intconfig.Env{JWTSecret: testSecret}, Deps{DB: db, Handlers: handlersFor(db)}), mock
}

func handlersFor(db *sql.DB) h.Handlers {
	return h.Handlers{
		Trips:         services.TripService{DB: db},
		Registrations: services.RegistrationService{DB: db},
		Payments:      services.PaymentService{DB: db},
		Wallet:        services.WalletService{DB: db},
		Refunds:       services.RefundService{DB: db},
	}
}

func bearer(t *testing.T, userID int64, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + tok
}

func do(r *gin.Engine, method, path, auth, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthIsPublic(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	r, _ := newTestRouter(t)
	for _, path := range []string{"/api/trip/1", "/api/wallet/summary", "/api/registration/3"} {
		if w := do(r, http.MethodGet, path, "", ""); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d", path, w.Code)
		}
	}
}

func TestAdminRoutesNeedAdminRole(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/admin/topup/1/credit", bearer(t, 5, "user"), "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestTripNotFoundMapsTo404(t *testing.T) {
	r, mock := newTestRouter(t)
	mock.ExpectQuery("FROM trips WHERE id=").WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	w := do(r, http.MethodGet, "/api/trip/9", bearer(t, 5, "user"), "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["code"] != "not_found" || body["request_id"] == "" {
		t.Fatalf("body = %v", body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBadIDIsValidationError(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/trip/abc", bearer(t, 5, "user"), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestPaymentBodyValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	cases := map[string]string{
		"empty":           "",
		"missing reg":     `{"amount":100}`,
		"negative amount": `{"registrationId":1,"amount":-5}`,
		"not json at all": `amount=5`,
		"amount past cap": `{"registrationId":1,"amount":9223372036854775807,"walletAmount":1,"walletUseId":"w","screenshot":"p.png"}`,
	}
	for name, body := range cases {
		w := do(r, http.MethodPost, "/api/payment", bearer(t, 5, "user"), body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", name, w.Code)
		}
		if got := decode(t, w)["code"]; got != "validation_error" {
			t.Fatalf("%s: code = %v", name, got)
		}
	}
}

func TestWalletSummaryReturnsBalance(t *testing.T) {
	r, mock := newTestRouter(t)
	mock.ExpectQuery("FROM wallet_transactions").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(1500)))

	w := do(r, http.MethodGet, "/api/wallet/summary", bearer(t, 5, "user"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["balance"]; got != float64(1500) {
		t.Fatalf("balance = %v", got)
	}
}

func TestWalletTransactionsRejectsBadCursor(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/wallet/transactions?cursor=zz", bearer(t, 5, "user"), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUnknownRefundActionIsRejected(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/admin/refund/4/teleport", bearer(t, 1, "admin"), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t)
	if w := do(r, http.MethodGet, "/api/nope", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}
