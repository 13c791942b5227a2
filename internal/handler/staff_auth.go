package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-gate-pass/internal/model"
	"github.com/iliyamo/hostel-gate-pass/internal/store"
	"github.com/iliyamo/hostel-gate-pass/internal/utils"
)

// StaffHandler authenticates guard and warden accounts and issues
// session JWTs.
type StaffHandler struct {
	Store     store.RecordStore
	JWTSecret string
	TTLMin    int
}

// NewStaffHandler constructs a StaffHandler.
func NewStaffHandler(st store.RecordStore, secret string, ttlMin int) *StaffHandler {
	if st == nil || secret == "" {
		panic("nil dependency passed to NewStaffHandler")
	}
	return &StaffHandler{Store: st, JWTSecret: secret, TTLMin: ttlMin}
}

// Login handles POST /staff/login.  Credentials are checked against the
// bcrypt hashes in the staff table; a signed token with the account's
// role comes back on success.
func (h *StaffHandler) Login(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Username and password are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	rows, err := h.Store.ListAll(ctx, store.TableStaff)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var account model.Staff
	found := false
	for _, r := range rows {
		s := model.StaffFromRow(r)
		if strings.EqualFold(s.Username, body.Username) {
			account = s
			found = true
			break
		}
	}
	// Run the hash check even on a miss so response timing does not
	// reveal which usernames exist.
	hash := account.PasswordHash
	if !found || hash == "" {
		hash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0q0lXh1u0Zc1yTmVp6mPZ4y1a2e"
	}
	if !utils.VerifyPassword(hash, body.Password) || !found {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid username or password"})
	}

	tok, err := utils.NewStaffToken(h.JWTSecret, account.Username, account.Role, h.TTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":   tok.Token,
		"expires": tok.Exp.Format("2006-01-02T15:04:05Z07:00"),
		"role":    account.Role,
	})
}
