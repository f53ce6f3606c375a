package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fiscus/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidBody           = errors.New("invalid request body")
	errMissingTypeOrAmount   = errors.New("Missing type or amount")
	errMissingNameOrType     = errors.New("Missing name or type")
	errInvalidAccountID      = errors.New("invalid accountId")
	errInvalidCreatedAt      = errors.New("invalid createdAt, expected RFC 3339")
	errInvalidBalance        = errors.New("invalid balance")
	errInvalidYearMonthQuery = errors.New("year and month must be integers")
)

// transactionRequest is the body of POST and PUT /transactions. amount and
// accountId are accepted as JSON numbers or strings.
type transactionRequest struct {
	Type        string          `json:"type"`
	Amount      json.RawMessage `json:"amount"`
	Note        string          `json:"note"`
	AccountID   json.RawMessage `json:"accountId"`
	AccountName string          `json:"accountName"`
	AccountType string          `json:"accountType"`
	CreatedAt   string          `json:"createdAt"`
	Category    string          `json:"category"`
}

type accountRequest struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Balance json.RawMessage `json:"balance"`
}

type settingRequest struct {
	Value string `json:"value"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errInvalidBody
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errInvalidBody
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errInvalidBody
	}
	return nil
}

// scalarString returns the text of a JSON string or number. null and absent
// values give "".
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func (req transactionRequest) toInput() (core.TransactionInput, error) {
	amountText, err := scalarString(req.Amount)
	if err != nil {
		return core.TransactionInput{}, core.ErrInvalidAmount
	}
	if strings.TrimSpace(req.Type) == "" || amountText == "" || amountText == "0" {
		return core.TransactionInput{}, errMissingTypeOrAmount
	}
	amount, err := core.ParseAmount(amountText)
	if err != nil {
		return core.TransactionInput{}, err
	}

	accountID, err := parseAccountID(req.AccountID)
	if err != nil {
		return core.TransactionInput{}, err
	}

	var createdAt time.Time
	if s := strings.TrimSpace(req.CreatedAt); s != "" {
		createdAt, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return core.TransactionInput{}, errInvalidCreatedAt
		}
	}

	return core.TransactionInput{
		Type:   core.TransactionType(strings.ToLower(strings.TrimSpace(req.Type))),
		Amount: amount,
		Note:   req.Note,
		Account: core.AccountRef{
			ID:   accountID,
			Name: req.AccountName,
			Type: core.AccountType(req.AccountType),
		},
		Category:  req.Category,
		CreatedAt: createdAt,
	}.Normalize(), nil
}

func parseAccountID(raw json.RawMessage) (int64, error) {
	s, err := scalarString(raw)
	if err != nil {
		return 0, errInvalidAccountID
	}
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errInvalidAccountID
	}
	return id, nil
}

func (req accountRequest) toInput() (core.AccountInput, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Type) == "" {
		return core.AccountInput{}, errMissingNameOrType
	}
	s, err := scalarString(req.Balance)
	if err != nil {
		return core.AccountInput{}, errInvalidBalance
	}
	balance := decimal.Zero
	if s != "" {
		balance, err = decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
		if err != nil {
			return core.AccountInput{}, errInvalidBalance
		}
	}
	return core.AccountInput{
		Name:    strings.TrimSpace(req.Name),
		Type:    core.AccountType(strings.ToLower(strings.TrimSpace(req.Type))),
		Balance: balance,
	}, nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// parseMonthQuery reads year and month from the query string, defaulting
// each to the current month.
func parseMonthQuery(r *http.Request, current core.Month) (core.Month, error) {
	m := current
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Month{}, errInvalidYearMonthQuery
		}
		m.Year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		mo, err := strconv.Atoi(v)
		if err != nil {
			return core.Month{}, errInvalidYearMonthQuery
		}
		m.Month = time.Month(mo)
	}
	return m, m.Validate()
}

func queryInt(r *http.Request, key string, def, max int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
