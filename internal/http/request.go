package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// MalformedBodyMessage answers empty, oversized or unparseable bodies.
const MalformedBodyMessage = "Request body cannot be empty or is invalid JSON"

var errMalformedBody = core.Validation(MalformedBodyMessage)

// decodeJSON reads exactly one JSON value from the body into dst. Unknown
// fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return errMalformedBody
	}
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return errMalformedBody
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(dst); err != nil {
		return errMalformedBody
	}
	if dec.More() {
		return errMalformedBody
	}
	return nil
}

// pathID parses the {id} wildcard as a positive integer.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Validation("Invalid id: " + r.PathValue("id"))
	}
	return id, nil
}

// transactionRequest is the add payload for incomes and expenses. Amount
// accepts a JSON number or a decimal string.
type transactionRequest struct {
	Name       string          `json:"name"`
	Icon       string          `json:"icon"`
	CategoryID *int64          `json:"categoryId"`
	Amount     json.RawMessage `json:"amount"`
	Date       core.Date       `json:"date"`
}

func (req transactionRequest) toDomain(kind core.TransactionType) (*core.NewTransaction, error) {
	amount, err := parseAmountField(req.Amount)
	if err != nil {
		return nil, core.Validation(kind.Label() + " amount must be a valid number")
	}
	return &core.NewTransaction{
		Name:       req.Name,
		Icon:       req.Icon,
		CategoryID: req.CategoryID,
		Amount:     amount,
		Date:       req.Date,
	}, nil
}

// parseAmountField leaves sign checks to validation; a missing amount is zero.
func parseAmountField(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero, nil
	}
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(raw, &unquoted); err != nil {
			return decimal.Zero, err
		}
		s = strings.ReplaceAll(strings.TrimSpace(unquoted), ",", ".")
	}
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, errors.New("exponent not allowed")
	}
	return decimal.NewFromString(s)
}

// categoryRequest maps to core.CategoryInput; absent fields stay nil.
type categoryRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
	Icon *string `json:"icon"`
}

func (req categoryRequest) toDomain() *core.CategoryInput {
	return &core.CategoryInput{Name: req.Name, Type: req.Type, Icon: req.Icon}
}
