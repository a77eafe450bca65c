package azampay

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type tokenRequest struct {
	AppName      string `json:"appName"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type tokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		AccessToken string `json:"accessToken"`
		Expire      string `json:"expire"`
	} `json:"data"`
}

type mnoCheckoutRequest struct {
	AccountNumber        string            `json:"accountNumber"`
	Amount               string            `json:"amount"`
	Currency             string            `json:"currency"`
	ExternalID           string            `json:"externalId"`
	Provider             string            `json:"provider"`
	AdditionalProperties map[string]string `json:"additionalProperties,omitempty"`
}

type bankCheckoutRequest struct {
	Amount                string            `json:"amount"`
	CurrencyCode          string            `json:"currencyCode"`
	MerchantAccountNumber string            `json:"merchantAccountNumber"`
	MerchantMobileNumber  string            `json:"merchantMobileNumber"`
	MerchantName          string            `json:"merchantName"`
	OTP                   string            `json:"otp"`
	Provider              string            `json:"provider"`
	ReferenceID           string            `json:"referenceId"`
	AdditionalProperties  map[string]string `json:"additionalProperties,omitempty"`
}

type statusRequest struct {
	TransactionID string `json:"transactionId"`
}

// apiResponse is the common shape of checkout and status replies.
type apiResponse struct {
	Success       bool                       `json:"success"`
	Message       string                     `json:"message"`
	MessageCode   any                        `json:"messageCode"`
	TransactionID string                     `json:"transactionId"`
	Errors        map[string]json.RawMessage `json:"errors"`
}

// errorMessage flattens the message and any per-field validation errors.
func (r *apiResponse) errorMessage() string {
	msg := r.Message
	if msg == "" {
		msg = "unknown error"
	}
	if len(r.Errors) == 0 {
		return msg
	}

	fields := make([]string, 0, len(r.Errors))
	for field := range r.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	details := make([]string, 0, len(fields))
	for _, field := range fields {
		var list []string
		if err := json.Unmarshal(r.Errors[field], &list); err != nil {
			var single string
			if err := json.Unmarshal(r.Errors[field], &single); err != nil {
				continue
			}
			list = []string{single}
		}
		if len(list) > 0 {
			details = append(details, fmt.Sprintf("%s: %s", field, strings.Join(list, ", ")))
		}
	}
	if len(details) == 0 {
		return msg
	}
	return msg + ": " + strings.Join(details, "; ")
}

type statusResponse struct {
	apiResponse
	Status json.RawMessage `json:"status"`
	Data   *struct {
		Status            string `json:"status"`
		TransactionStatus string `json:"transactionstatus"`
		TransactionID     string `json:"transactionId"`
	} `json:"data"`
}

// rawStatus prefers data.status, then the top-level status string.
func (r *statusResponse) rawStatus() string {
	if r.Data != nil {
		if r.Data.Status != "" {
			return r.Data.Status
		}
		if r.Data.TransactionStatus != "" {
			return r.Data.TransactionStatus
		}
	}
	var s string
	if len(r.Status) > 0 && json.Unmarshal(r.Status, &s) == nil {
		return s
	}
	return ""
}

func (r *statusResponse) transactionID() string {
	if r.Data != nil && r.Data.TransactionID != "" {
		return r.Data.TransactionID
	}
	return r.TransactionID
}
