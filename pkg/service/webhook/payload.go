package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/amirasaad/donation/pkg/domain"
	"github.com/amirasaad/donation/pkg/service/reconcile"
)

// Field aliases accepted from the gateway, in order of preference.
var (
	referenceKeys     = []string{"externalreference", "externalId", "utilityref"}
	transactionIDKeys = []string{"reference", "transid", "transactionId"}
	statusKeys        = []string{"transactionstatus", "status"}
)

// Payload is a gateway callback with aliases resolved.
type Payload struct {
	ExternalReference string
	TransactionID     string
	Status            string
	Amount            string
	MSISDN            string
	Operator          string
	Message           string
	Password          string
}

// ParsePayload decodes a callback body.
func ParsePayload(body []byte) (*Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, domain.NewValidationError("body", "callback body is not a JSON object")
	}

	p := &Payload{
		ExternalReference: first(raw, referenceKeys...),
		TransactionID:     first(raw, transactionIDKeys...),
		Status:            first(raw, statusKeys...),
		Amount:            first(raw, "amount"),
		MSISDN:            first(raw, "msisdn"),
		Operator:          first(raw, "operator", "provider"),
		Message:           first(raw, "message"),
		Password:          first(raw, "password"),
	}
	if p.ExternalReference == "" && p.TransactionID == "" {
		return p, domain.NewValidationError("externalreference", "callback carries no reference")
	}
	return p, nil
}

// Outcome converts the payload for the reconciliation engine.
func (p *Payload) Outcome() reconcile.Outcome {
	return reconcile.Outcome{
		Reference:             p.ExternalReference,
		ProviderTransactionID: p.TransactionID,
		RawStatus:             p.Status,
		Amount:                p.Amount,
		Message:               p.Message,
		Source:                reconcile.SourceWebhook,
	}
}

func first(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case bool:
			s = fmt.Sprint(t)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
